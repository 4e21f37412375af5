package provider

import (
	"context"
	"time"
)

// Availability describes whether a completion model can serve requests.
type Availability string

const (
	AvailabilityUnavailable  Availability = "unavailable"
	AvailabilityDownloadable Availability = "downloadable"
	AvailabilityDownloading  Availability = "downloading"
	AvailabilityReady        Availability = "ready"
)

// Provider defines the interface for completion model providers.
type Provider interface {
	ID() string
	Name() string
	Availability(ctx context.Context) (Availability, error)
	Complete(ctx context.Context, req *Request) (*Result, error)
	CompleteStream(ctx context.Context, req *Request) (<-chan *StreamChunk, error)
	SupportsStreaming() bool
}

// Request represents a completion request to a model provider.
type Request struct {
	Prompt         string   `json:"prompt"`
	System         string   `json:"system,omitempty"`
	ResponseSchema []byte   `json:"response_schema,omitempty"`
	Temperature    float64  `json:"temperature,omitempty"`
	MaxTokens      int      `json:"max_tokens,omitempty"`
	Stop           []string `json:"stop,omitempty"`
}

// Result is the single typed shape every structured completion response is
// normalized into, whether the provider returned raw text or parsed JSON.
type Result struct {
	Accept     bool     `json:"accept"`
	Confidence float64  `json:"confidence"`
	Sentences  []string `json:"sentences"`
	Raw        string   `json:"-"`
}

// StreamChunk represents one fragment of a streaming completion.
type StreamChunk struct {
	Content string `json:"content,omitempty"`
	Done    bool   `json:"done"`
}

// Summarizer condenses long text into a short summary. Implementations may
// fail; callers must treat failures as non-fatal.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Detection is one candidate language with its confidence.
type Detection struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// Detector identifies the language of a text sample. Results are ordered by
// descending confidence.
type Detector interface {
	Detect(text string) []Detection
}

// Config holds configuration for a provider instance.
type Config struct {
	ID       string        `json:"id"`
	Type     string        `json:"type"`
	Name     string        `json:"name"`
	Endpoint string        `json:"endpoint"`
	APIKey   string        `json:"api_key"`
	Model    string        `json:"model"`
	Timeout  time.Duration `json:"timeout,omitempty"`
}
