package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell-ai/ghostwriter/internal/cache"
	textctx "github.com/inkwell-ai/ghostwriter/internal/context"
	"github.com/inkwell-ai/ghostwriter/internal/prompt"
	"github.com/inkwell-ai/ghostwriter/internal/provider"
	"github.com/inkwell-ai/ghostwriter/internal/stream"
	"github.com/inkwell-ai/ghostwriter/internal/trigger"
	"go.uber.org/zap"
)

// Status is the outward-facing state of a completion request.
type Status string

const (
	StatusReady         Status = "ready"
	StatusStreaming     Status = "streaming-update"
	StatusLowConfidence Status = "low-confidence"
	StatusNoSuggestion  Status = "no-suggestion"
	StatusDownloading   Status = "downloading"
	StatusError         Status = "error"
)

// Update is one message delivered to the caller: intermediate streaming
// projections and the terminal result share this shape.
type Update struct {
	Status  Status `json:"status"`
	Text    string `json:"text,omitempty"`
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

// Input describes one completion trigger.
type Input struct {
	Site    string
	Surface textctx.Surface
	Page    *textctx.PageInfo
	Event   trigger.Event
}

// Options are the engine's tunable thresholds.
type Options struct {
	// DefaultLanguage is used when detection is skipped or low-confidence.
	DefaultLanguage string
	// CacheCapacity bounds the local LRU.
	CacheCapacity int
	// LowConfidence is the structured-response gating threshold. Results
	// below it are still delivered, flagged low-confidence.
	LowConfidence float64
	// DetectMinChars is the minimum context length before language detection
	// runs.
	DetectMinChars int
	// DetectMinConfidence is the minimum detector confidence to accept its
	// top result.
	DetectMinConfidence float64
	// MaxTokens bounds provider generation per request.
	MaxTokens int
}

// DefaultOptions returns the stock engine thresholds.
func DefaultOptions() Options {
	return Options{
		DefaultLanguage:     "en",
		CacheCapacity:       64,
		LowConfidence:       0.3,
		DetectMinChars:      10,
		DetectMinConfidence: 0.5,
		MaxTokens:           256,
	}
}

// availabilityPollInterval paces waiting on a model download.
const availabilityPollInterval = 500 * time.Millisecond

type activeRequest struct {
	id     uuid.UUID
	cancel context.CancelFunc
}

// Engine is the completion orchestrator: it owns admission, context
// extraction, the provider round trip, stream assembly, and the cache
// around it. At most one request is live; a new trigger cancels the prior
// one.
type Engine struct {
	opts      Options
	providers *provider.Router
	detector  provider.Detector
	extractor *textctx.Extractor
	ambient   *textctx.AmbientCollector
	prompts   *prompt.Builder
	trigger   *trigger.Controller
	cache     *cache.LRU
	shared    *cache.Shared
	logger    *zap.Logger

	mu     sync.Mutex
	active *activeRequest
}

// New creates a completion engine. detector, summarizer and sites may be
// nil.
func New(providers *provider.Router, detector provider.Detector, summarizer provider.Summarizer,
	sites trigger.SiteGate, policy trigger.Policy, opts Options, logger *zap.Logger) *Engine {
	def := DefaultOptions()
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = def.DefaultLanguage
	}
	if opts.CacheCapacity <= 0 {
		opts.CacheCapacity = def.CacheCapacity
	}
	if opts.LowConfidence <= 0 {
		opts.LowConfidence = def.LowConfidence
	}
	if opts.DetectMinChars <= 0 {
		opts.DetectMinChars = def.DetectMinChars
	}
	if opts.DetectMinConfidence <= 0 {
		opts.DetectMinConfidence = def.DetectMinConfidence
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = def.MaxTokens
	}
	return &Engine{
		opts:      opts,
		providers: providers,
		detector:  detector,
		extractor: textctx.NewExtractor(summarizer, logger),
		ambient:   textctx.NewAmbientCollector(summarizer, logger),
		prompts:   prompt.NewBuilder(),
		trigger:   trigger.NewController(policy, sites, logger),
		cache:     cache.NewLRU(opts.CacheCapacity),
		logger:    logger,
	}
}

// SetShared attaches the optional Redis-backed cache tier.
func (e *Engine) SetShared(s *cache.Shared) { e.shared = s }

// Providers exposes the provider router for the HTTP surface.
func (e *Engine) Providers() *provider.Router { return e.providers }

// Policy returns the active trigger policy.
func (e *Engine) Policy() trigger.Policy { return e.trigger.Policy() }

// UpdatePolicy applies a settings change without restart.
func (e *Engine) UpdatePolicy(p trigger.Policy) {
	e.trigger.SetPolicy(p)
	e.logger.Info("trigger policy updated",
		zap.Int("min_interval_ms", p.MinTriggerIntervalMs),
		zap.Int("max_sentences", p.MaxSentences))
}

// SetCacheCapacity re-derives the completion cache. The old cache is
// discarded; entries are not migrated.
func (e *Engine) SetCacheCapacity(n int) {
	e.cache.Resize(n)
	e.logger.Info("completion cache resized", zap.Int("capacity", n))
}

// HandleTrigger runs admission and, if the event is admitted, one full
// completion cycle. ok reports admission; rejection is silent and issues no
// request.
func (e *Engine) HandleTrigger(ctx context.Context, in Input, emit func(Update)) (Update, bool) {
	if !e.trigger.Admit(in.Event) {
		return Update{}, false
	}
	return e.RequestCompletion(ctx, in, emit), true
}

// RequestCompletion is the single entry point for an admitted request. Any
// in-flight request is cancelled first. emit, which may be nil, receives
// intermediate streaming projections and download progress.
func (e *Engine) RequestCompletion(ctx context.Context, in Input, emit func(Update)) Update {
	reqID := uuid.New()
	rctx, cancel := context.WithCancel(ctx)
	e.begin(reqID, cancel)
	defer e.finish(reqID, cancel)

	u := e.run(rctx, reqID, in, emit)
	if u.Err != nil && !errors.Is(u.Err, context.Canceled) {
		e.logger.Warn("completion request failed",
			zap.String("request", reqID.String()), zap.Error(u.Err))
	}
	return u
}

// CancelActive cooperatively cancels the in-flight request, if any.
func (e *Engine) CancelActive() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil {
		e.active.cancel()
		e.active = nil
	}
}

func (e *Engine) begin(id uuid.UUID, cancel context.CancelFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil {
		e.active.cancel()
	}
	e.active = &activeRequest{id: id, cancel: cancel}
}

func (e *Engine) finish(id uuid.UUID, cancel context.CancelFunc) {
	e.mu.Lock()
	if e.active != nil && e.active.id == id {
		e.active = nil
	}
	e.mu.Unlock()
	cancel()
}

// isActive guards late results: anything resolving after cancellation must
// not touch the cache or reach the caller.
func (e *Engine) isActive(id uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active != nil && e.active.id == id
}

func (e *Engine) run(ctx context.Context, reqID uuid.UUID, in Input, emit func(Update)) Update {
	window := e.extractor.Extract(ctx, in.Surface)
	if window.Empty() {
		return classify(ErrEmptyContext)
	}

	lang := e.detectLanguage(window.RecentWindow)
	key := cache.DeriveKey(in.Site, window.RecentWindow, lang)

	if text, ok := e.cache.Get(key); ok {
		return Update{Status: StatusReady, Text: text}
	}
	if e.shared != nil {
		if text, ok := e.shared.Get(ctx, key); ok {
			e.cache.Set(key, text)
			return Update{Status: StatusReady, Text: text}
		}
	}

	prov, err := e.providers.For(in.Site)
	if err != nil {
		return classify(fmt.Errorf("%w: %v", ErrModelUnavailable, err))
	}
	if err := e.awaitReady(ctx, reqID, prov, in.Event.Kind, emit); err != nil {
		return classify(err)
	}

	ambient := ""
	if in.Page != nil {
		ambient = e.ambient.Collect(ctx, *in.Page)
	}
	pol := e.trigger.Policy()
	pin := prompt.Input{
		Window:       window,
		Language:     lang,
		Ambient:      ambient,
		MinSentences: pol.MinSentences,
		MaxSentences: pol.MaxSentences,
	}

	var (
		text    string
		lowConf bool
	)
	if prov.SupportsStreaming() {
		text, err = e.streamPath(ctx, reqID, prov, pin, window, emit)
		if err != nil && errors.Is(err, ErrStreamingFailed) && ctx.Err() == nil {
			e.logger.Warn("streaming path failed, falling back to batch", zap.Error(err))
			text, lowConf, err = e.batchPath(ctx, prov, pin, window)
		}
	} else {
		text, lowConf, err = e.batchPath(ctx, prov, pin, window)
	}
	if err != nil {
		return classify(err)
	}

	if strings.TrimSpace(text) == "" {
		return Update{Status: StatusNoSuggestion, Message: "no suitable completion"}
	}

	if e.isActive(reqID) {
		e.cache.Set(key, text)
		if e.shared != nil {
			e.shared.Set(ctx, key, text)
		}
	}

	if lowConf {
		return Update{Status: StatusLowConfidence, Text: text}
	}
	return Update{Status: StatusReady, Text: text}
}

// awaitReady surfaces the download lifecycle as progress rather than
// failure, polling until the provider reports ready. Starting a fresh
// download is gated on an explicit user action: automatic triggers cannot
// initiate one.
func (e *Engine) awaitReady(ctx context.Context, reqID uuid.UUID, prov provider.Provider,
	kind trigger.Kind, emit func(Update)) error {
	avail, err := prov.Availability(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	switch avail {
	case provider.AvailabilityReady:
		return nil
	case provider.AvailabilityUnavailable:
		return ErrModelUnavailable
	case provider.AvailabilityDownloadable:
		if kind != trigger.KindManual && kind != trigger.KindCtrlEnter {
			return ErrUserActivationRequired
		}
		e.notifyDownload(reqID, ErrDownloadRequired, emit)
	case provider.AvailabilityDownloading:
		e.notifyDownload(reqID, ErrDownloadInProgress, emit)
	}

	ticker := time.NewTicker(availabilityPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			avail, err = prov.Availability(ctx)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
			}
			switch avail {
			case provider.AvailabilityReady:
				return nil
			case provider.AvailabilityUnavailable:
				return ErrModelUnavailable
			}
		}
	}
}

// notifyDownload translates a download-lifecycle cause into the progress
// update delivered to the caller.
func (e *Engine) notifyDownload(reqID uuid.UUID, cause error, emit func(Update)) {
	if emit != nil && e.isActive(reqID) {
		emit(classify(cause))
	}
}

func (e *Engine) streamPath(ctx context.Context, reqID uuid.UUID, prov provider.Provider,
	pin prompt.Input, window *textctx.ContextWindow, emit func(Update)) (string, error) {
	req := &provider.Request{
		Prompt:    e.prompts.Streaming(pin),
		MaxTokens: e.opts.MaxTokens,
	}
	ch, err := prov.CompleteStream(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStreamingFailed, err)
	}

	asm := stream.NewAssembler(pin.MaxSentences, e.logger)
	text, err := asm.Consume(ctx, ch, window.RecentWindow, func(projection string) {
		if emit != nil && e.isActive(reqID) {
			emit(Update{Status: StatusStreaming, Text: projection})
		}
	})
	if err != nil {
		if errors.Is(err, stream.ErrInterrupted) {
			return "", fmt.Errorf("%w: %v", ErrStreamingFailed, err)
		}
		return "", err
	}
	return text, nil
}

func (e *Engine) batchPath(ctx context.Context, prov provider.Provider,
	pin prompt.Input, window *textctx.ContextWindow) (string, bool, error) {
	req := &provider.Request{
		Prompt:         e.prompts.Structured(pin),
		ResponseSchema: e.prompts.Schema(pin),
		MaxTokens:      e.opts.MaxTokens,
	}
	res, err := prov.Complete(ctx, req)
	if err != nil {
		if errors.Is(err, provider.ErrMalformedResponse) {
			return "", false, fmt.Errorf("%w: %v", ErrParse, err)
		}
		return "", false, err
	}
	if !res.Accept || len(res.Sentences) == 0 {
		return "", false, nil
	}

	asm := stream.NewAssembler(pin.MaxSentences, e.logger)
	text := asm.Finalize(window.RecentWindow, strings.Join(res.Sentences, " "))
	return text, res.Confidence < e.opts.LowConfidence, nil
}

// detectLanguage runs the detector only on long-enough context and accepts
// its top result only above the confidence floor.
func (e *Engine) detectLanguage(text string) string {
	if e.detector == nil || len([]rune(text)) < e.opts.DetectMinChars {
		return e.opts.DefaultLanguage
	}
	dets := e.detector.Detect(text)
	if len(dets) > 0 && dets[0].Confidence >= e.opts.DetectMinConfidence {
		return dets[0].Language
	}
	return e.opts.DefaultLanguage
}
