package context

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/inkwell-ai/ghostwriter/internal/provider"
	"go.uber.org/zap"
)

const (
	ambientTTL          = 5 * time.Second
	ambientMaxChars     = 500
	ambientSummarizeLen = 300
	ambientMaxHeadings  = 3
	ambientMaxBlocks    = 2
	ambientBlockRadius  = 200.0
	headingMaxChars     = 120
)

// AmbientCollector assembles a short description of the page around the
// focused surface. Results are cached briefly because collecting them is an
// expensive host-side scan.
type AmbientCollector struct {
	summarizer provider.Summarizer
	logger     *zap.Logger

	// mu guards the cached result; a superseded request may still be inside
	// Collect when its successor enters.
	mu        sync.Mutex
	cached    string
	fetchedAt time.Time
	now       func() time.Time
}

// NewAmbientCollector creates an ambient context collector. The summarizer
// may be nil.
func NewAmbientCollector(summarizer provider.Summarizer, logger *zap.Logger) *AmbientCollector {
	return &AmbientCollector{
		summarizer: summarizer,
		logger:     logger,
		now:        time.Now,
	}
}

// Collect turns page metadata into a bounded ambient-context string. A cached
// result is reused for 5 seconds.
func (a *AmbientCollector) Collect(ctx context.Context, page PageInfo) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cached != "" && a.now().Sub(a.fetchedAt) < ambientTTL {
		return a.cached
	}

	var parts []string
	if t := strings.TrimSpace(page.Title); t != "" {
		parts = append(parts, t)
	}
	if d := strings.TrimSpace(page.MetaDescription); d != "" {
		parts = append(parts, d)
	}
	count := 0
	for _, h := range page.Headings {
		h = strings.TrimSpace(h)
		if h == "" || len([]rune(h)) > headingMaxChars {
			continue
		}
		parts = append(parts, h)
		count++
		if count >= ambientMaxHeadings {
			break
		}
	}
	count = 0
	for _, b := range page.Blocks {
		if b.Distance > ambientBlockRadius {
			continue
		}
		text := strings.TrimSpace(b.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
		count++
		if count >= ambientMaxBlocks {
			break
		}
	}

	combined := strings.Join(parts, " · ")
	if r := []rune(combined); len(r) > ambientMaxChars {
		combined = string(r[:ambientMaxChars])
	}

	if len([]rune(combined)) > ambientSummarizeLen && a.summarizer != nil {
		summary, err := a.summarizer.Summarize(ctx, combined)
		if err != nil {
			a.logger.Warn("ambient summarization failed, keeping truncated text", zap.Error(err))
		} else {
			combined = summary
		}
	}

	a.cached = combined
	a.fetchedAt = a.now()
	return combined
}
