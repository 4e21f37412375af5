package context

import (
	"context"
	"fmt"

	"github.com/inkwell-ai/ghostwriter/internal/provider"
	"go.uber.org/zap"
)

const (
	// recentWindowChars is the verbatim suffix length kept for language and
	// tone detection.
	recentWindowChars = 200
	// summarizeThreshold is the prefix length beyond which the early segment
	// is summarized.
	summarizeThreshold = 1000
	// recentSegmentChars is the verbatim tail kept alongside a summary. Both
	// it and the truncation fallback stay longer than the 300-char window the
	// prompt heuristics read, so those never see synthetic text.
	recentSegmentChars = 500
	// truncateFallbackChars is the plain-truncation length used when
	// summarization fails.
	truncateFallbackChars = 800
)

// Extractor builds ContextWindows from a host surface, summarizing long
// prefixes when a summarizer is available.
type Extractor struct {
	summarizer provider.Summarizer
	logger     *zap.Logger
}

// NewExtractor creates a context extractor. The summarizer may be nil.
func NewExtractor(summarizer provider.Summarizer, logger *zap.Logger) *Extractor {
	return &Extractor{summarizer: summarizer, logger: logger}
}

// Extract snapshots the surface into a ContextWindow. It never fails:
// summarization errors degrade to plain truncation.
func (e *Extractor) Extract(ctx context.Context, s Surface) *ContextWindow {
	before := s.BeforeCursor()

	w := &ContextWindow{
		AfterCursor:  s.AfterCursor(),
		RecentWindow: lastChars(before, recentWindowChars),
		FullText:     s.FullText(),
	}
	w.BeforeCursor = e.condense(ctx, before)
	return w
}

// condense reduces a long prefix to a summary plus a verbatim tail.
func (e *Extractor) condense(ctx context.Context, before string) string {
	runes := []rune(before)
	if len(runes) <= summarizeThreshold {
		return before
	}
	if e.summarizer == nil {
		return string(runes[len(runes)-truncateFallbackChars:])
	}

	early := string(runes[:len(runes)-recentSegmentChars])
	recent := string(runes[len(runes)-recentSegmentChars:])

	summary, err := e.summarizer.Summarize(ctx, early)
	if err != nil {
		e.logger.Warn("prefix summarization failed, truncating", zap.Error(err))
		return string(runes[len(runes)-truncateFallbackChars:])
	}
	return fmt.Sprintf("[Earlier context: %s]\n\n%s", summary, recent)
}

// lastChars returns the last n runes of s.
func lastChars(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
