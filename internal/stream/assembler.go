package stream

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/inkwell-ai/ghostwriter/internal/provider"
	"go.uber.org/zap"
)

// ErrInterrupted is returned when a provider stream ends without signalling
// completion. Callers get one fallback to the structured batch path.
var ErrInterrupted = errors.New("stream interrupted")

// updateThrottle is the minimum spacing between intermediate projections.
const updateThrottle = 60 * time.Millisecond

// Assembler accumulates provider output into a cleaned, sentence-bounded
// completion. One Assembler serves one request; its state dies with the
// stream.
type Assembler struct {
	maxSentences int
	now          func() time.Time
	logger       *zap.Logger
}

// NewAssembler creates a stream assembler bounded to maxSentences.
func NewAssembler(maxSentences int, logger *zap.Logger) *Assembler {
	if maxSentences <= 0 {
		maxSentences = 2
	}
	return &Assembler{
		maxSentences: maxSentences,
		now:          time.Now,
		logger:       logger,
	}
}

// Consume drains the chunk channel, emitting throttled cleaned projections
// through emit (which may be nil), and returns the finalized completion.
// Assembly stops early once the projection holds maxSentences terminators,
// even if the provider has not finished. A channel that closes before a Done
// chunk yields ErrInterrupted.
func (a *Assembler) Consume(ctx context.Context, chunks <-chan *provider.StreamChunk, contextTail string, emit func(string)) (string, error) {
	var raw strings.Builder
	var lastEmit time.Time
	done := false

	for !done {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				return "", ErrInterrupted
			}
			if chunk.Done {
				done = true
				break
			}
			raw.WriteString(chunk.Content)

			cleaned := Clean(contextTail, raw.String())
			if CountSentences(cleaned) >= a.maxSentences {
				a.logger.Debug("early stop", zap.Int("sentences", a.maxSentences))
				done = true
				break
			}
			if emit != nil && a.now().Sub(lastEmit) >= updateThrottle {
				emit(cleaned)
				lastEmit = a.now()
			}
		}
	}

	return a.Finalize(contextTail, raw.String()), nil
}

// Finalize cleans accumulated output and applies the sentence-range trim.
// An empty result means no suitable completion, not an error.
func (a *Assembler) Finalize(contextTail, raw string) string {
	return TrimToMax(Clean(contextTail, raw), a.maxSentences)
}
