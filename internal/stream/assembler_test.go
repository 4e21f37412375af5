package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/inkwell-ai/ghostwriter/internal/provider"
	"go.uber.org/zap"
)

func feedChunks(contents []string, done bool, capacity int) chan *provider.StreamChunk {
	ch := make(chan *provider.StreamChunk, capacity)
	for _, c := range contents {
		ch <- &provider.StreamChunk{Content: c}
	}
	if done {
		ch <- &provider.StreamChunk{Done: true}
	}
	close(ch)
	return ch
}

func TestAssemblerEarlyStop(t *testing.T) {
	a := NewAssembler(2, zap.NewNop())
	ch := feedChunks([]string{"Hello there. ", "This is great. ", "More text"}, true, 8)

	got, err := a.Consume(context.Background(), ch, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Hello there. This is great."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// The third chunk arrived after the stop point and must stay unread.
	if chunk := <-ch; chunk == nil || chunk.Content != "More text" {
		t.Errorf("early stop consumed past the sentence bound: %+v", chunk)
	}
}

func TestAssemblerCompleteStream(t *testing.T) {
	a := NewAssembler(3, zap.NewNop())
	ch := feedChunks([]string{"Hello ", "world."}, true, 4)

	got, err := a.Consume(context.Background(), ch, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hello world." {
		t.Errorf("got %q, want %q", got, "Hello world.")
	}
}

func TestAssemblerInterrupted(t *testing.T) {
	a := NewAssembler(2, zap.NewNop())
	ch := feedChunks([]string{"partial outp"}, false, 2)

	_, err := a.Consume(context.Background(), ch, "", nil)
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("got %v, want ErrInterrupted", err)
	}
}

func TestAssemblerContextCancel(t *testing.T) {
	a := NewAssembler(2, zap.NewNop())
	ch := make(chan *provider.StreamChunk)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Consume(ctx, ch, "", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestAssemblerThrottlesEmits(t *testing.T) {
	a := NewAssembler(5, zap.NewNop())
	// Freeze the clock so only the first projection clears the throttle.
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	ch := feedChunks([]string{"One ", "two ", "three ", "four"}, true, 8)

	var emits []string
	got, err := a.Consume(context.Background(), ch, "", func(s string) { emits = append(emits, s) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(emits) != 1 {
		t.Fatalf("got %d emits, want 1: %q", len(emits), emits)
	}
	if got != "One two three four" {
		t.Errorf("got %q, want %q", got, "One two three four")
	}
}

func TestAssemblerEmitsCleanedProjection(t *testing.T) {
	a := NewAssembler(5, zap.NewNop())
	ch := feedChunks([]string{"Hello, my name is John and I work"}, true, 4)

	var first string
	_, err := a.Consume(context.Background(), ch, "Hello, my name is John and I", func(s string) {
		if first == "" {
			first = s
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != " work" {
		t.Errorf("got %q, want %q", first, " work")
	}
}
