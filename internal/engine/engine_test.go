package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/inkwell-ai/ghostwriter/internal/provider"
	"github.com/inkwell-ai/ghostwriter/internal/trigger"
	"go.uber.org/zap"
)

type fakeSurface struct {
	before, after, full string
}

func (s fakeSurface) BeforeCursor() string { return s.before }
func (s fakeSurface) AfterCursor() string  { return s.after }
func (s fakeSurface) FullText() string     { return s.full }

// fakeProvider serves canned results and records call counts.
type fakeProvider struct {
	mu            sync.Mutex
	streaming     bool
	avail         provider.Availability
	availSeq      []provider.Availability
	result        *provider.Result
	completeErr   error
	chunks        []provider.StreamChunk
	sendDone      bool
	completeCalls int
	streamCalls   int
}

func (f *fakeProvider) ID() string   { return "fake" }
func (f *fakeProvider) Name() string { return "Fake Provider" }

func (f *fakeProvider) Availability(context.Context) (provider.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.availSeq) > 0 {
		a := f.availSeq[0]
		f.availSeq = f.availSeq[1:]
		return a, nil
	}
	if f.avail == "" {
		return provider.AvailabilityReady, nil
	}
	return f.avail, nil
}

func (f *fakeProvider) SupportsStreaming() bool { return f.streaming }

func (f *fakeProvider) Complete(ctx context.Context, _ *provider.Request) (*provider.Result, error) {
	f.mu.Lock()
	f.completeCalls++
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	return f.result, nil
}

func (f *fakeProvider) CompleteStream(context.Context, *provider.Request) (<-chan *provider.StreamChunk, error) {
	f.mu.Lock()
	f.streamCalls++
	f.mu.Unlock()
	ch := make(chan *provider.StreamChunk, len(f.chunks)+1)
	for i := range f.chunks {
		ch <- &f.chunks[i]
	}
	if f.sendDone {
		ch <- &provider.StreamChunk{Done: true}
	}
	close(ch)
	return ch, nil
}

func (f *fakeProvider) calls() (complete, stream int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completeCalls, f.streamCalls
}

func newTestEngine(p provider.Provider) *Engine {
	r := provider.NewRouter(zap.NewNop())
	r.Register(p)
	return New(r, nil, nil, nil, trigger.DefaultPolicy(), DefaultOptions(), zap.NewNop())
}

func testInput(before string) Input {
	return Input{
		Site:    "example.com",
		Surface: fakeSurface{before: before},
		Event:   trigger.Event{Kind: trigger.KindManual, Site: "example.com", SurfaceEditable: true},
	}
}

func TestRequestCompletionOverlapRemoval(t *testing.T) {
	p := &fakeProvider{
		result: &provider.Result{
			Accept:     true,
			Confidence: 0.9,
			Sentences:  []string{"Hello, my name is John and I work as an engineer."},
		},
	}
	e := newTestEngine(p)

	u := e.RequestCompletion(context.Background(), testInput("Hello, my name is John and I"), nil)
	if u.Status != StatusReady {
		t.Fatalf("got status %q (%v), want ready", u.Status, u.Err)
	}
	if u.Text != " work as an engineer." {
		t.Errorf("got %q, want %q", u.Text, " work as an engineer.")
	}
}

func TestRequestCompletionEmptyContext(t *testing.T) {
	p := &fakeProvider{result: &provider.Result{Accept: true, Confidence: 1, Sentences: []string{"x"}}}
	e := newTestEngine(p)

	u := e.RequestCompletion(context.Background(), testInput("   \n\t"), nil)
	if u.Status != StatusError {
		t.Fatalf("got status %q, want error", u.Status)
	}
	if !errors.Is(u.Err, ErrEmptyContext) {
		t.Errorf("got %v, want ErrEmptyContext", u.Err)
	}
	if c, s := p.calls(); c != 0 || s != 0 {
		t.Errorf("provider called on empty context: complete=%d stream=%d", c, s)
	}
}

func TestRequestCompletionLowConfidence(t *testing.T) {
	p := &fakeProvider{
		result: &provider.Result{Accept: true, Confidence: 0.2, Sentences: []string{"Maybe this works."}},
	}
	e := newTestEngine(p)

	u := e.RequestCompletion(context.Background(), testInput("Some text before the cursor"), nil)
	if u.Status != StatusLowConfidence {
		t.Fatalf("got status %q, want low-confidence", u.Status)
	}
	if u.Text == "" {
		t.Error("low-confidence result dropped its text")
	}
}

func TestRequestCompletionNoSuggestion(t *testing.T) {
	p := &fakeProvider{result: &provider.Result{Accept: false, Confidence: 0.8}}
	e := newTestEngine(p)

	u := e.RequestCompletion(context.Background(), testInput("Some text before the cursor"), nil)
	if u.Status != StatusNoSuggestion {
		t.Fatalf("got status %q, want no-suggestion", u.Status)
	}
	if u.Text != "" {
		t.Errorf("no-suggestion carries text %q", u.Text)
	}
}

func TestRequestCompletionCacheHit(t *testing.T) {
	p := &fakeProvider{
		result: &provider.Result{Accept: true, Confidence: 0.9, Sentences: []string{"The cached continuation."}},
	}
	e := newTestEngine(p)
	in := testInput("Some text before the cursor")

	first := e.RequestCompletion(context.Background(), in, nil)
	second := e.RequestCompletion(context.Background(), in, nil)

	if c, _ := p.calls(); c != 1 {
		t.Errorf("got %d provider calls, want 1", c)
	}
	if second.Status != StatusReady || second.Text != first.Text {
		t.Errorf("cache hit diverged: first %+v, second %+v", first, second)
	}
}

func TestRequestCompletionUnavailableProvider(t *testing.T) {
	p := &fakeProvider{avail: provider.AvailabilityUnavailable}
	e := newTestEngine(p)

	u := e.RequestCompletion(context.Background(), testInput("Some text before the cursor"), nil)
	if u.Status != StatusError {
		t.Fatalf("got status %q, want error", u.Status)
	}
	if !errors.Is(u.Err, ErrModelUnavailable) {
		t.Errorf("got %v, want ErrModelUnavailable", u.Err)
	}
}

func TestRequestCompletionWaitsForDownload(t *testing.T) {
	p := &fakeProvider{
		availSeq: []provider.Availability{provider.AvailabilityDownloading, provider.AvailabilityReady},
		result:   &provider.Result{Accept: true, Confidence: 0.9, Sentences: []string{"After the download."}},
	}
	e := newTestEngine(p)

	var updates []Update
	u := e.RequestCompletion(context.Background(), testInput("Some text before the cursor"), func(up Update) {
		updates = append(updates, up)
	})
	if u.Status != StatusReady {
		t.Fatalf("got status %q (%v), want ready", u.Status, u.Err)
	}
	if len(updates) == 0 || updates[0].Status != StatusDownloading {
		t.Fatalf("no downloading progress emitted: %+v", updates)
	}
	if !errors.Is(updates[0].Err, ErrDownloadInProgress) {
		t.Errorf("got %v, want ErrDownloadInProgress", updates[0].Err)
	}
}

func TestRequestCompletionDownloadStartsOnUserTrigger(t *testing.T) {
	p := &fakeProvider{
		availSeq: []provider.Availability{provider.AvailabilityDownloadable, provider.AvailabilityReady},
		result:   &provider.Result{Accept: true, Confidence: 0.9, Sentences: []string{"Model fetched."}},
	}
	e := newTestEngine(p)

	var updates []Update
	u := e.RequestCompletion(context.Background(), testInput("Some text before the cursor"), func(up Update) {
		updates = append(updates, up)
	})
	if u.Status != StatusReady {
		t.Fatalf("got status %q (%v), want ready", u.Status, u.Err)
	}
	if len(updates) == 0 || !errors.Is(updates[0].Err, ErrDownloadRequired) {
		t.Errorf("got %+v, want a download-required progress update", updates)
	}
}

func TestRequestCompletionDownloadNeedsUserActivation(t *testing.T) {
	p := &fakeProvider{avail: provider.AvailabilityDownloadable}
	e := newTestEngine(p)

	in := testInput("Some text before the cursor")
	in.Event.Kind = trigger.KindAutoPunctuation
	u := e.RequestCompletion(context.Background(), in, nil)
	if u.Status != StatusError {
		t.Fatalf("got status %q, want error", u.Status)
	}
	if !errors.Is(u.Err, ErrUserActivationRequired) {
		t.Errorf("got %v, want ErrUserActivationRequired", u.Err)
	}
	if c, s := p.calls(); c != 0 || s != 0 {
		t.Errorf("automatic trigger reached the provider: complete=%d stream=%d", c, s)
	}
}

func TestRequestCompletionStreaming(t *testing.T) {
	p := &fakeProvider{
		streaming: true,
		sendDone:  true,
		chunks:    []provider.StreamChunk{{Content: "Hello "}, {Content: "world."}},
	}
	e := newTestEngine(p)

	var streamed []Update
	u := e.RequestCompletion(context.Background(), testInput("Some text before the cursor"), func(up Update) {
		streamed = append(streamed, up)
	})
	if u.Status != StatusReady {
		t.Fatalf("got status %q (%v), want ready", u.Status, u.Err)
	}
	if u.Text != "Hello world." {
		t.Errorf("got %q, want %q", u.Text, "Hello world.")
	}
	if len(streamed) == 0 || streamed[0].Status != StatusStreaming {
		t.Errorf("no streaming updates emitted: %+v", streamed)
	}
}

func TestRequestCompletionStreamingFallsBackToBatch(t *testing.T) {
	p := &fakeProvider{
		streaming: true,
		sendDone:  false, // stream closes without a Done chunk
		chunks:    []provider.StreamChunk{{Content: "partial"}},
		result:    &provider.Result{Accept: true, Confidence: 0.9, Sentences: []string{"Recovered by batch."}},
	}
	e := newTestEngine(p)

	u := e.RequestCompletion(context.Background(), testInput("Some text before the cursor"), nil)
	if u.Status != StatusReady {
		t.Fatalf("got status %q (%v), want ready", u.Status, u.Err)
	}
	if u.Text != "Recovered by batch." {
		t.Errorf("got %q, want %q", u.Text, "Recovered by batch.")
	}
	if c, s := p.calls(); s != 1 || c != 1 {
		t.Errorf("got complete=%d stream=%d, want one of each", c, s)
	}
}

func TestRequestCompletionMalformedResponse(t *testing.T) {
	p := &fakeProvider{completeErr: provider.ErrMalformedResponse}
	e := newTestEngine(p)

	u := e.RequestCompletion(context.Background(), testInput("Some text before the cursor"), nil)
	if u.Status != StatusError {
		t.Fatalf("got status %q, want error", u.Status)
	}
	if !errors.Is(u.Err, ErrParse) {
		t.Errorf("got %v, want ErrParse", u.Err)
	}
}

func TestRequestCompletionCancelledIsSilent(t *testing.T) {
	p := &fakeProvider{result: &provider.Result{Accept: true, Confidence: 1, Sentences: []string{"x."}}}
	e := newTestEngine(p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	u := e.RequestCompletion(ctx, testInput("Some text before the cursor"), nil)
	if u.Status != "" {
		t.Errorf("cancelled request surfaced status %q", u.Status)
	}
}

func TestHandleTriggerRejection(t *testing.T) {
	p := &fakeProvider{result: &provider.Result{Accept: true, Confidence: 1, Sentences: []string{"x."}}}
	e := newTestEngine(p)

	in := testInput("Some text before the cursor")
	in.Event.SurfaceEditable = false
	if _, ok := e.HandleTrigger(context.Background(), in, nil); ok {
		t.Fatal("event on non-editable surface admitted")
	}
	if c, s := p.calls(); c != 0 || s != 0 {
		t.Errorf("rejected trigger reached the provider: complete=%d stream=%d", c, s)
	}
}

func TestHandleTriggerRateLimited(t *testing.T) {
	p := &fakeProvider{result: &provider.Result{Accept: true, Confidence: 1, Sentences: []string{"Sure thing."}}}
	e := newTestEngine(p)
	in := testInput("Some text before the cursor")

	if _, ok := e.HandleTrigger(context.Background(), in, nil); !ok {
		t.Fatal("first trigger rejected")
	}
	if _, ok := e.HandleTrigger(context.Background(), in, nil); ok {
		t.Fatal("immediate second trigger admitted")
	}
}

func TestUpdatePolicyChangesSentenceBounds(t *testing.T) {
	p := &fakeProvider{result: &provider.Result{Accept: true, Confidence: 1, Sentences: []string{"x."}}}
	e := newTestEngine(p)

	pol := e.Policy()
	pol.MaxSentences = 3
	pol.MinTriggerIntervalMs = 100
	e.UpdatePolicy(pol)

	got := e.Policy()
	if got.MaxSentences != 3 || got.MinTriggerIntervalMs != 100 {
		t.Errorf("policy not applied: %+v", got)
	}
}

func TestDetectLanguageGating(t *testing.T) {
	p := &fakeProvider{}
	r := provider.NewRouter(zap.NewNop())
	r.Register(p)
	e := New(r, staticDetector{}, nil, nil, trigger.DefaultPolicy(), DefaultOptions(), zap.NewNop())

	// Short context skips detection, falling back to the default.
	if got := e.detectLanguage("corto"); got != "en" {
		t.Errorf("got %q for short text, want en", got)
	}
	if got := e.detectLanguage("texto suficientemente largo para detectar"); got != "es" {
		t.Errorf("got %q, want es", got)
	}
}

type staticDetector struct{}

func (staticDetector) Detect(string) []provider.Detection {
	return []provider.Detection{{Language: "es", Confidence: 0.8}}
}
