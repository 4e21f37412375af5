package stream

import "testing"

func TestRemoveOverlapDirect(t *testing.T) {
	context := "Hello, my name is John and I"
	generated := "Hello, my name is John and I work as an engineer."

	got := RemoveOverlap(context, generated)
	want := " work as an engineer."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRemoveOverlapCaseInsensitive(t *testing.T) {
	got := RemoveOverlap("The quick brown fox", "THE QUICK BROWN FOX jumps over")
	want := " jumps over"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRemoveOverlapNormalized(t *testing.T) {
	// The restated opening differs in punctuation but matches once
	// normalized.
	got := RemoveOverlap("He said hello world", "He said, hello world! And then he left")
	want := "! And then he left"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRemoveOverlapNoMatch(t *testing.T) {
	got := RemoveOverlap("Completely unrelated text", "Something fresh entirely")
	want := "Something fresh entirely"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRemoveOverlapIdempotent(t *testing.T) {
	cases := []struct{ context, generated string }{
		{"Hello, my name is John and I", "Hello, my name is John and I work as an engineer."},
		{"He said hello world", "He said, hello world! And then he left"},
		{"The meeting starts at", "The meeting starts at noon sharp."},
	}
	for _, tc := range cases {
		once := RemoveOverlap(tc.context, tc.generated)
		twice := RemoveOverlap(tc.context, once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", tc.generated, once, twice)
		}
	}
}

func TestRemoveOverlapBoundedWindow(t *testing.T) {
	// Repetition of text older than the 120-char window is left alone.
	old := "This sentence scrolled far out of the inspection window ages ago."
	var context string
	context = old
	for len(context) < 400 {
		context += " Filler prose keeps the tail well away from the opening line."
	}
	got := RemoveOverlap(context, old)
	if got != old {
		t.Errorf("stripped text outside the overlap window: got %q", got)
	}
}

func TestRemoveOverlapEmptyInputs(t *testing.T) {
	if got := RemoveOverlap("", "keep me"); got != "keep me" {
		t.Errorf("got %q, want %q", got, "keep me")
	}
	if got := RemoveOverlap("context", ""); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
