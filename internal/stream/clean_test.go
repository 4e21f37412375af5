package stream

import "testing"

func TestCleanStripsMarker(t *testing.T) {
	got := Clean("abc", "[CURSOR]def")
	want := "def"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCleanStripsPartialMarker(t *testing.T) {
	// A stream cut mid-marker leaves a partial tag at the tail.
	got := Clean("abc", "def[CUR")
	want := "def"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCleanRemovesRestatedOpening(t *testing.T) {
	got := Clean("It was late. The rain fell.", "The rain fell. Thunder rolled.")
	want := " Thunder rolled."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCleanDropsDuplicatePunctuation(t *testing.T) {
	got := Clean("He left.\n", "He left. She stayed.")
	want := " She stayed."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCleanPreservesLeadingSpace(t *testing.T) {
	got := Clean("Hello, my name is John and I", "Hello, my name is John and I work as an engineer.")
	want := " work as an engineer."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
