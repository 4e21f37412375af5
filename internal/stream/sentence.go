package stream

import "strings"

// isTerminator reports whether r ends a sentence.
func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '…', '。', '！', '？':
		return true
	}
	return false
}

// CountSentences counts sentence boundaries in s. A run of consecutive
// terminators ("...", "?!") counts as one boundary.
func CountSentences(s string) int {
	count := 0
	prevTerm := false
	for _, r := range s {
		term := isTerminator(r)
		if term && !prevTerm {
			count++
		}
		prevTerm = term
	}
	return count
}

// Segments splits s into sentence-like segments at terminator boundaries.
// Each terminated segment keeps its terminator run; a trailing unterminated
// fragment is its own segment.
func Segments(s string) []string {
	var segs []string
	var cur strings.Builder
	prevTerm := false
	for _, r := range s {
		term := isTerminator(r)
		if prevTerm && !term {
			segs = append(segs, cur.String())
			cur.Reset()
		}
		cur.WriteRune(r)
		prevTerm = term
	}
	if cur.Len() > 0 {
		segs = append(segs, cur.String())
	}
	return segs
}

// TrimToMax keeps at most max sentence segments, in order, each ending with
// its original terminator. Text already within the bound is returned
// unchanged. Kept segments beyond the first are trimmed and joined with
// single spaces.
func TrimToMax(s string, max int) string {
	if max <= 0 {
		max = 2
	}
	segs := Segments(s)
	if len(segs) <= max {
		return strings.TrimRight(s, " \t")
	}

	parts := make([]string, 0, max)
	parts = append(parts, strings.TrimRight(segs[0], " \t"))
	for _, seg := range segs[1:max] {
		parts = append(parts, strings.TrimSpace(seg))
	}
	return strings.Join(parts, " ")
}
