package stream

import (
	"strings"
	"unicode"

	"github.com/inkwell-ai/ghostwriter/internal/prompt"
)

// Clean produces the cleaned projection of raw model output against the
// trailing pre-cursor context: marker stripping, overlap removal, repeated
// last-sentence removal, then leading duplicate punctuation removal.
func Clean(contextTail, raw string) string {
	text := stripMarker(raw)
	text = RemoveOverlap(contextTail, text)
	text = stripRepeatedLastSentence(contextTail, text)
	text = stripLeadingDupPunct(contextTail, text)
	return text
}

// stripMarker removes every literal cursor marker and any partial marker the
// stream was cut in the middle of.
func stripMarker(s string) string {
	s = strings.ReplaceAll(s, prompt.CursorMarker, "")
	for k := len(prompt.CursorMarker) - 1; k > 0; k-- {
		if strings.HasSuffix(s, prompt.CursorMarker[:k]) {
			return s[:len(s)-k]
		}
	}
	return s
}

// stripRepeatedLastSentence drops the generated text's opening if it restates
// the final sentence of the context.
func stripRepeatedLastSentence(contextTail, gen string) string {
	last := lastSentence(contextTail)
	if last == "" {
		return gen
	}
	trimmed := strings.TrimLeft(gen, " \t")
	lr := []rune(last)
	gr := []rune(trimmed)
	if len(gr) < len(lr) {
		return gen
	}
	if strings.EqualFold(string(gr[:len(lr)]), last) {
		return strings.TrimLeft(string(gr[len(lr):]), " \t")
	}
	return gen
}

// lastSentence returns the final complete-or-partial sentence of s, without
// surrounding whitespace.
func lastSentence(s string) string {
	segs := Segments(s)
	if len(segs) == 0 {
		return ""
	}
	last := strings.TrimSpace(segs[len(segs)-1])
	// A bare terminator run is not a sentence worth matching.
	hasWord := false
	for _, r := range last {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			hasWord = true
			break
		}
	}
	if !hasWord {
		return ""
	}
	return last
}

// stripLeadingDupPunct removes generated leading punctuation that duplicates
// the character the context already ends with.
func stripLeadingDupPunct(contextTail, gen string) string {
	ctx := strings.TrimRight(contextTail, " \t\n")
	if ctx == "" {
		return gen
	}
	ctxRunes := []rune(ctx)
	end := ctxRunes[len(ctxRunes)-1]
	if !unicode.IsPunct(end) {
		return gen
	}

	g := []rune(gen)
	for {
		i := 0
		for i < len(g) && (g[i] == ' ' || g[i] == '\t') {
			i++
		}
		if i < len(g) && g[i] == end {
			g = append(g[:i:i], g[i+1:]...)
			continue
		}
		break
	}
	return string(g)
}
