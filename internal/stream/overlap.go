package stream

import (
	"strings"
	"unicode"
)

// overlapWindowChars bounds how much trailing context overlap detection
// inspects.
const overlapWindowChars = 120

// RemoveOverlap strips the longest leading portion of generated that
// duplicates the trailing context. Two matchers run over the last 120
// context characters and the larger strip wins: a direct case-insensitive
// suffix/prefix match, and a punctuation/whitespace-normalized match that
// catches reformatted repeats.
func RemoveOverlap(context, generated string) string {
	if context == "" || generated == "" {
		return generated
	}

	ctxTail := []rune(context)
	if len(ctxTail) > overlapWindowChars {
		ctxTail = ctxTail[len(ctxTail)-overlapWindowChars:]
	}
	gen := []rune(generated)

	strip := directOverlap(ctxTail, gen)
	if n := normalizedOverlap(ctxTail, gen); n > strip {
		strip = n
	}
	return string(gen[strip:])
}

// directOverlap finds the longest k where the last k context runes equal the
// first k generated runes, ignoring case.
func directOverlap(ctxTail, gen []rune) int {
	limit := len(ctxTail)
	if len(gen) < limit {
		limit = len(gen)
	}
	for k := limit; k > 0; k-- {
		if strings.EqualFold(string(ctxTail[len(ctxTail)-k:]), string(gen[:k])) {
			return k
		}
	}
	return 0
}

// normalizedOverlap finds the longest raw generated prefix whose normalized
// form is a suffix of the normalized context tail.
func normalizedOverlap(ctxTail, gen []rune) int {
	normCtx := normalize(string(ctxTail))
	if normCtx == "" {
		return 0
	}

	best := 0
	var prefix strings.Builder
	for i, r := range gen {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		prefix.WriteRune(unicode.ToLower(r))
		np := prefix.String()
		if len(np) > len(normCtx) {
			break
		}
		if strings.HasSuffix(normCtx, np) {
			best = i + 1
		}
	}
	return best
}

// normalize lowercases and drops everything except letters and digits.
func normalize(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}
