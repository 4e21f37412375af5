package prompt

import (
	"strings"
	"unicode"
)

// toneWindowChars bounds how much trailing context the tone heuristics see.
const toneWindowChars = 300

// ToneHints derives a small set of tone descriptors from shallow heuristics
// over the last 300 characters of context. The hints are hints only; the
// model remains free to ignore them.
func ToneHints(text string) []string {
	r := []rune(text)
	if len(r) > toneWindowChars {
		text = string(r[len(r)-toneWindowChars:])
	}
	lower := strings.ToLower(text)

	var hints []string
	if containsAny(lower, "please", "thank", "kindly", "would you", "could you") {
		hints = append(hints, "polite")
	}
	if strings.Count(text, "!") >= 2 || hasShoutedWord(text) {
		hints = append(hints, "emphatic")
	}
	if wordFrequency(lower, "we", "our", "us") >= 2 {
		hints = append(hints, "inclusive")
	}
	if wordFrequency(lower, "i", "my", "me", "mine") >= 2 {
		hints = append(hints, "first-person")
	}
	if avgSentenceLen(text) > 0 && avgSentenceLen(text) < 60 {
		hints = append(hints, "concise")
	}
	if !containsAny(lower, "n't", "'re", "'ll", "'ve", "gonna", "wanna", "kinda") {
		hints = append(hints, "formal")
	}
	return hints
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func wordFrequency(s string, words ...string) int {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	count := 0
	for _, f := range fields {
		for _, w := range words {
			if f == w {
				count++
			}
		}
	}
	return count
}

func hasShoutedWord(s string) bool {
	for _, f := range strings.Fields(s) {
		letters := 0
		upper := 0
		for _, r := range f {
			if unicode.IsLetter(r) {
				letters++
				if unicode.IsUpper(r) {
					upper++
				}
			}
		}
		if letters >= 3 && letters == upper {
			return true
		}
	}
	return false
}

func avgSentenceLen(s string) int {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	if len(parts) == 0 {
		return 0
	}
	total := 0
	for _, p := range parts {
		total += len(strings.TrimSpace(p))
	}
	return total / len(parts)
}
