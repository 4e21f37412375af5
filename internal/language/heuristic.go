package language

import (
	"sort"
	"strings"
	"unicode"

	"github.com/inkwell-ai/ghostwriter/internal/provider"
)

// Detector is a lightweight stopword-profile language detector. It is not a
// linguist; it only needs to be right often enough to steer the prompt, and
// its confidence scores let the caller fall back to a default language.
type Detector struct{}

// NewDetector creates a heuristic language detector.
func NewDetector() *Detector {
	return &Detector{}
}

// profiles maps a language code to its most frequent short function words.
var profiles = map[string][]string{
	"en": {"the", "and", "is", "are", "was", "to", "of", "in", "it", "that", "for", "with", "on", "as", "this", "have"},
	"es": {"el", "la", "los", "las", "de", "que", "y", "en", "un", "una", "es", "por", "con", "para", "no", "se"},
	"fr": {"le", "la", "les", "de", "des", "et", "est", "en", "un", "une", "que", "pour", "dans", "ce", "pas", "je"},
	"de": {"der", "die", "das", "und", "ist", "in", "den", "von", "zu", "mit", "sich", "auf", "nicht", "ein", "eine", "ich"},
	"pt": {"o", "a", "os", "as", "de", "que", "e", "em", "um", "uma", "para", "com", "não", "do", "da", "é"},
	"it": {"il", "la", "le", "di", "che", "e", "in", "un", "una", "per", "con", "non", "sono", "del", "è", "io"},
	"nl": {"de", "het", "een", "en", "van", "is", "in", "op", "dat", "met", "voor", "niet", "zijn", "ik", "je", "aan"},
}

// Detect returns candidate languages ordered by descending confidence.
func (d *Detector) Detect(text string) []provider.Detection {
	if det, ok := detectByScript(text); ok {
		return []provider.Detection{det}
	}

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	if len(words) == 0 {
		return nil
	}

	var dets []provider.Detection
	for lang, profile := range profiles {
		set := make(map[string]bool, len(profile))
		for _, w := range profile {
			set[w] = true
		}
		hits := 0
		for _, w := range words {
			if set[w] {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		conf := float64(hits) / float64(len(words))
		if conf > 0.95 {
			conf = 0.95
		}
		dets = append(dets, provider.Detection{Language: lang, Confidence: conf})
	}

	sort.Slice(dets, func(i, j int) bool {
		if dets[i].Confidence != dets[j].Confidence {
			return dets[i].Confidence > dets[j].Confidence
		}
		return dets[i].Language < dets[j].Language
	})
	return dets
}

// detectByScript shortcuts languages with distinctive scripts.
func detectByScript(text string) (provider.Detection, bool) {
	counts := map[string]int{}
	letters := 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		switch {
		case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			counts["ja"]++
		case unicode.Is(unicode.Han, r):
			counts["zh"]++
		case unicode.Is(unicode.Hangul, r):
			counts["ko"]++
		case unicode.Is(unicode.Cyrillic, r):
			counts["ru"]++
		case unicode.Is(unicode.Arabic, r):
			counts["ar"]++
		}
	}
	if letters == 0 {
		return provider.Detection{}, false
	}

	// Japanese text mixes Han with kana; kana wins when present.
	if counts["ja"] > 0 && counts["ja"]+counts["zh"] > letters/2 {
		return provider.Detection{Language: "ja", Confidence: 0.9}, true
	}
	for _, lang := range []string{"zh", "ko", "ru", "ar"} {
		if counts[lang] > letters/2 {
			return provider.Detection{Language: lang, Confidence: 0.9}, true
		}
	}
	return provider.Detection{}, false
}
