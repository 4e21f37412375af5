package prompt

import "strings"

// interrogatives is the bounded set of words and phrases that mark a final
// clause as a question.
var interrogatives = []string{
	"who", "what", "when", "where", "why", "how", "which", "whose", "whom",
	"can you", "could you", "would you", "will you", "should i", "should we",
	"do you", "does", "did you", "is it", "are you", "is there", "are there",
	"what if", "any idea", "any thoughts",
}

// IsQuestion reports whether text ends in a question. Text qualifies if it
// ends with a question mark, or if its final clause starts with, or
// contains, one of a bounded set of interrogative words and phrases.
func IsQuestion(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if strings.HasSuffix(trimmed, "?") || strings.HasSuffix(trimmed, "？") {
		return true
	}

	clause := finalClause(trimmed)
	if clause == "" {
		return false
	}
	for _, w := range interrogatives {
		if strings.HasPrefix(clause, w+" ") || clause == w {
			return true
		}
		if strings.Contains(clause, " "+w+" ") {
			return true
		}
	}
	return false
}

// finalClause returns the lowercased text after the last sentence or clause
// boundary.
func finalClause(s string) string {
	idx := strings.LastIndexAny(s, ".!?;:\n")
	if idx >= 0 {
		s = s[idx+1:]
	}
	return strings.ToLower(strings.TrimSpace(s))
}
