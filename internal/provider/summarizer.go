package provider

import (
	"context"
	"fmt"
	"strings"
)

// LLMSummarizer condenses text by asking a completion provider for a summary.
type LLMSummarizer struct {
	router *Router
	site   string
}

// NewLLMSummarizer creates a summarizer backed by the router's providers.
func NewLLMSummarizer(router *Router) *LLMSummarizer {
	return &LLMSummarizer{router: router, site: "_summarizer"}
}

// Summarize compresses text into a short summary. Errors are expected and
// must be treated by callers as a signal to fall back, not as fatal.
func (s *LLMSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if s.router == nil {
		return "", fmt.Errorf("no router available for summarization")
	}

	req := &Request{
		Prompt: fmt.Sprintf(
			"Summarize the following text in 1-2 sentences, keeping key names, topics and intent:\n\n%s", text),
		MaxTokens: 256,
	}
	res, err := s.router.Route(ctx, s.site, req)
	if err != nil {
		return "", err
	}
	summary := strings.TrimSpace(strings.Join(res.Sentences, " "))
	if summary == "" {
		return "", fmt.Errorf("empty summary")
	}
	return summary, nil
}
