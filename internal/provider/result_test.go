package provider

import (
	"errors"
	"testing"
)

func TestParseResultPlainJSON(t *testing.T) {
	res, err := ParseResult(`{"accept": true, "confidence": 0.8, "sentences": ["First.", "Second."]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Accept || res.Confidence != 0.8 || len(res.Sentences) != 2 {
		t.Errorf("got %+v", res)
	}
}

func TestParseResultCodeFence(t *testing.T) {
	raw := "```json\n{\"accept\": true, \"confidence\": 0.5, \"sentences\": [\"Inside a fence.\"]}\n```"
	res, err := ParseResult(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Sentences) != 1 || res.Sentences[0] != "Inside a fence." {
		t.Errorf("got %+v", res)
	}
	if res.Raw != raw {
		t.Error("raw text not preserved")
	}
}

func TestParseResultLeadingProse(t *testing.T) {
	res, err := ParseResult(`Here is the continuation: {"accept": false, "confidence": 0.1, "sentences": []} hope that helps`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Accept {
		t.Errorf("got %+v, want accept false", res)
	}
}

func TestParseResultBracesInsideStrings(t *testing.T) {
	res, err := ParseResult(`{"accept": true, "confidence": 1, "sentences": ["uses { and } freely"]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Sentences[0] != "uses { and } freely" {
		t.Errorf("got %q", res.Sentences[0])
	}
}

func TestParseResultClampsConfidence(t *testing.T) {
	res, err := ParseResult(`{"accept": true, "confidence": 1.7, "sentences": ["x"]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Confidence != 1 {
		t.Errorf("got confidence %v, want 1", res.Confidence)
	}
}

func TestParseResultMalformed(t *testing.T) {
	for _, raw := range []string{"", "no json here", "{\"accept\": tru"} {
		if _, err := ParseResult(raw); !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("ParseResult(%q) = %v, want ErrMalformedResponse", raw, err)
		}
	}
}
