package prompt

import (
	"fmt"
	"strings"

	textctx "github.com/inkwell-ai/ghostwriter/internal/context"
)

// CursorMarker is the sentinel placed between before/after text so the model
// can tell the continuation point apart from surrounding text.
const CursorMarker = "[CURSOR]"

// Input carries everything prompt construction needs for one request.
type Input struct {
	Window       *textctx.ContextWindow
	Language     string
	Ambient      string
	MinSentences int
	MaxSentences int
}

// Builder constructs structured and streaming completion prompts.
type Builder struct{}

// NewBuilder creates a prompt builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Schema returns the JSON schema for structured responses.
func (b *Builder) Schema(in Input) []byte {
	return []byte(fmt.Sprintf(`{
  "type": "object",
  "properties": {
    "accept": {"type": "boolean"},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "sentences": {"type": "array", "items": {"type": "string"}, "minItems": %d, "maxItems": %d}
  },
  "required": ["accept", "confidence", "sentences"]
}`, bounded(in.MinSentences, 1), bounded(in.MaxSentences, 2)))
}

// Structured builds a prompt requesting a JSON object with accept,
// confidence and sentences fields.
func (b *Builder) Structured(in Input) string {
	var sb strings.Builder
	sb.WriteString("You are an inline writing assistant. Continue the text exactly at the ")
	sb.WriteString(CursorMarker)
	sb.WriteString(" marker.\n\n")
	b.writeConstraints(&sb, in)
	fmt.Fprintf(&sb,
		"Respond only with a JSON object: {\"accept\": boolean, \"confidence\": number between 0 and 1, \"sentences\": array of %d to %d strings}. Set accept to false if no natural continuation exists.\n\n",
		bounded(in.MinSentences, 1), bounded(in.MaxSentences, 2))
	b.writeContext(&sb, in)
	return sb.String()
}

// Streaming builds a prompt requesting raw continuation text only, with the
// same marker convention and constraints but no JSON wrapper.
func (b *Builder) Streaming(in Input) string {
	var sb strings.Builder
	sb.WriteString("You are an inline writing assistant. Continue the text exactly at the ")
	sb.WriteString(CursorMarker)
	sb.WriteString(" marker.\n\n")
	b.writeConstraints(&sb, in)
	sb.WriteString("Respond with the continuation text only. No preamble, no quotes, no markers.\n\n")
	b.writeContext(&sb, in)
	return sb.String()
}

func (b *Builder) writeConstraints(sb *strings.Builder, in Input) {
	// The heuristics read the before-cursor text rather than the shorter
	// recent window: its tail is verbatim even when the early prefix was
	// summarized, and the tone window is wider than the recent window.
	sb.WriteString("Rules:\n")
	fmt.Fprintf(sb, "- Never repeat any text that appears before %s.\n", CursorMarker)
	if IsQuestion(in.Window.BeforeCursor) {
		sb.WriteString("- The preceding text is a question: answer it tersely instead of continuing it.\n")
	} else {
		sb.WriteString("- Never answer questions or address the user; continue the narrative text.\n")
	}
	fmt.Fprintf(sb, "- Write between %d and %d sentences.\n",
		bounded(in.MinSentences, 1), bounded(in.MaxSentences, 2))
	if in.Language != "" {
		fmt.Fprintf(sb, "- Write in %s.\n", in.Language)
	}
	if hints := ToneHints(in.Window.BeforeCursor); len(hints) > 0 {
		fmt.Fprintf(sb, "- Match the existing tone: %s.\n", strings.Join(hints, ", "))
	}
}

func (b *Builder) writeContext(sb *strings.Builder, in Input) {
	if in.Ambient != "" {
		fmt.Fprintf(sb, "Page context: %s\n\n", in.Ambient)
	}
	sb.WriteString("Text:\n")
	sb.WriteString(in.Window.BeforeCursor)
	sb.WriteString(CursorMarker)
	sb.WriteString(in.Window.AfterCursor)
}

func bounded(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	return n
}
