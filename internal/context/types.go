package context

// Surface abstracts the host text surface the cursor lives in. The engine
// only reads from it and trusts what it returns; rendering and cursor
// movement stay on the host side.
type Surface interface {
	BeforeCursor() string
	AfterCursor() string
	FullText() string
}

// ContextWindow is the cursor-relative snapshot handed to prompt building.
// It is constructed fresh per trigger and never mutated afterwards.
type ContextWindow struct {
	// BeforeCursor is the text preceding the cursor, possibly a summary
	// placeholder concatenated with a verbatim tail when the raw prefix was
	// long.
	BeforeCursor string
	// AfterCursor is the text following the cursor.
	AfterCursor string
	// RecentWindow is always a verbatim suffix of the true prefix, never
	// summarized, so language and tone detection never see synthetic text.
	RecentWindow string
	// FullText is the whole surface content.
	FullText string
}

// Empty reports whether there is any usable text before the cursor.
func (w *ContextWindow) Empty() bool {
	for _, r := range w.BeforeCursor {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

// TextBlock is a fragment of page text with its distance from the focused
// surface.
type TextBlock struct {
	Text     string  `json:"text"`
	Distance float64 `json:"distance"`
}

// PageInfo carries ambient page metadata collected by the host.
type PageInfo struct {
	Title           string      `json:"title"`
	MetaDescription string      `json:"meta_description"`
	Headings        []string    `json:"headings"`
	Blocks          []TextBlock `json:"blocks"`
}
