package models

// MaxSnippets caps the number of snippets in a RetrievedContext.
const MaxSnippets = 5

// Snippet is one piece of reference text returned by a similarity search.
type Snippet struct {
	Text   string  `json:"text"`
	Source string  `json:"source,omitempty"`
	Score  float64 `json:"score,omitempty"`
}

// RetrievedContext is the deduplicated, capped list of snippets for a request.
type RetrievedContext []Snippet

// Texts returns the snippet bodies in order.
func (c RetrievedContext) Texts() []string {
	texts := make([]string, len(c))
	for i, s := range c {
		texts[i] = s.Text
	}
	return texts
}

// GenerationRecord is the last generated output for one caller.
type GenerationRecord struct {
	FullText      string `json:"full_text"`
	DisclosedText string `json:"disclosed_text"`
}
