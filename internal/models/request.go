package models

// QuestionType is a normalized question category label.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple-choice"
	TrueFalse      QuestionType = "true-false"
	ShortAnswer    QuestionType = "short-answer"

	// PrimaryMixed is the sentinel primary type used when more than one type is requested.
	PrimaryMixed QuestionType = "mixed"
)

// QuestionTypes lists the type labels in their canonical display order.
var QuestionTypes = []QuestionType{MultipleChoice, TrueFalse, ShortAnswer}

// Difficulty is one of three difficulty tiers.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

const (
	DefaultQuantity   = 5
	DefaultDifficulty = Medium
)

// InterpretedRequest is the structured form of a free-text question request.
type InterpretedRequest struct {
	RawText     string               `json:"raw_text"`
	Topics      []string             `json:"topics"`
	Quantity    int                  `json:"quantity"`
	Difficulty  Difficulty           `json:"difficulty"`
	TypeCounts  map[QuestionType]int `json:"type_counts"`
	PrimaryType QuestionType         `json:"primary_type"`
}

// OrderedTypes returns the requested type labels in canonical order.
func (r InterpretedRequest) OrderedTypes() []QuestionType {
	types := make([]QuestionType, 0, len(r.TypeCounts))
	for _, t := range QuestionTypes {
		if r.TypeCounts[t] > 0 {
			types = append(types, t)
		}
	}
	return types
}

// IsMixed reports whether more than one question type was requested.
func (r InterpretedRequest) IsMixed() bool {
	return r.PrimaryType == PrimaryMixed
}
