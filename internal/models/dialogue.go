package models

// Role identifies the author of a dialogue turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a dialogue history.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// DialogueStatus is the outcome tag carried on a dialogue state.
type DialogueStatus string

const (
	StatusContinue DialogueStatus = "continue"
	StatusError    DialogueStatus = "error"
)

// DialogueState is the full state of one Socratic dialogue.
type DialogueState struct {
	Topic              string         `json:"topic"`
	Persona            string         `json:"persona"`
	TurnCount          int            `json:"turn_count"`
	History            []Turn         `json:"history"`
	Status             DialogueStatus `json:"status"`
	LastImageReference string         `json:"last_image_reference,omitempty"`
}

// Clone returns a deep copy so callers can extend history without aliasing.
func (s *DialogueState) Clone() *DialogueState {
	if s == nil {
		return nil
	}
	out := *s
	out.History = make([]Turn, len(s.History))
	copy(out.History, s.History)
	return &out
}
