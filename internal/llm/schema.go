package llm

// GetIntentOutputSchema returns the JSON schema for dialogue intent classification
func GetIntentOutputSchema() *OutputSchema {
	return &OutputSchema{
		Name:        "dialogue_intent",
		Description: "Topic and historical character the student wants to discuss",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"topic":     map[string]any{"type": "string"},
				"character": map[string]any{"type": "string"},
			},
			"required":             []string{"topic", "character"},
			"additionalProperties": false,
		},
	}
}
