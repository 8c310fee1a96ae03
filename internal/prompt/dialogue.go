package prompt

// IntentSystemPrompt is the system instruction for intent classification.
const IntentSystemPrompt = "你是一个意图识别专家。"

// IntentPrompt asks the model for {"topic", "character"} as JSON.
func (l *Loader) IntentPrompt(text, defaultTopic, defaultPersona string) (string, error) {
	return l.Render("intent", map[string]string{
		"Text":           text,
		"DefaultTopic":   defaultTopic,
		"DefaultPersona": defaultPersona,
	})
}

// DialogueSystemPrompt builds the Socratic persona preamble with the retrieved context.
func (l *Loader) DialogueSystemPrompt(persona, topic, subject string, context []string) (string, error) {
	return l.Render("dialogue-system", map[string]any{
		"Persona": persona,
		"Topic":   topic,
		"Subject": subject,
		"Context": context,
	})
}
