package prompt

import "fmt"

// MindmapSystemPrompt is the system instruction for knowledge-map generation.
func MindmapSystemPrompt(subject string) string {
	return fmt.Sprintf("你是一名%s课程的知识图谱构建专家，擅长用 Mermaid 思维导图梳理知识结构。", subject)
}

// MindmapPrompt asks for a Mermaid mindmap of topic followed by a short summary.
func (l *Loader) MindmapPrompt(topic, subject string, context []string) (string, error) {
	return l.Render("mindmap", map[string]any{
		"Topic":   topic,
		"Subject": subject,
		"Context": context,
	})
}
