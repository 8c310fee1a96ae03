package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Conceptual-Machines/tutor-api/pkg/embedded"
)

// SubjectProfile parametrizes the assistant for one course.
type SubjectProfile struct {
	SubjectLabel      string   `yaml:"subject_label"`
	DefaultTopic      string   `yaml:"default_topic"`       // question generation fallback topic
	DefaultPersona    string   `yaml:"default_persona"`     // dialogue persona when intent parsing fails
	DialogueTopic     string   `yaml:"dialogue_topic"`      // dialogue topic when intent parsing fails
	KnowledgeSourceID string   `yaml:"knowledge_source_id"` // knowledge base partition
	QuestionPersona   string   `yaml:"question_persona"`    // system preamble for question generation
	CommonTopics      []string `yaml:"common_topics"`
}

// LoadSubjectProfile reads a profile from path, or the embedded default when path is empty.
func LoadSubjectProfile(path string) (*SubjectProfile, error) {
	data := embedded.DefaultSubjectProfileYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read subject profile: %w", err)
		}
		data = b
	}
	return ParseSubjectProfile(data)
}

// ParseSubjectProfile decodes and validates a YAML profile.
func ParseSubjectProfile(data []byte) (*SubjectProfile, error) {
	var p SubjectProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse subject profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.DialogueTopic == "" {
		p.DialogueTopic = p.DefaultTopic
	}
	return &p, nil
}

// Validate checks that the required fields are present.
func (p *SubjectProfile) Validate() error {
	var missing []string
	if strings.TrimSpace(p.SubjectLabel) == "" {
		missing = append(missing, "subject_label")
	}
	if strings.TrimSpace(p.DefaultTopic) == "" {
		missing = append(missing, "default_topic")
	}
	if strings.TrimSpace(p.DefaultPersona) == "" {
		missing = append(missing, "default_persona")
	}
	if strings.TrimSpace(p.KnowledgeSourceID) == "" {
		missing = append(missing, "knowledge_source_id")
	}
	if len(missing) > 0 {
		return errors.New("subject profile missing fields: " + strings.Join(missing, ", "))
	}
	return nil
}
