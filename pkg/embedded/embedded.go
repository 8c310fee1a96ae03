package embedded

import (
	"embed"
)

// DefaultSubjectProfileYAML is the built-in subject profile.
//
//go:embed data/profiles/marxism_basic_principles.yaml
var DefaultSubjectProfileYAML []byte

// Prompts holds the prompt templates under data/prompts.
//
//go:embed data/prompts/*.tmpl
var Prompts embed.FS
