package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Conceptual-Machines/tutor-api/pkg/embedded"
)

var templateFuncs = template.FuncMap{
	"inc":  func(i int) int { return i + 1 },
	"join": strings.Join,
}

// Loader parses the embedded prompt templates once.
type Loader struct {
	templates *template.Template
}

func NewPromptLoader() (*Loader, error) {
	tmpl, err := template.New("prompts").Funcs(templateFuncs).ParseFS(embedded.Prompts, "data/prompts/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates: %w", err)
	}
	return &Loader{templates: tmpl}, nil
}

// Render executes a named template and trims surrounding whitespace.
func (l *Loader) Render(name string, data any) (string, error) {
	var b strings.Builder
	if err := l.templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %q: %w", name, err)
	}
	return strings.TrimSpace(b.String()), nil
}

// Has reports whether a template with the given name exists.
func (l *Loader) Has(name string) bool {
	return l.templates.Lookup(name) != nil
}
