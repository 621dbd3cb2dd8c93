package templates

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed *.tmpl
var files embed.FS

// Renderer renders the outbound message templates with strict missing-key semantics.
type Renderer struct {
	set *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	set, err := template.New("messages").Option("missingkey=error").ParseFS(files, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("templates: parse: %w", err)
	}
	return &Renderer{set: set}, nil
}

// Render executes the named template.
func (r *Renderer) Render(name string, data any) (string, error) {
	if r == nil || r.set == nil {
		return "", fmt.Errorf("templates: renderer not initialized")
	}
	var buf bytes.Buffer
	if err := r.set.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("templates: execute %s: %w", name, err)
	}
	return buf.String(), nil
}
