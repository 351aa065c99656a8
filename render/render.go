package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"tootfeed/models"
)

//go:embed templates/*.html.tmpl
var templates embed.FS

// Renderer turns ordered entries into an HTML fragment.
// Every remote supplied field is escaped for its context, urls that are not
// http(s) or relative are replaced, so remote content cannot inject markup.
type Renderer struct {
	tmpl *template.Template
}

func New() (*Renderer, error) {
	tmpl, err := template.ParseFS(templates, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes one block per entry in the given order. No entries yields
// an empty string.
func (r *Renderer) Render(entries []models.Entry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "feed", entries); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return buf.String(), nil
}
