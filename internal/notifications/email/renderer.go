package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	texttemplate "text/template"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

type templateKind string

const (
	kindNotification templateKind = "notification"
	kindDigest       templateKind = "digest"
	kindToken        templateKind = "token"
)

var templateKinds = []templateKind{kindNotification, kindDigest, kindToken}

// templateData is the value every template executes against.
type templateData struct {
	SiteName       string
	Subject        string
	Heading        string
	Intro          string
	Excerpt        string
	ActionURL      string
	ActionText     string
	Items          []digestItem
	PreferencesURL string
}

type digestItem struct {
	Title   string
	URL     string
	Excerpt string
}

// Renderer renders message bodies from the embedded templates. HTML bodies
// are base.html wrapping the kind's "content" block; text bodies are
// standalone.
type Renderer struct {
	html map[templateKind]*template.Template
	text map[templateKind]*texttemplate.Template
}

// NewRenderer parses every embedded template and fails on the first error.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{
		html: make(map[templateKind]*template.Template, len(templateKinds)),
		text: make(map[templateKind]*texttemplate.Template, len(templateKinds)),
	}

	baseHTML, err := templateFS.ReadFile("templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("renderer: failed to read base.html: %w", err)
	}

	for _, kind := range templateKinds {
		name := string(kind)

		htmlContent, err := templateFS.ReadFile("templates/" + name + ".html")
		if err != nil {
			return nil, fmt.Errorf("renderer: failed to read %s.html: %w", name, err)
		}
		htmlTmpl, err := template.New("base").Parse(string(baseHTML))
		if err != nil {
			return nil, fmt.Errorf("renderer: failed to parse base.html: %w", err)
		}
		if _, err := htmlTmpl.Parse(string(htmlContent)); err != nil {
			return nil, fmt.Errorf("renderer: failed to parse %s.html: %w", name, err)
		}
		r.html[kind] = htmlTmpl

		txtContent, err := templateFS.ReadFile("templates/" + name + ".txt")
		if err != nil {
			return nil, fmt.Errorf("renderer: failed to read %s.txt: %w", name, err)
		}
		txtTmpl, err := texttemplate.New(name).Parse(string(txtContent))
		if err != nil {
			return nil, fmt.Errorf("renderer: failed to parse %s.txt: %w", name, err)
		}
		r.text[kind] = txtTmpl
	}

	return r, nil
}

// render returns the HTML and plaintext bodies for kind.
func (r *Renderer) render(kind templateKind, data templateData) (string, string, error) {
	htmlTmpl, ok := r.html[kind]
	if !ok {
		return "", "", fmt.Errorf("renderer: no HTML template for %q", kind)
	}
	txtTmpl := r.text[kind]

	var htmlBuf, txtBuf bytes.Buffer
	if err := htmlTmpl.Execute(&htmlBuf, data); err != nil {
		return "", "", fmt.Errorf("renderer: failed to render HTML for %q: %w", kind, err)
	}
	if err := txtTmpl.Execute(&txtBuf, data); err != nil {
		return "", "", fmt.Errorf("renderer: failed to render text for %q: %w", kind, err)
	}
	return htmlBuf.String(), txtBuf.String(), nil
}
