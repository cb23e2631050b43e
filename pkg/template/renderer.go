package template

import (
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	texttemplate "text/template"
)

// Template names resolvable through Renderer.Render.
const (
	HAProxyConfig    = "haproxy.cfg.tmpl"
	HAProxyEnvFile   = "haproxy.env.tmpl"
	KeepalivedConfig = "keepalived.conf.tmpl"
)

//go:embed templates/*.tmpl
var builtin embed.FS

// Renderer turns structured configuration records into the text
// artifacts consumed by the managed processes. Rendering is
// deterministic for identical context.
type Renderer struct {
	templates *texttemplate.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	t, err := texttemplate.ParseFS(builtin, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded templates: %w", err)
	}
	return &Renderer{templates: t}, nil
}

// NewRendererFromDir parses *.tmpl files from dir instead of the
// embedded set, letting operators override the shipped templates.
func NewRendererFromDir(dir string) (*Renderer, error) {
	t, err := texttemplate.ParseGlob(filepath.Join(dir, "*.tmpl"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates from %s: %w", dir, err)
	}
	return &Renderer{templates: t}, nil
}

// Render executes the named template with the given context.
func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
