// Package page renders the viewer's HTML page from the embedded assets.
package page

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/mapaction/hazardview/assets"
	"github.com/mapaction/hazardview/internal/viewer"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

// Data is everything the page template shows.
type Data struct {
	Prompt      string
	Countries   []viewer.SelectOption
	AdminLevels []string
	Hazards     []string
	Formats     []string
	View        viewer.View
	// Standalone hides the form, for exported snapshots.
	Standalone bool
}

type templateData struct {
	Data
	CSS template.CSS
	JS  template.JS
}

// Renderer holds the parsed template and the minified static parts of the page.
type Renderer struct {
	m       *minify.M
	tmpl    *template.Template
	css     template.CSS
	js      template.JS
	favicon []byte
}

// New minifies the embedded style, script and icon and parses the page template.
func New() (*Renderer, error) {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/javascript", js.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)

	cssMin, err := m.String("text/css", assets.Style)
	if err != nil {
		return nil, fmt.Errorf("minify CSS: %w", err)
	}

	jsMin, err := m.String("text/javascript", assets.Script)
	if err != nil {
		return nil, fmt.Errorf("minify JS: %w", err)
	}

	svgMin, err := m.Bytes("image/svg+xml", assets.Favicon)
	if err != nil {
		return nil, fmt.Errorf("minify SVG: %w", err)
	}

	tmpl, err := template.New("index").Parse(assets.IndexTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	return &Renderer{
		m:       m,
		tmpl:    tmpl,
		css:     template.CSS(cssMin),
		js:      template.JS(jsMin),
		favicon: svgMin,
	}, nil
}

// Favicon returns the minified SVG icon.
func (r *Renderer) Favicon() []byte {
	return r.favicon
}

// Render writes the minified page.
func (r *Renderer) Render(w io.Writer, d Data) error {
	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, templateData{
		Data: d,
		CSS:  r.css,
		JS:   r.js,
	})
	if err != nil {
		return fmt.Errorf("execute template: %w", err)
	}

	if err := r.m.Minify("text/html", w, &buf); err != nil {
		return fmt.Errorf("minify HTML: %w", err)
	}
	return nil
}
