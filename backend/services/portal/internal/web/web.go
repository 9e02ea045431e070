// Package web holds the portal's HTML templates and static assets.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
)

// Page names accepted by Renderer.Render.
const (
	PageLogin          = "login"
	PageRegister       = "register"
	PageHome           = "home"
	PageAdmin          = "admin"
	PageAddService     = "add_service"
	PagePaymentSuccess = "payment_success"
)

//go:embed templates/*.html static/*
var files embed.FS

// Renderer executes page templates wrapped in the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page against the layout.
func NewRenderer() (*Renderer, error) {
	pages := []string{PageLogin, PageRegister, PageHome, PageAdmin, PageAddService, PagePaymentSuccess}
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tmpl, err := template.ParseFS(files, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("web: parse %s: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

// Render writes page into w. Output is buffered so a template error never leaves a
// half-written page behind.
func (r *Renderer) Render(w io.Writer, page string, data interface{}) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("web: unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("web: render %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// StaticHandler serves embedded assets; mount it under /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
