package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
)

// Renderer manages template parsing and rendering with isolated template sets.
// It supports two layouts:
//   - "auth" layout for the sign-in page
//   - "app" layout for everything behind a session
//
// Templates are organized as:
//   - layouts/auth.html, layouts/app.html - base layouts
//   - components/*.html - reusable components (shared across layouts)
//   - pages/auth/*.html - auth pages (use auth layout)
//   - pages/*.html and pages/<dir>/*.html - app pages (use app layout)
type Renderer struct {
	templates map[string]*template.Template
	fsys      fs.FS
	minifier  *minify.M
	logger    *slog.Logger
	isDev     bool
	mu        sync.RWMutex
}

// RendererConfig holds configuration for the renderer.
type RendererConfig struct {
	// FS holds the template tree. Production passes the embedded FS;
	// development passes os.DirFS so edits show up on reload.
	FS     fs.FS
	Logger *slog.Logger
	IsDev  bool
	Minify bool
}

// NewRenderer creates a new template renderer.
func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	r := &Renderer{
		fsys:   cfg.FS,
		logger: cfg.Logger,
		isDev:  cfg.IsDev,
	}
	if cfg.Minify {
		r.minifier = newMinifier()
	}

	templates, err := r.loadTemplates()
	if err != nil {
		return nil, err
	}
	r.templates = templates
	return r, nil
}

func newMinifier() *minify.M {
	m := minify.New()
	m.Add("text/html", &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	m.AddFunc("text/css", css.Minify)
	return m
}

func (r *Renderer) loadTemplates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template)

	componentFiles, err := r.glob("components/*.html")
	if err != nil {
		return nil, err
	}

	authBase, err := r.parseLayout("auth", componentFiles)
	if err != nil {
		return nil, err
	}
	appBase, err := r.parseLayout("app", componentFiles)
	if err != nil {
		return nil, err
	}

	authPages, err := r.glob("pages/auth/*.html")
	if err != nil {
		return nil, err
	}
	for _, page := range authPages {
		tmpl, err := r.parsePage(authBase, page)
		if err != nil {
			return nil, err
		}
		templates["auth/"+baseName(page)] = tmpl
	}

	// App pages: pages/*.html are stored by name ("dashboard"), nested
	// pages by dir and name ("banks/index").
	err = fs.WalkDir(r.fsys, "pages", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".html") {
			return nil
		}
		rel := strings.TrimSuffix(strings.TrimPrefix(p, "pages/"), ".html")
		if strings.HasPrefix(rel, "auth/") {
			return nil
		}
		tmpl, err := r.parsePage(appBase, p)
		if err != nil {
			return err
		}
		templates[rel] = tmpl
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk pages: %w", err)
	}

	r.logger.Debug("templates loaded", "count", len(templates))
	return templates, nil
}

func (r *Renderer) glob(pattern string) ([]string, error) {
	files, err := fs.Glob(r.fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob %s: %w", pattern, err)
	}
	return files, nil
}

func (r *Renderer) parseLayout(name string, componentFiles []string) (*template.Template, error) {
	files := append([]string{"layouts/" + name + ".html"}, componentFiles...)
	tmpl, err := template.New(name).Funcs(TemplateFuncs()).ParseFS(r.fsys, files...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s layout: %w", name, err)
	}
	return tmpl, nil
}

func (r *Renderer) parsePage(base *template.Template, page string) (*template.Template, error) {
	tmpl, err := base.Clone()
	if err != nil {
		return nil, fmt.Errorf("failed to clone layout for %s: %w", page, err)
	}
	tmpl, err = tmpl.ParseFS(r.fsys, page)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %s: %w", page, err)
	}
	return tmpl, nil
}

func baseName(p string) string {
	return strings.TrimSuffix(path.Base(p), path.Ext(p))
}

// Reload reloads all templates. Useful for development.
func (r *Renderer) Reload() error {
	templates, err := r.loadTemplates()
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.templates = templates
	r.mu.Unlock()
	return nil
}

// Render renders a template to an io.Writer.
func (r *Renderer) Render(w io.Writer, name string, data interface{}) error {
	if r.isDev {
		if err := r.Reload(); err != nil {
			return fmt.Errorf("template reload failed: %w", err)
		}
	}

	r.mu.RLock()
	tmpl, ok := r.templates[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}

	if r.minifier == nil {
		return tmpl.ExecuteTemplate(w, layoutFor(name), data)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutFor(name), data); err != nil {
		return err
	}
	return r.minifier.Minify("text/html", w, &buf)
}

// RenderHTTP renders a template directly to an http.ResponseWriter.
func (r *Renderer) RenderHTTP(w http.ResponseWriter, name string, data interface{}) {
	r.RenderHTTPStatus(w, http.StatusOK, name, data)
}

// RenderHTTPStatus renders a template with the given status code. The page is
// rendered to a buffer first so a template error still yields a clean 500.
func (r *Renderer) RenderHTTPStatus(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data); err != nil {
		r.logger.Error("template execution failed", "name", name, "error", err)
		http.Error(w, "Template execution failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// layoutFor determines which base template to execute.
func layoutFor(name string) string {
	if strings.HasPrefix(name, "auth/") {
		return "auth"
	}
	return "app"
}

// ListTemplates returns a list of all loaded template names.
// Useful for debugging.
func (r *Renderer) ListTemplates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	return names
}
