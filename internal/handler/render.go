package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/noveleno/portal/internal/api"
	"github.com/noveleno/portal/internal/auth"
	"github.com/noveleno/portal/internal/nav"
	"github.com/noveleno/portal/internal/session"
)

// flashKey holds a one-shot message shown on the next rendered page.
const flashKey = "flash"

var manila = time.FixedZone("PHT", 8*60*60)

// Page is the data every full page template receives.
type Page struct {
	Title  string
	Flash  string
	Error  string
	Errors map[string]string
	Form   any
	Data   any

	// Filled in by the renderer.
	Nav  []nav.Node
	User *session.Session
	Path string
}

var funcs = template.FuncMap{
	"lower": strings.ToLower,
	"add":   func(a, b int) int { return a + b },
	"sub":   func(a, b int) int { return a - b },
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.In(manila).Format("Jan 2, 2006 3:04 PM")
	},
	"levelClass": func(l api.Level) string {
		switch l {
		case api.LevelPrepare:
			return "level-prepare"
		case api.LevelRising:
			return "level-rising"
		default:
			return "level-flood"
		}
	},
	"truncate": func(n int, s string) string {
		r := []rune(s)
		if len(r) <= n {
			return s
		}
		return string(r[:n]) + "..."
	},
	"barangays": func() []string { return Barangays },
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}

// Renderer executes the embedded templates. Each page is parsed together
// with the layout and the shared partials.
type Renderer struct {
	base   *template.Template
	pages  map[string]*template.Template
	policy nav.Policy
	logger *slog.Logger
}

func NewRenderer(fsys fs.FS, policy nav.Policy, logger *slog.Logger) (*Renderer, error) {
	if policy == nil {
		policy = nav.AllowAll
	}
	base, err := template.New("base").Funcs(funcs).ParseFS(fsys, "templates/layout.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(fsys, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout: %w", err)
		}
		if _, err := t.ParseFS(fsys, f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		pages[strings.TrimSuffix(path.Base(f), ".html")] = t
	}

	return &Renderer{base: base, pages: pages, policy: policy, logger: logger}, nil
}

// Page renders a full page with status 200.
func (rd *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, p Page) {
	rd.PageStatus(w, r, http.StatusOK, name, p)
}

// PageStatus renders a full page: the layout, the menu for the signed-in
// role and any pending flash message.
func (rd *Renderer) PageStatus(w http.ResponseWriter, r *http.Request, status int, name string, p Page) {
	t, ok := rd.pages[name]
	if !ok {
		rd.logger.Error("unknown page", "page", name)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	id, _ := auth.FromContext(r.Context())
	p.User = id.Session
	p.Path = r.URL.Path
	if id.Session != nil {
		role := id.Role()
		p.Nav = nav.MarkActive(nav.Visible(nav.Build(role), role, rd.policy), r.URL.Path)
	}
	if p.Flash == "" && id.Store != nil {
		msg, err := id.Store.Value(flashKey)
		if err != nil {
			rd.logger.Warn("read flash", "browser_id", id.BrowserID, "error", err)
		} else if msg != "" {
			p.Flash = msg
			if err := id.Store.SetValue(flashKey, ""); err != nil {
				rd.logger.Warn("clear flash", "browser_id", id.BrowserID, "error", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		rd.logger.Error("render page", "page", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Partial renders one shared partial, for HTMX swaps.
func (rd *Renderer) Partial(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := rd.base.ExecuteTemplate(&buf, name, data); err != nil {
		rd.logger.Error("render partial", "partial", name, "error", err)
		fmt.Fprint(w, `<div class="alert alert-error">Template error</div>`)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// Fallback is shown while a gate cannot decide yet. It reloads itself.
func (rd *Renderer) Fallback() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		rd.Page(w, r, "fallback", Page{Title: "Loading"})
	})
}

// Flash queues msg for the next page this browser renders.
func (rd *Renderer) Flash(r *http.Request, msg string) {
	id, ok := auth.FromContext(r.Context())
	if !ok || id.Store == nil {
		return
	}
	if err := id.Store.SetValue(flashKey, msg); err != nil {
		rd.logger.Warn("store flash", "browser_id", id.BrowserID, "error", err)
	}
}

// apiContext carries the signed-in user's API token.
func apiContext(r *http.Request) context.Context {
	return api.WithToken(r.Context(), auth.Token(r.Context()))
}

func emailOf(r *http.Request) string {
	id, _ := auth.FromContext(r.Context())
	return id.Email()
}
