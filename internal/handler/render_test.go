package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/noveleno/portal/internal/auth"
	"github.com/noveleno/portal/internal/nav"
	"github.com/noveleno/portal/internal/session"
	"github.com/noveleno/portal/web"
)

// brokenKV fails every read and write.
type brokenKV struct{}

var errDiskFull = errors.New("disk full")

func (brokenKV) Get(string) (string, bool, error) { return "", false, errDiskFull }
func (brokenKV) Set(string, string) error         { return errDiskFull }
func (brokenKV) Delete(...string) error           { return errDiskFull }

func newTestRenderer(t *testing.T) (*Renderer, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	rd, err := NewRenderer(web.FS, nav.AllowAll, slog.New(slog.NewTextHandler(&logs, nil)))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return rd, &logs
}

func brokenRequest(method string) *http.Request {
	req := httptest.NewRequest(method, "/manage-contact", nil)
	id := auth.Identity{BrowserID: 7, Store: session.NewStore(brokenKV{})}
	return req.WithContext(auth.WithIdentity(req.Context(), id))
}

func TestFlashLogsStoreFailure(t *testing.T) {
	rd, logs := newTestRenderer(t)
	rd.Flash(brokenRequest(http.MethodPost), "Contact added.")

	out := logs.String()
	if !strings.Contains(out, "store flash") || !strings.Contains(out, "disk full") || !strings.Contains(out, "browser_id=7") {
		t.Errorf("log = %q, want a store flash warning", out)
	}
}

func TestPageRendersWhenFlashUnreadable(t *testing.T) {
	rd, logs := newTestRenderer(t)
	rec := httptest.NewRecorder()
	rd.Page(rec, brokenRequest(http.MethodGet), "fallback", Page{Title: "Loading"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if out := logs.String(); !strings.Contains(out, "read flash") {
		t.Errorf("log = %q, want a read flash warning", out)
	}
}
