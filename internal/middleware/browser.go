package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/noveleno/portal/internal/auth"
	"github.com/noveleno/portal/internal/model"
	"github.com/noveleno/portal/internal/session"
	"github.com/noveleno/portal/internal/store"
)

// BrowserCookieName holds the token of the browser's storage bucket.
const BrowserCookieName = "noveleno_browser"

type BrowserConfig struct {
	TTL    time.Duration
	Secure bool
}

// Browsers gives every visitor a durable storage bucket, identified by a
// cookie, and loads the session kept in it for each request.
type Browsers struct {
	store  *store.BrowserStore
	cfg    BrowserConfig
	logger *slog.Logger
}

func NewBrowsers(browserStore *store.BrowserStore, cfg BrowserConfig, logger *slog.Logger) *Browsers {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * 24 * time.Hour
	}
	return &Browsers{store: browserStore, cfg: cfg, logger: logger}
}

// Load resolves the browser cookie, creating a bucket for new visitors, and
// puts the resulting auth.Identity in the request context.
func (b *Browsers) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var browser *model.Browser
		var token string
		if c, err := r.Cookie(BrowserCookieName); err == nil && c.Value != "" {
			browser, err = b.store.Lookup(c.Value)
			if err != nil {
				b.logger.Error("lookup browser", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			token = c.Value
		}

		if browser == nil {
			created, err := b.store.Create(b.cfg.TTL)
			if err != nil {
				b.logger.Error("create browser", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			browser, token = created, created.Token
			b.setCookie(w, token)
		}

		st := session.NewStore(b.store.Bucket(browser.ID))
		id, err := loadIdentity(browser.ID, st)
		if err != nil {
			b.logger.Error("load session", "browser_id", browser.ID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if time.Until(browser.ExpiresAt) < b.cfg.TTL/2 {
			if err := b.store.Extend(browser.ID, b.Expiry(id.Token)); err != nil {
				b.logger.Warn("renew browser", "browser_id", browser.ID, "error", err)
			} else {
				b.setCookie(w, token)
			}
		}

		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

func loadIdentity(browserID int64, st *session.Store) (auth.Identity, error) {
	sess, err := st.Get()
	if err != nil {
		return auth.Identity{}, err
	}
	tok, err := st.Token()
	if err != nil {
		return auth.Identity{}, err
	}
	marker, err := st.OTPMarker()
	if err != nil {
		return auth.Identity{}, err
	}
	return auth.Identity{
		BrowserID: browserID,
		Session:   sess,
		Token:     tok,
		OTPMarker: marker,
		Store:     st,
	}, nil
}

// Expiry is when a bucket renewed now should lapse: one TTL from now, or
// earlier if the API token it holds expires first.
func (b *Browsers) Expiry(apiToken string) time.Time {
	next := time.Now().Add(b.cfg.TTL)
	if exp, ok := session.TokenExpiry(apiToken); ok && exp.After(time.Now()) && exp.Before(next) {
		return exp
	}
	return next
}

// BindToken bounds the bucket's lifetime by the expiry of a freshly stored
// API token.
func (b *Browsers) BindToken(browserID int64, apiToken string) error {
	return b.store.Extend(browserID, b.Expiry(apiToken))
}

// Forget deletes the browser's bucket and expires its cookie.
func (b *Browsers) Forget(w http.ResponseWriter, browserID int64) error {
	http.SetCookie(w, &http.Cookie{
		Name:     BrowserCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   b.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	if browserID == 0 {
		return nil
	}
	return b.store.Delete(browserID)
}

func (b *Browsers) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     BrowserCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(b.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   b.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
