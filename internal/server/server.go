package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/noveleno/portal/internal/api"
	"github.com/noveleno/portal/internal/handler"
	"github.com/noveleno/portal/internal/middleware"
	"github.com/noveleno/portal/internal/nav"
	"github.com/noveleno/portal/internal/session"
	"github.com/noveleno/portal/internal/store"
	"github.com/noveleno/portal/internal/weather"
	ws "github.com/noveleno/portal/internal/websocket"
	"github.com/noveleno/portal/web"
)

// Config carries what the server needs beyond its collaborators.
type Config struct {
	SessionTTL    time.Duration
	SecureCookies bool
}

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	browsers     *middleware.Browsers
	browserStore *store.BrowserStore
	rateLimiter  *middleware.RateLimiter
	render       *handler.Renderer
	static       fs.FS

	authH      *handler.AuthHandler
	dashboardH *handler.DashboardHandler
	alertH     *handler.AlertHandler
	userH      *handler.UserHandler
	contactH   *handler.ContactHandler
	mapH       *handler.MapHandler
	newsH      *handler.NewsHandler
	chatH      *handler.ChatHandler
	checklistH *handler.ChecklistHandler

	logger *slog.Logger
}

func New(db *sql.DB, client *api.Client, weatherSvc *weather.Service, policy nav.Policy, cfg Config, logger *slog.Logger) (*Server, error) {
	return newServer(db, client, weatherSvc, policy, cfg, web.FS, logger)
}

func newServer(db *sql.DB, client *api.Client, weatherSvc *weather.Service, policy nav.Policy, cfg Config, assets fs.FS, logger *slog.Logger) (*Server, error) {
	render, err := handler.NewRenderer(assets, policy, logger.With("component", "render"))
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	hub := ws.NewHub(logger.With("component", "websocket"))
	browserStore := store.NewBrowserStore(db)
	browsers := middleware.NewBrowsers(browserStore, middleware.BrowserConfig{
		TTL:    cfg.SessionTTL,
		Secure: cfg.SecureCookies,
	}, logger.With("component", "browser"))

	return &Server{
		db:           db,
		hub:          hub,
		browsers:     browsers,
		browserStore: browserStore,
		rateLimiter:  middleware.NewRateLimiter(),
		render:       render,
		static:       static,

		authH:      handler.NewAuthHandler(client, browsers, render, logger.With("component", "auth")),
		dashboardH: handler.NewDashboardHandler(client, weatherSvc, render, logger.With("component", "dashboard")),
		alertH:     handler.NewAlertHandler(client, hub, render, logger.With("component", "alert")),
		userH:      handler.NewUserHandler(client, hub, render, logger.With("component", "users")),
		contactH:   handler.NewContactHandler(client, render, logger.With("component", "contact")),
		mapH:       handler.NewMapHandler(client, hub, render, logger.With("component", "map")),
		newsH:      handler.NewNewsHandler(client, hub, render, logger.With("component", "news")),
		chatH:      handler.NewChatHandler(client, hub, render, logger.With("component", "chat")),
		checklistH: handler.NewChecklistHandler(client, render, logger.With("component", "checklist")),

		logger: logger,
	}, nil
}

// BrowserStore returns the browser store for cleanup tasks.
func (s *Server) BrowserStore() *store.BrowserStore {
	return s.browserStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

var (
	staff      = []session.Role{session.RoleAdmin, session.RoleSuperadmin}
	superadmin = []session.Role{session.RoleSuperadmin}
)

// Router registers every route on one mux. Gated routes wrap each handler
// individually so the gates see the matched pattern.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(s.static)))
	mux.HandleFunc("GET /health", s.healthHandler)

	// Public routes (bucket loaded, no gates)
	s.public(mux, "GET /login", s.authH.LoginPage)
	s.public(mux, "POST /login", s.rateLimited(s.authH.Login))
	s.public(mux, "GET /register", s.authH.RegisterPage)
	s.public(mux, "POST /register", s.rateLimited(s.authH.Register))
	s.public(mux, "GET /otp", s.authH.OTPPage)
	s.public(mux, "POST /otp", s.rateLimited(s.authH.VerifyOTP))
	s.public(mux, "POST /otp/resend", s.rateLimited(s.authH.ResendOTP))
	s.public(mux, "POST /logout", s.authH.Logout)

	s.protect(mux, "GET /{$}", s.authH.Root)
	s.protect(mux, "GET /home", s.dashboardH.Home)
	s.protect(mux, "GET /user-menu", s.dashboardH.UserMenu)
	s.protect(mux, "GET /user-profile", s.dashboardH.Profile)
	s.protect(mux, "GET /partials/notifications", s.alertH.Bell)
	s.protect(mux, "GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	// Messages
	s.protect(mux, "GET /chat", s.chatH.Inbox)
	s.protect(mux, "GET /partials/chat/messages", s.chatH.Thread)
	s.protect(mux, "POST /chat/messages", s.chatH.Send)

	// News and reports
	s.protect(mux, "GET /news", s.newsH.Form)
	s.protect(mux, "POST /news", s.newsH.Post)
	s.protect(mux, "GET /share-report", s.newsH.Form)
	s.protect(mux, "POST /share-report", s.newsH.Post)
	s.protect(mux, "GET /news/news-feed", s.newsH.Feed)
	s.protect(mux, "GET /news/approval", s.newsH.Approval, staff...)
	s.protect(mux, "POST /news/approval/{id}/approve", s.newsH.Approve, staff...)

	// Resident pages
	s.protect(mux, "GET /emergency-hotlines", s.contactH.Hotlines)
	s.protect(mux, "GET /location", s.mapH.Location)
	s.protect(mux, "GET /calamity-emergency", s.checklistH.Calamities)
	s.protect(mux, "GET /checklist", s.checklistH.Show)
	s.protect(mux, "POST /checklist/toggle", s.checklistH.Toggle)

	// Staff pages
	s.protect(mux, "GET /menu", s.dashboardH.Menu, staff...)
	s.protect(mux, "GET /alert", s.alertH.Page, staff...)
	s.protect(mux, "POST /alert", s.alertH.Post, staff...)
	s.protect(mux, "GET /users", s.userH.Pending, staff...)
	s.protect(mux, "POST /users/{id}/accept", s.userH.Accept, staff...)
	s.protect(mux, "GET /manage-contact", s.contactH.Manage, staff...)
	s.protect(mux, "POST /manage-contact", s.contactH.Create, staff...)
	s.protect(mux, "POST /manage-contact/{id}/delete", s.contactH.Delete, staff...)
	s.protect(mux, "GET /manage-map", s.mapH.ManageMap, staff...)
	s.protect(mux, "POST /manage-map", s.mapH.CreatePoint, staff...)
	s.protect(mux, "POST /manage-map/{id}/delete", s.mapH.DeletePoint, staff...)
	s.protect(mux, "GET /manage-evacuation", s.mapH.ManageEvacuation, staff...)
	s.protect(mux, "POST /manage-evacuation", s.mapH.CreateCenter, staff...)
	s.protect(mux, "POST /manage-evacuation/{id}/delete", s.mapH.DeleteCenter, staff...)

	// Superadmin
	s.protect(mux, "GET /admin-management", s.userH.Admins, superadmin...)
	s.protect(mux, "POST /admin-management", s.userH.CreateAdmin, superadmin...)
	s.protect(mux, "POST /admin-management/{id}/delete", s.userH.DeleteAdmin, superadmin...)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) public(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.browsers.Load(h))
}

// protect registers h behind the auth gate and the OTP gate, plus a role
// check when roles are given.
func (s *Server) protect(mux *http.ServeMux, pattern string, h http.HandlerFunc, roles ...session.Role) {
	var next http.Handler = h
	if len(roles) > 0 {
		next = middleware.RequireRole(roles...)(next)
	}
	next = middleware.RequireOTP(next)
	next = middleware.RequireAuth(s.render.Fallback())(next)
	mux.Handle(pattern, s.browsers.Load(next))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.KeyByIP, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
