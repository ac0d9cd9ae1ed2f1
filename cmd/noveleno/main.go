package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/noveleno/portal/internal/api"
	"github.com/noveleno/portal/internal/config"
	"github.com/noveleno/portal/internal/database"
	"github.com/noveleno/portal/internal/logging"
	"github.com/noveleno/portal/internal/nav"
	"github.com/noveleno/portal/internal/server"
	"github.com/noveleno/portal/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var policy nav.Policy = nav.AllowAll
	if cfg.NavPolicyPath != "" {
		p, err := nav.LoadPolicy(cfg.NavPolicyPath)
		if err != nil {
			slog.Error("failed to load nav policy", "path", cfg.NavPolicyPath, "error", err)
			os.Exit(1)
		}
		policy = p
		slog.Info("nav policy enforced", "path", cfg.NavPolicyPath)
	}

	client := api.NewClient(cfg.APIURL, api.WithTimeout(cfg.APITimeout))
	weatherSvc := weather.NewService(cfg.Weather)

	srv, err := server.New(db, client, weatherSvc, policy, server.Config{
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: cfg.SecureCookies,
	}, logger)
	if err != nil {
		slog.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.BrowserStore().DeleteExpired(); err != nil {
					slog.Error("cleanup expired browsers", "error", err)
				} else if n > 0 {
					slog.Info("cleaned up expired browsers", "count", n)
				}
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("noveleno starting", "addr", ":"+cfg.Port, "api", cfg.APIURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
