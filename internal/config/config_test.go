package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/noveleno/portal/internal/api"
	"github.com/noveleno/portal/internal/weather"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"NOVELENO_PORT", "NOVELENO_DB_PATH", "NOVELENO_API_URL", "NOVELENO_API_TIMEOUT",
		"NOVELENO_LOG_LEVEL", "NOVELENO_LOG_FORMAT", "NOVELENO_SESSION_TTL",
		"NOVELENO_SECURE_COOKIES", "NOVELENO_NAV_POLICY", "NOVELENO_WEATHER",
		"NOVELENO_WEATHER_LAT", "NOVELENO_WEATHER_LON",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.DBPath != "noveleno.db" {
		t.Errorf("port/db = %q/%q", cfg.Port, cfg.DBPath)
	}
	if cfg.APIURL != api.DefaultBaseURL {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.SessionTTL != 30*24*time.Hour || cfg.APITimeout != 15*time.Second {
		t.Errorf("ttl/timeout = %v/%v", cfg.SessionTTL, cfg.APITimeout)
	}
	if cfg.Weather.Latitude != weather.DefaultLatitude {
		t.Errorf("weather = %+v", cfg.Weather)
	}
	if cfg.SecureCookies {
		t.Error("secure cookies should default off")
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".env")
	content := "NOVELENO_PORT=9090\nNOVELENO_SESSION_TTL=2h\nNOVELENO_SECURE_COOKIES=true\nNOVELENO_WEATHER=off\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("NOVELENO_PORT")
		os.Unsetenv("NOVELENO_SESSION_TTL")
		os.Unsetenv("NOVELENO_SECURE_COOKIES")
		os.Unsetenv("NOVELENO_WEATHER")
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" || cfg.SessionTTL != 2*time.Hour || !cfg.SecureCookies {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Weather.Latitude != "" {
		t.Errorf("weather should be disabled, got %+v", cfg.Weather)
	}
}

func TestEnvironmentWinsOverFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("NOVELENO_PORT", "7000")

	path := filepath.Join(t.TempDir(), ".env")
	os.WriteFile(path, []byte("NOVELENO_PORT=9090\n"), 0o600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "7000" {
		t.Errorf("Port = %q, want 7000", cfg.Port)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"NOVELENO_SESSION_TTL":    "forever",
		"NOVELENO_API_TIMEOUT":    "-1s",
		"NOVELENO_SECURE_COOKIES": "maybe",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			if _, err := Load(filepath.Join(t.TempDir(), "none")); err == nil {
				t.Errorf("expected error for %s=%q", key, value)
			}
		})
	}
}
