// Package config reads NOVELENO_* environment variables. Values from a .env
// file in the working directory are loaded first and never override the
// real environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/noveleno/portal/internal/api"
	"github.com/noveleno/portal/internal/weather"
)

type Config struct {
	Port          string
	DBPath        string
	APIURL        string
	APITimeout    time.Duration
	LogLevel      string
	LogFormat     string
	SessionTTL    time.Duration
	SecureCookies bool
	NavPolicyPath string
	Weather       weather.Config
}

// Load reads the configuration. envFiles default to ".env"; missing files
// are ignored.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		Port:          getenv("NOVELENO_PORT", "8080"),
		DBPath:        getenv("NOVELENO_DB_PATH", "noveleno.db"),
		APIURL:        getenv("NOVELENO_API_URL", api.DefaultBaseURL),
		LogLevel:      getenv("NOVELENO_LOG_LEVEL", "info"),
		LogFormat:     getenv("NOVELENO_LOG_FORMAT", "text"),
		NavPolicyPath: os.Getenv("NOVELENO_NAV_POLICY"),
		Weather: weather.Config{
			Latitude:  getenv("NOVELENO_WEATHER_LAT", weather.DefaultLatitude),
			Longitude: getenv("NOVELENO_WEATHER_LON", weather.DefaultLongitude),
		},
	}

	var err error
	if cfg.APITimeout, err = duration("NOVELENO_API_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = duration("NOVELENO_SESSION_TTL", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.SecureCookies, err = boolean("NOVELENO_SECURE_COOKIES", false); err != nil {
		return Config{}, err
	}
	if strings.EqualFold(os.Getenv("NOVELENO_WEATHER"), "off") {
		cfg.Weather = weather.Config{}
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func boolean(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}
