// Package weather reads the Open-Meteo forecast for the municipality and
// turns it into the outlook shown on the dashboard.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const cacheTTL = 30 * time.Minute

// Noveleta, Cavite.
const (
	DefaultLatitude  = "14.4289"
	DefaultLongitude = "120.8797"
)

type Config struct {
	Latitude  string
	Longitude string
}

// Advisory is a coarse hazard level derived from the day's forecast.
type Advisory int

const (
	AdvisoryNone Advisory = iota
	AdvisoryRain
	AdvisoryHeavyRain
	AdvisoryWind
	AdvisoryStorm
)

func (a Advisory) String() string {
	switch a {
	case AdvisoryRain:
		return "Rainfall advisory"
	case AdvisoryHeavyRain:
		return "Heavy rainfall warning"
	case AdvisoryWind:
		return "Strong wind advisory"
	case AdvisoryStorm:
		return "Storm warning"
	default:
		return "No advisory"
	}
}

// Thresholds in mm per day and km/h.
const (
	rainAdvisoryMM = 7.5
	heavyRainMM    = 30
	strongWindKMH  = 39
	stormGustKMH   = 62
)

// Forecast holds the current conditions and today's outlook.
type Forecast struct {
	CurrentTemp   float64
	CurrentCode   int
	CurrentDesc   string
	CurrentIcon   string
	HighTemp      float64
	LowTemp       float64
	Precipitation float64
	RainChance    int
	WindGusts     float64
	Advisory      Advisory
	Available     bool
	Configured    bool
}

// Service fetches and caches the forecast.
type Service struct {
	config    Config
	client    *http.Client
	baseURL   string
	mu        sync.RWMutex
	cached    Forecast
	lastFetch time.Time
}

func NewService(cfg Config) *Service {
	return &Service{
		config:  cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://api.open-meteo.com/v1/forecast",
		cached: Forecast{
			Configured: cfg.Latitude != "" && cfg.Longitude != "",
		},
	}
}

// Forecast returns the cached forecast, refreshing it when stale. On fetch
// errors the previous forecast is kept.
func (s *Service) Forecast(ctx context.Context) Forecast {
	if !s.cached.Configured {
		return s.cached
	}

	s.mu.RLock()
	if time.Since(s.lastFetch) < cacheTTL && s.cached.Available {
		data := s.cached
		s.mu.RUnlock()
		return data
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.lastFetch) < cacheTTL && s.cached.Available {
		return s.cached
	}

	data, err := s.fetch(ctx)
	if err != nil {
		return s.cached
	}

	s.cached = data
	s.lastFetch = time.Now()
	return s.cached
}

type apiResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		TempMax       []float64 `json:"temperature_2m_max"`
		TempMin       []float64 `json:"temperature_2m_min"`
		Precipitation []float64 `json:"precipitation_sum"`
		RainChance    []int     `json:"precipitation_probability_max"`
		WindGusts     []float64 `json:"wind_gusts_10m_max"`
		WindSpeed     []float64 `json:"wind_speed_10m_max"`
	} `json:"daily"`
}

func (s *Service) fetch(ctx context.Context) (Forecast, error) {
	q := url.Values{
		"latitude":      {s.config.Latitude},
		"longitude":     {s.config.Longitude},
		"current":       {"temperature_2m,weather_code"},
		"daily":         {"temperature_2m_max,temperature_2m_min,precipitation_sum,precipitation_probability_max,wind_speed_10m_max,wind_gusts_10m_max"},
		"timezone":      {"Asia/Manila"},
		"forecast_days": {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Forecast{}, fmt.Errorf("weather request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return Forecast{}, fmt.Errorf("weather API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Forecast{}, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return Forecast{}, fmt.Errorf("decode weather response: %w", err)
	}

	return toForecast(apiResp), nil
}

func toForecast(r apiResponse) Forecast {
	desc, icon := DescribeCode(r.Current.WeatherCode)
	f := Forecast{
		CurrentTemp: r.Current.Temperature,
		CurrentCode: r.Current.WeatherCode,
		CurrentDesc: desc,
		CurrentIcon: icon,
		Available:   true,
		Configured:  true,
	}
	f.HighTemp = first(r.Daily.TempMax)
	f.LowTemp = first(r.Daily.TempMin)
	f.Precipitation = first(r.Daily.Precipitation)
	f.RainChance = first(r.Daily.RainChance)
	f.WindGusts = first(r.Daily.WindGusts)
	f.Advisory = Assess(f.Precipitation, first(r.Daily.WindSpeed), f.WindGusts, r.Current.WeatherCode)
	return f
}

func first[T any](xs []T) T {
	var zero T
	if len(xs) == 0 {
		return zero
	}
	return xs[0]
}

// Assess picks the most severe advisory that applies.
func Assess(precipMM, windKMH, gustKMH float64, code int) Advisory {
	switch {
	case gustKMH >= stormGustKMH || code >= 95:
		return AdvisoryStorm
	case precipMM >= heavyRainMM:
		return AdvisoryHeavyRain
	case windKMH >= strongWindKMH:
		return AdvisoryWind
	case precipMM >= rainAdvisoryMM:
		return AdvisoryRain
	default:
		return AdvisoryNone
	}
}

// DescribeCode maps a WMO weather code to a description and an icon name.
func DescribeCode(code int) (string, string) {
	switch code {
	case 0:
		return "Clear sky", "tabler:sun"
	case 1:
		return "Mainly clear", "tabler:sun"
	case 2:
		return "Partly cloudy", "tabler:cloud"
	case 3:
		return "Overcast", "tabler:cloud"
	case 45, 48:
		return "Foggy", "tabler:mist"
	case 51, 53:
		return "Drizzle", "tabler:cloud-rain"
	case 55, 56, 57:
		return "Dense drizzle", "tabler:cloud-rain"
	case 61:
		return "Slight rain", "tabler:cloud-rain"
	case 63:
		return "Moderate rain", "tabler:cloud-rain"
	case 65, 66, 67:
		return "Heavy rain", "tabler:cloud-storm"
	case 80:
		return "Slight showers", "tabler:cloud-rain"
	case 81:
		return "Moderate showers", "tabler:cloud-rain"
	case 82:
		return "Violent showers", "tabler:cloud-storm"
	case 95:
		return "Thunderstorm", "tabler:bolt"
	case 96, 99:
		return "Thunderstorm with hail", "tabler:bolt"
	default:
		return "Unknown", "tabler:temperature"
	}
}
