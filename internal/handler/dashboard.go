package handler

import (
	"log/slog"
	"net/http"

	"github.com/noveleno/portal/internal/api"
	"github.com/noveleno/portal/internal/auth"
	"github.com/noveleno/portal/internal/weather"
)

// MapCenter is the default view of the dashboard and location maps.
var MapCenter = api.LatLng{Lat: 14.4315, Lng: 120.8765}

type DashboardHandler struct {
	api     *api.Client
	weather *weather.Service
	render  *Renderer
	logger  *slog.Logger
}

func NewDashboardHandler(client *api.Client, ws *weather.Service, render *Renderer, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{api: client, weather: ws, render: render, logger: logger}
}

type homeData struct {
	Staff    bool
	Stats    api.Stats
	Graph    []api.GraphPoint
	Points   []api.MapPoint
	Center   api.LatLng
	Forecast weather.Forecast
	Problems []string
}

// Home is the dashboard. Staff see the user counters and the registration
// graph; everyone sees the flood map and the forecast. A failing section is
// reported on the page instead of failing the whole page.
func (h *DashboardHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := apiContext(r)
	data := homeData{Staff: auth.IsStaff(r.Context()), Center: MapCenter}

	if data.Staff {
		stats, err := h.api.Stats(ctx)
		if err != nil {
			h.logger.Warn("load stats", "error", err)
			data.Problems = append(data.Problems, "User counts are unavailable.")
		}
		data.Stats = stats

		graph, err := h.api.Graph(ctx)
		if err != nil {
			h.logger.Warn("load graph", "error", err)
			data.Problems = append(data.Problems, "The registration graph is unavailable.")
		}
		data.Graph = graph
	}

	points, err := h.api.MapData(ctx)
	if err != nil {
		h.logger.Warn("load map data", "error", err)
		data.Problems = append(data.Problems, "Flood reports are unavailable.")
	}
	data.Points = points

	if h.weather != nil {
		data.Forecast = h.weather.Forecast(r.Context())
	}

	h.render.Page(w, r, "home", Page{Title: "Dashboard", Data: data})
}

type menuLink struct {
	Title string
	Path  string
	Icon  string
}

var staffLinks = []menuLink{
	{"Alert", "/alert", "tabler:alert-circle"},
	{"News", "/news", "tabler:news"},
	{"Chat", "/chat", "tabler:message"},
}

var residentLinks = []menuLink{
	{"News", "/news", "tabler:news"},
	{"Emergency Routes", "/location", "tabler:map-pin"},
	{"Contacts", "/emergency-hotlines", "tabler:phone"},
	{"Emergency Kit", "/calamity-emergency", "tabler:first-aid-kit"},
}

// Menu is the staff landing page.
func (h *DashboardHandler) Menu(w http.ResponseWriter, r *http.Request) {
	h.render.Page(w, r, "menu", Page{Title: "What's for Menu?", Data: staffLinks})
}

// UserMenu is the resident landing page.
func (h *DashboardHandler) UserMenu(w http.ResponseWriter, r *http.Request) {
	h.render.Page(w, r, "menu", Page{Title: "What's for Menu?", Data: residentLinks})
}

// Profile shows the signed-in profile as stored at login.
func (h *DashboardHandler) Profile(w http.ResponseWriter, r *http.Request) {
	h.render.Page(w, r, "profile", Page{Title: "Profile"})
}
