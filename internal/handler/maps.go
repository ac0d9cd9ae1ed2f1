package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/noveleno/portal/internal/api"
	"github.com/noveleno/portal/internal/middleware"
	"github.com/noveleno/portal/internal/websocket"
)

// CriticalLevels are the severities a flood report can carry.
var CriticalLevels = []string{"Low", "Medium", "High"}

type MapHandler struct {
	api    *api.Client
	hub    *websocket.Hub
	render *Renderer
	logger *slog.Logger
}

func NewMapHandler(client *api.Client, hub *websocket.Hub, render *Renderer, logger *slog.Logger) *MapHandler {
	return &MapHandler{api: client, hub: hub, render: render, logger: logger}
}

type mapData struct {
	Center  api.LatLng
	Points  []api.MapPoint
	Centers []api.EvacuationCenter
	Levels  []string
}

type pointForm struct {
	Barangay      string `form:"barangay" validate:"required,barangay"`
	Description   string `form:"description" validate:"required,max=500"`
	CriticalLevel string `form:"criticalLevel" validate:"required,oneof=Low Medium High"`
	Lat           string `form:"lat" validate:"required,latitude"`
	Lng           string `form:"lng" validate:"required,longitude"`
}

type centerForm struct {
	Title    string `form:"title" validate:"required,max=120"`
	Barangay string `form:"barangay" validate:"required,barangay"`
	Lat      string `form:"lat" validate:"required,latitude"`
	Lng      string `form:"lng" validate:"required,longitude"`
}

func (f pointForm) point() api.MapPoint {
	lat, _ := strconv.ParseFloat(f.Lat, 64)
	lng, _ := strconv.ParseFloat(f.Lng, 64)
	return api.MapPoint{Barangay: f.Barangay, Description: f.Description, CriticalLevel: f.CriticalLevel, Lat: lat, Lng: lng}
}

func (f centerForm) at() api.LatLng {
	lat, _ := strconv.ParseFloat(f.Lat, 64)
	lng, _ := strconv.ParseFloat(f.Lng, 64)
	return api.LatLng{Lat: lat, Lng: lng}
}

func (h *MapHandler) points(r *http.Request, page *Page) []api.MapPoint {
	points, err := h.api.MapData(apiContext(r))
	if err != nil {
		h.logger.Warn("load map data", "error", err)
		page.Error = api.ErrorMessage(err, "Could not load flood reports.")
	}
	return points
}

func (h *MapHandler) centers(r *http.Request, page *Page) []api.EvacuationCenter {
	centers, err := h.api.EvacuationCenters(apiContext(r))
	if err != nil {
		h.logger.Warn("load evacuation centers", "error", err)
		page.Error = api.ErrorMessage(err, "Could not load evacuation centers.")
	}
	return centers
}

func (h *MapHandler) managePage(r *http.Request, form pointForm) Page {
	page := Page{Title: "Manage Map", Form: form}
	page.Data = mapData{Center: MapCenter, Points: h.points(r, &page), Levels: CriticalLevels}
	return page
}

func (h *MapHandler) ManageMap(w http.ResponseWriter, r *http.Request) {
	h.render.Page(w, r, "manage-map", h.managePage(r, pointForm{CriticalLevel: "Low"}))
}

func (h *MapHandler) CreatePoint(w http.ResponseWriter, r *http.Request) {
	form := pointForm{
		Barangay:      formValue(r, "barangay"),
		Description:   formValue(r, "description"),
		CriticalLevel: formValue(r, "criticalLevel"),
		Lat:           formValue(r, "lat"),
		Lng:           formValue(r, "lng"),
	}
	if err := validate.Struct(form); err != nil {
		page := h.managePage(r, form)
		page.Errors = fieldErrors(err)
		h.render.PageStatus(w, r, http.StatusUnprocessableEntity, "manage-map", page)
		return
	}
	if err := h.api.CreateMapPoint(apiContext(r), form.point()); err != nil {
		h.logger.Warn("create map point", "error", err)
		page := h.managePage(r, form)
		page.Error = api.ErrorMessage(err, "Could not save the report.")
		h.render.PageStatus(w, r, http.StatusBadGateway, "manage-map", page)
		return
	}
	h.logger.Info("map point created", "barangay", form.Barangay, "level", form.CriticalLevel, "by", emailOf(r))
	h.hub.Broadcast(websocket.NewMessage("mapdata", "created", "", map[string]any{"barangay": form.Barangay}))
	h.render.Flash(r, "Flood report saved.")
	middleware.Redirect(w, r, "/manage-map")
}

func (h *MapHandler) DeletePoint(w http.ResponseWriter, r *http.Request) {
	id := api.ID(r.PathValue("id"))
	if err := h.api.DeleteMapPoint(apiContext(r), id); err != nil {
		h.logger.Warn("delete map point", "id", id, "error", err)
		h.render.Flash(r, api.ErrorMessage(err, "Could not delete the report."))
	} else {
		h.hub.Broadcast(websocket.NewMessage("mapdata", "deleted", id.String(), nil))
		h.render.Flash(r, "Flood report deleted.")
	}
	middleware.Redirect(w, r, "/manage-map")
}

func (h *MapHandler) evacuationPage(r *http.Request, form centerForm) Page {
	page := Page{Title: "Manage Evacuation", Form: form}
	page.Data = mapData{Center: MapCenter, Centers: h.centers(r, &page)}
	return page
}

func (h *MapHandler) ManageEvacuation(w http.ResponseWriter, r *http.Request) {
	h.render.Page(w, r, "manage-evacuation", h.evacuationPage(r, centerForm{}))
}

func (h *MapHandler) CreateCenter(w http.ResponseWriter, r *http.Request) {
	form := centerForm{
		Title:    formValue(r, "title"),
		Barangay: formValue(r, "barangay"),
		Lat:      formValue(r, "lat"),
		Lng:      formValue(r, "lng"),
	}
	if err := validate.Struct(form); err != nil {
		page := h.evacuationPage(r, form)
		page.Errors = fieldErrors(err)
		h.render.PageStatus(w, r, http.StatusUnprocessableEntity, "manage-evacuation", page)
		return
	}
	if _, err := h.api.CreateEvacuationCenter(apiContext(r), form.Title, form.Barangay, form.at()); err != nil {
		h.logger.Warn("create evacuation center", "error", err)
		page := h.evacuationPage(r, form)
		page.Error = api.ErrorMessage(err, "Could not save the evacuation center.")
		h.render.PageStatus(w, r, http.StatusBadGateway, "manage-evacuation", page)
		return
	}
	h.logger.Info("evacuation center created", "title", form.Title, "by", emailOf(r))
	h.render.Flash(r, "Evacuation center saved.")
	middleware.Redirect(w, r, "/manage-evacuation")
}

func (h *MapHandler) DeleteCenter(w http.ResponseWriter, r *http.Request) {
	id := api.ID(r.PathValue("id"))
	if err := h.api.DeleteEvacuationCenter(apiContext(r), id); err != nil {
		h.logger.Warn("delete evacuation center", "id", id, "error", err)
		h.render.Flash(r, api.ErrorMessage(err, "Could not delete the evacuation center."))
	} else {
		h.render.Flash(r, "Evacuation center deleted.")
	}
	middleware.Redirect(w, r, "/manage-evacuation")
}

// Location shows residents the evacuation centers and the current flood
// reports on one map.
func (h *MapHandler) Location(w http.ResponseWriter, r *http.Request) {
	page := Page{Title: "Emergency Routes"}
	page.Data = mapData{Center: MapCenter, Centers: h.centers(r, &page), Points: h.points(r, &page)}
	h.render.Page(w, r, "location", page)
}
