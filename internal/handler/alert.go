package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/noveleno/portal/internal/api"
	"github.com/noveleno/portal/internal/middleware"
	"github.com/noveleno/portal/internal/websocket"
)

// bellSize is how many notifications the bell menu lists.
const bellSize = 10

type AlertHandler struct {
	api    *api.Client
	hub    *websocket.Hub
	render *Renderer
	logger *slog.Logger
}

func NewAlertHandler(client *api.Client, hub *websocket.Hub, render *Renderer, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{api: client, hub: hub, render: render, logger: logger}
}

func (h *AlertHandler) Page(w http.ResponseWriter, r *http.Request) {
	h.render.Page(w, r, "alert", Page{Title: "Post Alert", Data: api.AlertLevels})
}

// Post sends the alert for the chosen level, attributed to the signed-in
// account, and pushes a refresh to every connected browser.
func (h *AlertHandler) Post(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.FormValue("level"))
	level := api.Level(n)
	var description string
	for _, a := range api.AlertLevels {
		if a.Level == level {
			description = a.Description
		}
	}
	if err != nil || description == "" {
		h.render.PageStatus(w, r, http.StatusUnprocessableEntity, "alert", Page{
			Title: "Post Alert", Data: api.AlertLevels, Error: "Choose an alert level.",
		})
		return
	}

	ctx := apiContext(r)
	email := emailOf(r)
	user, err := h.api.UserByEmail(ctx, email)
	if err != nil {
		h.logger.Warn("alert sender lookup", "email", email, "error", err)
		h.render.PageStatus(w, r, http.StatusBadGateway, "alert", Page{
			Title: "Post Alert", Data: api.AlertLevels, Error: api.ErrorMessage(err, "Could not look up your account."),
		})
		return
	}
	if err := h.api.PostNotification(ctx, user.ID, level, description); err != nil {
		h.logger.Warn("post alert", "level", level, "error", err)
		h.render.PageStatus(w, r, http.StatusBadGateway, "alert", Page{
			Title: "Post Alert", Data: api.AlertLevels, Error: api.ErrorMessage(err, "Failed to post the alert."),
		})
		return
	}

	h.logger.Info("alert posted", "level", level, "by", email)
	h.hub.Broadcast(websocket.NewMessage("notification", "created", "", map[string]any{
		"level": int(level),
		"title": level.Title(),
	}))
	h.render.Flash(r, level.Title()+" alert sent.")
	middleware.Redirect(w, r, "/alert")
}

type bellData struct {
	Items []api.Notification
	Count int
	Error string
}

// Bell renders the notification menu for HTMX polling and live refreshes.
func (h *AlertHandler) Bell(w http.ResponseWriter, r *http.Request) {
	items, err := h.api.Notifications(apiContext(r))
	if err != nil {
		h.logger.Warn("load notifications", "error", err)
		h.render.Partial(w, "notifications", bellData{Error: "Notifications are unavailable."})
		return
	}
	data := bellData{Count: len(items), Items: items}
	if len(items) > bellSize {
		data.Items = items[:bellSize]
	}
	h.render.Partial(w, "notifications", data)
}
