package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"

	"github.com/noveleno/portal/internal/api"
	"github.com/noveleno/portal/internal/middleware"
)

// CalamityTypes each have their own checklist.
var CalamityTypes = []string{"Flood", "Fire", "Earthquake"}

type ChecklistHandler struct {
	api    *api.Client
	render *Renderer
	logger *slog.Logger
}

func NewChecklistHandler(client *api.Client, render *Renderer, logger *slog.Logger) *ChecklistHandler {
	return &ChecklistHandler{api: client, render: render, logger: logger}
}

type checklistItem struct {
	Name    string
	Checked bool
}

type checklistData struct {
	Type  string
	Items []checklistItem
	Done  int
	Error string
}

func newChecklistData(kind string, state map[string]bool) checklistData {
	d := checklistData{Type: kind}
	for _, name := range api.ChecklistItems {
		d.Items = append(d.Items, checklistItem{Name: name, Checked: state[name]})
		if state[name] {
			d.Done++
		}
	}
	return d
}

// Calamities lists the checklists a resident can keep.
func (h *ChecklistHandler) Calamities(w http.ResponseWriter, r *http.Request) {
	h.render.Page(w, r, "calamity-emergency", Page{Title: "Calamity Emergency Checklist", Data: CalamityTypes})
}

func (h *ChecklistHandler) Show(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("value")
	if kind == "" {
		kind = CalamityTypes[0]
	}
	if !slices.Contains(CalamityTypes, kind) {
		http.NotFound(w, r)
		return
	}

	page := Page{Title: kind + " Preparedness Checklist"}
	state, err := h.api.Checklist(apiContext(r), emailOf(r), kind)
	if err != nil {
		h.logger.Warn("load checklist", "type", kind, "error", err)
		page.Error = api.ErrorMessage(err, "Could not load your checklist.")
	}
	page.Data = newChecklistData(kind, state)
	h.render.Page(w, r, "checklist", page)
}

// Toggle flips one item and saves the whole checklist right away.
func (h *ChecklistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	kind := r.FormValue("value")
	item := r.FormValue("item")
	if !slices.Contains(CalamityTypes, kind) || !slices.Contains(api.ChecklistItems, item) {
		http.Error(w, "unknown checklist item", http.StatusBadRequest)
		return
	}

	ctx := apiContext(r)
	email := emailOf(r)
	state, err := h.api.Checklist(ctx, email, kind)
	if err == nil {
		state[item] = !state[item]
		err = h.api.SaveChecklist(ctx, email, kind, state)
	}

	data := newChecklistData(kind, state)
	if err != nil {
		h.logger.Warn("save checklist", "type", kind, "item", item, "error", err)
		data.Error = api.ErrorMessage(err, "Could not save your checklist.")
	}
	if r.Header.Get("HX-Request") == "true" {
		h.render.Partial(w, "checklist-items", data)
		return
	}
	if data.Error != "" {
		h.render.Flash(r, data.Error)
	}
	middleware.Redirect(w, r, "/checklist?value="+url.QueryEscape(kind))
}
