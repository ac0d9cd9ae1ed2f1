package handler

import (
	"log/slog"
	"net/http"

	"github.com/noveleno/portal/internal/api"
	"github.com/noveleno/portal/internal/middleware"
)

type ContactHandler struct {
	api    *api.Client
	render *Renderer
	logger *slog.Logger
}

func NewContactHandler(client *api.Client, render *Renderer, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{api: client, render: render, logger: logger}
}

type contactForm struct {
	Name      string `form:"name" validate:"required,max=100"`
	ContactNo string `form:"contact_no" validate:"required,max=30"`
}

func (h *ContactHandler) load(r *http.Request, page *Page) {
	contacts, err := h.api.Contacts(apiContext(r))
	if err != nil {
		h.logger.Warn("load contacts", "error", err)
		page.Error = api.ErrorMessage(err, "Could not load contacts.")
	}
	page.Data = contacts
}

// Hotlines is the read-only list residents see.
func (h *ContactHandler) Hotlines(w http.ResponseWriter, r *http.Request) {
	page := Page{Title: "Emergency Hotlines"}
	h.load(r, &page)
	h.render.Page(w, r, "emergency-hotlines", page)
}

func (h *ContactHandler) Manage(w http.ResponseWriter, r *http.Request) {
	page := Page{Title: "Emergency Contact", Form: contactForm{}}
	h.load(r, &page)
	h.render.Page(w, r, "manage-contact", page)
}

func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	form := contactForm{Name: formValue(r, "name"), ContactNo: formValue(r, "contact_no")}
	if err := validate.Struct(form); err != nil {
		page := Page{Title: "Emergency Contact", Form: form, Errors: fieldErrors(err)}
		h.load(r, &page)
		h.render.PageStatus(w, r, http.StatusUnprocessableEntity, "manage-contact", page)
		return
	}
	if _, err := h.api.CreateContact(apiContext(r), form.Name, form.ContactNo); err != nil {
		h.logger.Warn("create contact", "error", err)
		page := Page{Title: "Emergency Contact", Form: form}
		h.load(r, &page)
		page.Error = api.ErrorMessage(err, "Could not add the contact.")
		h.render.PageStatus(w, r, http.StatusBadGateway, "manage-contact", page)
		return
	}
	h.logger.Info("contact created", "name", form.Name, "by", emailOf(r))
	h.render.Flash(r, "Contact added.")
	middleware.Redirect(w, r, "/manage-contact")
}

func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := api.ID(r.PathValue("id"))
	if err := h.api.DeleteContact(apiContext(r), id); err != nil {
		h.logger.Warn("delete contact", "id", id, "error", err)
		h.render.Flash(r, api.ErrorMessage(err, "Could not delete the contact."))
	} else {
		h.render.Flash(r, "Contact deleted.")
	}
	middleware.Redirect(w, r, "/manage-contact")
}
