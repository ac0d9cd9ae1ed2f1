package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/noveleno/portal/internal/api"
	"github.com/noveleno/portal/internal/middleware"
	"github.com/noveleno/portal/internal/session"
	"github.com/noveleno/portal/internal/websocket"
)

type UserHandler struct {
	api    *api.Client
	hub    *websocket.Hub
	render *Renderer
	logger *slog.Logger
}

func NewUserHandler(client *api.Client, hub *websocket.Hub, render *Renderer, logger *slog.Logger) *UserHandler {
	return &UserHandler{api: client, hub: hub, render: render, logger: logger}
}

type pendingRow struct {
	api.User
	Address string
}

// Pending lists residents waiting for approval.
func (h *UserHandler) Pending(w http.ResponseWriter, r *http.Request) {
	users, err := h.api.PendingUsers(apiContext(r))
	page := Page{Title: "Users Pending"}
	if err != nil {
		h.logger.Warn("load pending users", "error", err)
		page.Error = api.ErrorMessage(err, "Could not load pending users.")
	}
	rows := make([]pendingRow, 0, len(users))
	for _, u := range users {
		s := session.Session{StreetNumber: u.StreetNumber, StreetName: u.StreetName, Barangay: u.Barangay}
		rows = append(rows, pendingRow{User: u, Address: s.Address()})
	}
	page.Data = rows
	h.render.Page(w, r, "users", page)
}

func (h *UserHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id := api.ID(r.PathValue("id"))
	if err := h.api.AcceptUser(apiContext(r), id); err != nil {
		h.logger.Warn("accept user", "id", id, "error", err)
		h.render.Flash(r, api.ErrorMessage(err, "Could not accept the user."))
	} else {
		h.logger.Info("user accepted", "id", id, "by", emailOf(r))
		h.hub.BroadcastStaff(websocket.NewMessage("user", "accepted", id.String(), nil))
		h.render.Flash(r, "User accepted.")
	}
	middleware.Redirect(w, r, "/users")
}

type adminData struct {
	Admins        []api.User
	StreetNumbers []int
	StreetNames   []string
}

func (h *UserHandler) admins(r *http.Request) ([]api.User, error) {
	users, err := h.api.AllUsers(apiContext(r))
	if err != nil {
		return nil, err
	}
	var out []api.User
	for _, u := range users {
		if strings.EqualFold(u.Role, string(session.RoleAdmin)) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (h *UserHandler) adminPage(r *http.Request, form any) Page {
	page := Page{Title: "Admin Management", Form: form}
	admins, err := h.admins(r)
	if err != nil {
		h.logger.Warn("load admins", "error", err)
		page.Error = api.ErrorMessage(err, "Could not load admins.")
	}
	opts := registerOptions()
	page.Data = adminData{Admins: admins, StreetNumbers: opts.StreetNumbers, StreetNames: opts.StreetNames}
	return page
}

// Admins lists Admin accounts with a form to create one.
func (h *UserHandler) Admins(w http.ResponseWriter, r *http.Request) {
	h.render.Page(w, r, "admin-management", h.adminPage(r, adminForm{}))
}

type adminForm struct {
	Email         string `form:"email" validate:"required,email"`
	Password      string `form:"password" validate:"required,strongpw"`
	Fullname      string `form:"fullname" validate:"required,max=120"`
	Birthday      string `form:"birthday" validate:"omitempty,datetime=2006-01-02"`
	StreetNumber  string `form:"streetNumber" validate:"omitempty,oneof=1 2 3 4 5 6 7 8 9 10"`
	StreetName    string `form:"streetName" validate:"omitempty,streetname"`
	Barangay      string `form:"barangay" validate:"required,barangay"`
	ContactNumber string `form:"contactNumber" validate:"required,phmobile"`
}

func (h *UserHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	form := adminForm{
		Email:         formValue(r, "email"),
		Password:      r.FormValue("password"),
		Fullname:      formValue(r, "fullname"),
		Birthday:      formValue(r, "birthday"),
		StreetNumber:  formValue(r, "streetNumber"),
		StreetName:    formValue(r, "streetName"),
		Barangay:      formValue(r, "barangay"),
		ContactNumber: formValue(r, "contactNumber"),
	}
	if err := validate.Struct(form); err != nil {
		form.Password = ""
		page := h.adminPage(r, form)
		page.Errors = fieldErrors(err)
		h.render.PageStatus(w, r, http.StatusUnprocessableEntity, "admin-management", page)
		return
	}

	err := h.api.RegisterAdmin(apiContext(r), api.Registration{
		Email:         form.Email,
		Password:      form.Password,
		Fullname:      form.Fullname,
		Birthday:      form.Birthday,
		StreetNumber:  form.StreetNumber,
		StreetName:    form.StreetName,
		Barangay:      form.Barangay,
		ContactNumber: form.ContactNumber,
	})
	if err != nil {
		h.logger.Warn("register admin", "email", form.Email, "error", err)
		form.Password = ""
		page := h.adminPage(r, form)
		page.Error = api.ErrorMessage(err, "Could not create the admin.")
		h.render.PageStatus(w, r, http.StatusBadGateway, "admin-management", page)
		return
	}
	h.logger.Info("admin created", "email", form.Email, "by", emailOf(r))
	h.render.Flash(r, "Admin account created.")
	middleware.Redirect(w, r, "/admin-management")
}

func (h *UserHandler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id := api.ID(r.PathValue("id"))
	if err := h.api.DeleteUser(apiContext(r), id); err != nil {
		h.logger.Warn("delete admin", "id", id, "error", err)
		h.render.Flash(r, api.ErrorMessage(err, "Could not delete the admin."))
	} else {
		h.logger.Info("admin deleted", "id", id, "by", emailOf(r))
		h.render.Flash(r, "Admin deleted.")
	}
	middleware.Redirect(w, r, "/admin-management")
}
