package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/noveleno/portal/internal/api"
	"github.com/noveleno/portal/internal/auth"
	"github.com/noveleno/portal/internal/middleware"
	"github.com/noveleno/portal/internal/websocket"
)

const newsPerPage = 5

type NewsHandler struct {
	api    *api.Client
	hub    *websocket.Hub
	render *Renderer
	logger *slog.Logger
}

func NewNewsHandler(client *api.Client, hub *websocket.Hub, render *Renderer, logger *slog.Logger) *NewsHandler {
	return &NewsHandler{api: client, hub: hub, render: render, logger: logger}
}

type newsForm struct {
	Title       string `form:"title" validate:"required,max=200"`
	Description string `form:"description" validate:"required"`
	Barangay    string `form:"barangay" validate:"required,barangay"`
	ImageURL    string `form:"imageUrl" validate:"omitempty,url"`
	ExpiresAt   string `form:"expires_at" validate:"omitempty,datetime=2006-01-02"`
}

func newsTitle(r *http.Request) string {
	if r.URL.Path == "/share-report" {
		return "Share Report"
	}
	return "Post News"
}

// Form serves both the staff news form and the resident report form.
func (h *NewsHandler) Form(w http.ResponseWriter, r *http.Request) {
	h.render.Page(w, r, "news", Page{Title: newsTitle(r), Form: newsForm{}})
}

// Post submits a story. Staff stories are published directly; resident
// reports wait for approval and staff are told one arrived.
func (h *NewsHandler) Post(w http.ResponseWriter, r *http.Request) {
	form := newsForm{
		Title:       formValue(r, "title"),
		Description: formValue(r, "description"),
		Barangay:    formValue(r, "barangay"),
		ImageURL:    formValue(r, "imageUrl"),
		ExpiresAt:   formValue(r, "expires_at"),
	}
	if err := validate.Struct(form); err != nil {
		h.render.PageStatus(w, r, http.StatusUnprocessableEntity, "news", Page{
			Title: newsTitle(r), Form: form, Errors: fieldErrors(err),
		})
		return
	}

	status := api.NewsPending
	if auth.IsStaff(r.Context()) {
		status = api.NewsPublished
	}
	err := h.api.PostNews(apiContext(r), api.News{
		Title:       form.Title,
		Description: form.Description,
		Barangay:    form.Barangay,
		Email:       emailOf(r),
		ImageURL:    form.ImageURL,
		Status:      status,
		ExpiresAt:   form.ExpiresAt,
	})
	if err != nil {
		h.logger.Warn("post news", "error", err)
		h.render.PageStatus(w, r, http.StatusBadGateway, "news", Page{
			Title: newsTitle(r), Form: form, Error: api.ErrorMessage(err, "Failed to post news. Please try again."),
		})
		return
	}

	h.logger.Info("news posted", "title", form.Title, "status", status, "by", emailOf(r))
	if status == api.NewsPending {
		h.hub.BroadcastStaff(websocket.NewMessage("news", "pending", "", map[string]any{"title": form.Title}))
		h.render.Flash(r, "Your report was sent and is waiting for approval.")
	} else {
		h.hub.Broadcast(websocket.NewMessage("news", "published", "", map[string]any{"title": form.Title}))
		h.render.Flash(r, "Your news has been posted successfully.")
	}
	middleware.Redirect(w, r, r.URL.Path)
}

type feedData struct {
	Items    []api.News
	Query    string
	Barangay string
	Page     int
	Pages    int
	Total    int
}

func (d feedData) PageURL(page int) string {
	q := url.Values{}
	if d.Query != "" {
		q.Set("q", d.Query)
	}
	if d.Barangay != "" {
		q.Set("barangay", d.Barangay)
	}
	q.Set("page", strconv.Itoa(page))
	return "?" + q.Encode()
}

// filterNews keeps items whose title or description contains query, case
// insensitively, and whose barangay equals barangay when one is given.
func filterNews(items []api.News, query, barangay string) []api.News {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]api.News, 0, len(items))
	for _, n := range items {
		if barangay != "" && n.Barangay != barangay {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(n.Title), query) &&
			!strings.Contains(strings.ToLower(n.Description), query) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// paginate returns the 1-based page of items, clamping page into range,
// with the page used and the page count.
func paginate[T any](items []T, page, per int) ([]T, int, int) {
	pages := (len(items) + per - 1) / per
	if pages == 0 {
		return nil, 1, 1
	}
	page = min(max(page, 1), pages)
	start := (page - 1) * per
	return items[start:min(start+per, len(items))], page, pages
}

func (h *NewsHandler) feed(r *http.Request, items []api.News) feedData {
	q := r.URL.Query()
	d := feedData{Query: q.Get("q"), Barangay: q.Get("barangay")}
	filtered := filterNews(items, d.Query, d.Barangay)
	n, _ := strconv.Atoi(q.Get("page"))
	d.Total = len(filtered)
	d.Items, d.Page, d.Pages = paginate(filtered, n, newsPerPage)
	return d
}

func (h *NewsHandler) Feed(w http.ResponseWriter, r *http.Request) {
	page := Page{Title: "News Feed"}
	items, err := h.api.News(apiContext(r))
	if err != nil {
		h.logger.Warn("load news", "error", err)
		page.Error = api.ErrorMessage(err, "Failed to fetch news.")
	}
	page.Data = h.feed(r, items)
	h.render.Page(w, r, "news-feed", page)
}

// Approval lists resident reports waiting for staff approval.
func (h *NewsHandler) Approval(w http.ResponseWriter, r *http.Request) {
	page := Page{Title: "Report Approval"}
	items, err := h.api.PendingNews(apiContext(r))
	if err != nil {
		h.logger.Warn("load pending news", "error", err)
		page.Error = api.ErrorMessage(err, "Failed to fetch pending news.")
	}
	page.Data = h.feed(r, items)
	h.render.Page(w, r, "news-approval", page)
}

func (h *NewsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id := api.ID(r.PathValue("id"))
	if err := h.api.ApproveNews(apiContext(r), id); err != nil {
		h.logger.Warn("approve news", "id", id, "error", err)
		h.render.Flash(r, api.ErrorMessage(err, "Could not approve the report."))
	} else {
		h.logger.Info("news approved", "id", id, "by", emailOf(r))
		h.hub.Broadcast(websocket.NewMessage("news", "published", id.String(), nil))
		h.render.Flash(r, "Report approved.")
	}
	middleware.Redirect(w, r, "/news/approval")
}
