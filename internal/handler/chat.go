package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/noveleno/portal/internal/api"
	"github.com/noveleno/portal/internal/middleware"
	"github.com/noveleno/portal/internal/websocket"
)

type ChatHandler struct {
	api    *api.Client
	hub    *websocket.Hub
	render *Renderer
	logger *slog.Logger
}

func NewChatHandler(client *api.Client, hub *websocket.Hub, render *Renderer, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{api: client, hub: hub, render: render, logger: logger}
}

type chatData struct {
	Me       string
	Query    string
	Contacts []api.User
	Online   map[string]bool
	With     *api.User
	Thread   threadData
}

type threadData struct {
	Me       string
	With     string
	Messages []api.Message
	Error    string
}

// chatContacts drops the signed-in account and keeps users whose name or
// email contains query.
func chatContacts(users []api.User, me, query string) []api.User {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]api.User, 0, len(users))
	for _, u := range users {
		if u.Email == me {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(u.Fullname), query) &&
			!strings.Contains(strings.ToLower(u.Email), query) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// Inbox lists everyone the signed-in account can message and, with
// ?with=email, the conversation with that account. Opening an empty
// conversation creates it.
func (h *ChatHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	me := emailOf(r)
	page := Page{Title: "Messages"}
	data := chatData{Me: me, Query: r.URL.Query().Get("q")}

	users, err := h.api.AllUsers(apiContext(r))
	if err != nil {
		h.logger.Warn("load chat contacts", "error", err)
		page.Error = api.ErrorMessage(err, "Failed to fetch contacts.")
	}
	data.Contacts = chatContacts(users, me, data.Query)
	data.Online = make(map[string]bool, len(data.Contacts))
	for _, u := range data.Contacts {
		data.Online[u.Email] = h.hub.Online(u.Email)
	}

	if with := r.URL.Query().Get("with"); with != "" && with != me {
		for i := range users {
			if users[i].Email == with {
				data.With = &users[i]
			}
		}
		if data.With != nil {
			data.Thread = h.thread(r, me, with, true)
		}
	}

	page.Data = data
	h.render.Page(w, r, "chat", page)
}

func (h *ChatHandler) thread(r *http.Request, me, with string, open bool) threadData {
	t := threadData{Me: me, With: with}
	ctx := apiContext(r)
	msgs, err := h.api.Messages(ctx, me, with)
	if err != nil {
		h.logger.Warn("load messages", "with", with, "error", err)
		t.Error = api.ErrorMessage(err, "Failed to fetch messages.")
		return t
	}
	if len(msgs) == 0 && open {
		if err := h.api.CreateConversation(ctx, me, with); err != nil {
			h.logger.Warn("create conversation", "with", with, "error", err)
		}
	}
	t.Messages = msgs
	return t
}

// Thread renders just the message list, for live refreshes.
func (h *ChatHandler) Thread(w http.ResponseWriter, r *http.Request) {
	with := r.URL.Query().Get("with")
	if with == "" {
		http.Error(w, "with is required", http.StatusBadRequest)
		return
	}
	h.render.Partial(w, "thread", h.thread(r, emailOf(r), with, false))
}

// Send posts a message and tells the receiver's open browsers to refresh.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	me := emailOf(r)
	with := formValue(r, "with")
	content := formValue(r, "content")
	if with == "" || content == "" {
		http.Error(w, "receiver and content are required", http.StatusBadRequest)
		return
	}

	if _, err := h.api.SendMessage(apiContext(r), me, with, content); err != nil {
		h.logger.Warn("send message", "to", with, "error", err)
		if r.Header.Get("HX-Request") == "true" {
			t := h.thread(r, me, with, false)
			t.Error = api.ErrorMessage(err, "Failed to send the message.")
			h.render.Partial(w, "thread", t)
			return
		}
		h.render.Flash(r, api.ErrorMessage(err, "Failed to send the message."))
	} else {
		h.hub.SendTo(with, websocket.NewMessage("message", "created", "", map[string]any{"from": me}))
	}

	if r.Header.Get("HX-Request") == "true" {
		h.render.Partial(w, "thread", h.thread(r, me, with, false))
		return
	}
	middleware.Redirect(w, r, "/chat?with="+url.QueryEscape(with))
}
