package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message is a live update pushed to signed-in browsers. The browser turns
// it into a "live:<entity>" DOM event.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     string         `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

func NewMessage(entity, action, id string, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Hub tracks connected browsers by account. One account may have several
// tabs open, each its own Client.
type Hub struct {
	mu       sync.RWMutex
	accounts map[string]map[*Client]struct{}
	count    int
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		accounts: make(map[string]map[*Client]struct{}),
		logger:   logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	tabs, ok := h.accounts[c.email]
	if !ok {
		tabs = make(map[*Client]struct{})
		h.accounts[c.email] = tabs
	}
	if _, dup := tabs[c]; !dup {
		tabs[c] = struct{}{}
		h.count++
	}
}

// Unregister removes c and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	tabs := h.accounts[c.email]
	if _, ok := tabs[c]; !ok {
		return
	}
	delete(tabs, c)
	close(c.send)
	h.count--
	if len(tabs) == 0 {
		delete(h.accounts, c.email)
	}
}

// Broadcast sends msg to every connected browser.
func (h *Hub) Broadcast(msg Message) {
	h.deliver(msg, func(string) bool { return true }, nil)
}

// SendTo sends msg to the browsers signed in as email.
func (h *Hub) SendTo(email string, msg Message) {
	h.deliver(msg, func(account string) bool { return account == email }, nil)
}

// BroadcastStaff sends msg to Admin and Superadmin browsers.
func (h *Hub) BroadcastStaff(msg Message) {
	h.deliver(msg, nil, func(c *Client) bool { return c.role.IsStaff() })
}

// deliver queues msg for the clients of accounts passing account, then for
// clients passing client. A nil filter passes everything. Slow clients
// lose the message rather than block the sender.
func (h *Hub) deliver(msg Message, account func(string) bool, client func(*Client) bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal live update", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent, dropped := 0, 0
	for email, tabs := range h.accounts {
		if account != nil && !account(email) {
			continue
		}
		for c := range tabs {
			if client != nil && !client(c) {
				continue
			}
			select {
			case c.send <- data:
				sent++
			default:
				dropped++
			}
		}
	}
	if dropped > 0 {
		h.logger.Warn("dropped live update", "type", msg.Type, "sent", sent, "dropped", dropped)
	}
}

// Online reports whether email has at least one browser connected.
func (h *Hub) Online(email string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.accounts[email]) > 0
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}
