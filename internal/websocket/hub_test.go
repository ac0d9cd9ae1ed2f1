package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/noveleno/portal/internal/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, email string, role session.Role) *Client {
	return &Client{
		hub:   hub,
		send:  make(chan []byte, sendBufferSize),
		email: email,
		role:  role,
	}
}

func received(t *testing.T, c *Client) (Message, bool) {
	t.Helper()
	select {
	case data := <-c.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return got, true
	case <-time.After(50 * time.Millisecond):
		return Message{}, false
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(testLogger())

	c1 := mockClient(hub, "a@b.ph", session.RoleUser)
	c2 := mockClient(hub, "c@b.ph", session.RoleAdmin)

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)
	hub.Unregister(c1)

	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}
	hub.Unregister(c2)
}

func TestBroadcastAlert(t *testing.T) {
	hub := NewHub(testLogger())

	c1 := mockClient(hub, "a@b.ph", session.RoleUser)
	c2 := mockClient(hub, "c@b.ph", session.RoleSuperadmin)
	hub.Register(c1)
	hub.Register(c2)
	defer hub.Unregister(c1)
	defer hub.Unregister(c2)

	hub.Broadcast(NewMessage("notification", "created", "42", map[string]any{"level": float64(3)}))

	for _, c := range []*Client{c1, c2} {
		got, ok := received(t, c)
		if !ok {
			t.Fatal("timeout waiting for message")
		}
		if got.Type != "notification_created" || got.ID != "42" {
			t.Errorf("message = %+v", got)
		}
		if got.Extra["level"] != float64(3) {
			t.Errorf("extra = %v", got.Extra)
		}
	}
}

func TestSendTo(t *testing.T) {
	hub := NewHub(testLogger())

	ana := mockClient(hub, "ana@b.ph", session.RoleUser)
	ben := mockClient(hub, "ben@b.ph", session.RoleUser)
	hub.Register(ana)
	hub.Register(ben)
	defer hub.Unregister(ana)
	defer hub.Unregister(ben)

	hub.SendTo("ben@b.ph", NewMessage("message", "created", "7", nil))

	if _, ok := received(t, ben); !ok {
		t.Error("receiver should get the message")
	}
	if _, ok := received(t, ana); ok {
		t.Error("other users should not get the message")
	}
}

func TestBroadcastStaff(t *testing.T) {
	hub := NewHub(testLogger())

	clients := map[session.Role]*Client{}
	for _, role := range session.Roles() {
		c := mockClient(hub, string(role)+"@b.ph", role)
		clients[role] = c
		hub.Register(c)
		defer hub.Unregister(c)
	}

	hub.BroadcastStaff(NewMessage("news", "pending", "", nil))

	for role, c := range clients {
		_, ok := received(t, c)
		if ok != role.IsStaff() {
			t.Errorf("role %q received = %v, want %v", role, ok, role.IsStaff())
		}
	}
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(testLogger())

	c := mockClient(hub, "a@b.ph", session.RoleUser)
	hub.Register(c)

	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast(NewMessage("test", "fill", "", nil))
	}

	// This should drop the message, not block.
	hub.Broadcast(NewMessage("test", "dropped", "", nil))

	if got := len(c.send); got != sendBufferSize {
		t.Errorf("expected %d buffered messages, got %d", sendBufferSize, got)
	}

	hub.Unregister(c)
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(testLogger())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub, "a@b.ph", session.RoleUser)
			hub.Register(c)
			hub.Broadcast(NewMessage("test", "concurrent", "", nil))
			hub.SendTo("a@b.ph", NewMessage("test", "direct", "", nil))
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}

	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}

func TestHandleWebSocketRequiresSession(t *testing.T) {
	hub := NewHub(testLogger())
	rec := httptest.NewRecorder()
	HandleWebSocket(hub, testLogger())(rec, httptest.NewRequest("GET", "/ws", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestOnlineTracksTabs(t *testing.T) {
	hub := NewHub(testLogger())

	tab1 := mockClient(hub, "ana@b.ph", session.RoleUser)
	tab2 := mockClient(hub, "ana@b.ph", session.RoleUser)
	hub.Register(tab1)
	hub.Register(tab2)

	if !hub.Online("ana@b.ph") {
		t.Fatal("ana should be online")
	}
	if hub.Online("ben@b.ph") {
		t.Error("ben never connected")
	}

	hub.SendTo("ana@b.ph", NewMessage("message", "created", "", nil))
	for _, c := range []*Client{tab1, tab2} {
		if _, ok := received(t, c); !ok {
			t.Error("every open tab should get the message")
		}
	}

	hub.Unregister(tab1)
	if !hub.Online("ana@b.ph") {
		t.Error("ana still has a tab open")
	}
	hub.Unregister(tab2)
	if hub.Online("ana@b.ph") {
		t.Error("ana closed every tab")
	}
	if got := hub.ClientCount(); got != 0 {
		t.Errorf("ClientCount = %d, want 0", got)
	}
}
