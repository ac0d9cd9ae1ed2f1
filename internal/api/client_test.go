package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/api/", WithHTTPClient(server.Client()))
}

func TestLogin(t *testing.T) {
	var got map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"token":"tok","user":{"id":7,"email":"a@b.ph","role":"Admin"}}`))
	})

	res, err := c.Login(context.Background(), "a@b.ph", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got["email"] != "a@b.ph" || got["password"] != "secret" {
		t.Errorf("body = %v", got)
	}
	if res.Token != "tok" {
		t.Errorf("Token = %q, want tok", res.Token)
	}
	if res.User.ID != "7" || res.User.Role != "Admin" {
		t.Errorf("User = %+v", res.User)
	}
}

func TestLoginWithoutToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user":{}}`))
	})
	if _, err := c.Login(context.Background(), "a@b.ph", "x"); err == nil {
		t.Fatal("expected error when response has no token")
	}
}

func TestErrorMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid credentials"}`))
	})

	_, err := c.Login(context.Background(), "a@b.ph", "bad")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("Status = %d", apiErr.Status)
	}
	if msg := ErrorMessage(err, "fallback"); msg != "Invalid credentials" {
		t.Errorf("Message = %q", msg)
	}
	if msg := ErrorMessage(errors.New("boom"), "fallback"); msg != "fallback" {
		t.Errorf("Message for plain error = %q", msg)
	}
}

func TestNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	_, err := c.UserByEmail(context.Background(), "nobody@b.ph")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestBearerToken(t *testing.T) {
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	})

	ctx := WithToken(context.Background(), "abc")
	if _, err := c.Contacts(ctx); err != nil {
		t.Fatalf("contacts: %v", err)
	}
	if auth != "Bearer abc" {
		t.Errorf("Authorization = %q", auth)
	}

	if _, err := c.Contacts(WithToken(context.Background(), "")); err != nil {
		t.Fatalf("contacts: %v", err)
	}
	if auth != "" {
		t.Errorf("Authorization = %q, want none for empty token", auth)
	}
}

func TestVerifyOTPReturnsCompactBody(t *testing.T) {
	var got map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte("{ \"message\" : \"OTP verified successfully.\" }\n"))
	})

	body, err := c.VerifyOTP(context.Background(), "a@b.ph", "123456")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if body != `{"message":"OTP verified successfully."}` {
		t.Errorf("body = %q", body)
	}
	if got["otpCode"] != "123456" || got["email"] != "a@b.ph" {
		t.Errorf("request body = %v", got)
	}
}

func TestVerifyOTPKeepsBodyVerbatim(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{\n  \"message\": \"ok <b> & done\",\n  \"email\": \"a@b.ph\"\n}"))
	})

	body, err := c.VerifyOTP(context.Background(), "a@b.ph", "123456")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if want := `{"message":"ok <b> & done","email":"a@b.ph"}`; body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestPendingUsers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"users":[{"id":"u1","email":"x@b.ph"},{"id":2,"email":"y@b.ph"}]}`))
	})
	users, err := c.PendingUsers(context.Background())
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(users) != 2 || users[0].ID != "u1" || users[1].ID.Int() != 2 {
		t.Errorf("users = %+v", users)
	}
}

func TestRegisterAdminSetsRoleAndStatus(t *testing.T) {
	var got Registration
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/adminregister" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
	})
	if err := c.RegisterAdmin(context.Background(), Registration{Email: "adm@b.ph"}); err != nil {
		t.Fatalf("register admin: %v", err)
	}
	if got.Role != "Admin" || got.Status != "1" {
		t.Errorf("role/status = %q/%q", got.Role, got.Status)
	}
}

func TestStats(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/usercount":
			w.Write([]byte(`{"userCount":40}`))
		case "/api/auth/usercountNew":
			w.Write([]byte(`{"userCountLast14Days":5}`))
		case "/api/auth/usercountpending":
			w.Write([]byte(`{"userCountWithNullStatus":3}`))
		default:
			http.NotFound(w, r)
		}
	})
	s, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if s != (Stats{Registered: 40, New: 5, Pending: 3}) {
		t.Errorf("stats = %+v", s)
	}
}

func TestNotificationsNewestFirst(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":[
			{"id":1,"level":1,"description":"old","timestamp":"2024-06-01T08:00:00.000Z"},
			{"id":2,"level":3,"description":"new","timestamp":"2024-06-03T08:00:00.000Z"},
			{"id":3,"level":2,"description":"bad","timestamp":"not a time"}
		]}`))
	})
	got, err := c.Notifications(context.Background())
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Description != "new" || got[1].Description != "old" {
		t.Errorf("order = %q, %q, %q", got[0].Description, got[1].Description, got[2].Description)
	}
	if !got[2].Timestamp.IsZero() {
		t.Errorf("unparsable timestamp = %v, want zero", got[2].Timestamp)
	}
}

func TestDeleteContactPath(t *testing.T) {
	var method, path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
	})
	if err := c.DeleteContact(context.Background(), "12"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if method != http.MethodDelete || path != "/api/contacts/12" {
		t.Errorf("request = %s %s", method, path)
	}
}

func TestMessagesQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("senderEmail") != "a@b.ph" || q.Get("receiverEmail") != "c+d@b.ph" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`[{"id":1,"senderEmail":"a@b.ph","receiverEmail":"c+d@b.ph","content":"hi"}]`))
	})
	msgs, err := c.Messages(context.Background(), "a@b.ph", "c+d@b.ph")
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "hi" {
		t.Errorf("msgs = %+v", msgs)
	}
}

func TestChecklistDoubleEncoded(t *testing.T) {
	tests := []struct {
		name string
		body string
		want map[string]bool
	}{
		{"twice", `{"checklistData":"\"{\\\"Food\\\":true,\\\"Water\\\":false}\""}`, map[string]bool{"Food": true, "Water": false}},
		{"once", `{"checklistData":"{\"Food\":true}"}`, map[string]bool{"Food": true}},
		{"object", `{"checklistData":{"Candles":true}}`, map[string]bool{"Candles": true}},
		{"empty", `{}`, map[string]bool{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			got, err := c.Checklist(context.Background(), "a@b.ph", "Flood")
			if err != nil {
				t.Fatalf("checklist: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestChecklistMissing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	got, err := c.Checklist(context.Background(), "a@b.ph", "Typhoon")
	if err != nil {
		t.Fatalf("checklist: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestSaveChecklist(t *testing.T) {
	var raw []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ = io.ReadAll(r.Body)
	})
	if err := c.SaveChecklist(context.Background(), "a@b.ph", "Flood", map[string]bool{"Food": true}); err != nil {
		t.Fatalf("save: %v", err)
	}
	var body map[string]string
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["checklistData"] != `{"Food":true}` || body["checklistType"] != "Flood" {
		t.Errorf("body = %v", body)
	}
}

func TestPostNotificationSendsLevelAsString(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	})
	if err := c.PostNotification(context.Background(), "9", LevelFlood, "Evacuate now"); err != nil {
		t.Fatalf("post: %v", err)
	}
	if got["level"] != "3" || got["user_id"] != "9" || got["description"] != "Evacuate now" {
		t.Errorf("body = %v", got)
	}
}

func TestLevelDecodesNumberOrString(t *testing.T) {
	var n []Notification
	if err := json.Unmarshal([]byte(`[{"level":2},{"level":"3"}]`), &n); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if n[0].Level != LevelRising || n[1].Level != LevelFlood {
		t.Errorf("levels = %d, %d", n[0].Level, n[1].Level)
	}
	if LevelFlood.Title() != "High-Level Alert" || Level(9).Title() != "Critical Alert" {
		t.Errorf("titles = %q, %q", LevelFlood.Title(), Level(9).Title())
	}
}

func TestCreateEvacuationCenterSendsCoordinates(t *testing.T) {
	var got struct {
		Title       string `json:"title"`
		Coordinates LatLng `json:"coordinates"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"id":5,"title":"San Rafael Gym","lat":14.43,"lng":120.88}`))
	})
	center, err := c.CreateEvacuationCenter(context.Background(), "San Rafael Gym", "San Rafael I", LatLng{Lat: 14.43, Lng: 120.88})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.Coordinates.Lat != 14.43 || got.Title != "San Rafael Gym" {
		t.Errorf("body = %+v", got)
	}
	if center.ID != "5" {
		t.Errorf("center = %+v", center)
	}
}
