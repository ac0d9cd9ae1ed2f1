package api

import (
	"encoding/json"
	"strconv"
	"time"
)

// ID accepts both numeric and string identifiers; the API is not consistent.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Timestamp is a time the API sends as a string in one of a few layouts.
// Unparsable values decode to the zero time instead of failing the response.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

// Int returns the numeric form of id, or 0.
func (id ID) Int() int64 {
	n, _ := strconv.ParseInt(string(id), 10, 64)
	return n
}

// User is an account as the API returns it.
type User struct {
	ID            ID     `json:"id"`
	Email         string `json:"email"`
	Fullname      string `json:"fullname"`
	Role          string `json:"role"`
	Birthday      string `json:"birthday"`
	StreetNumber  string `json:"streetNumber"`
	StreetName    string `json:"streetName"`
	Barangay      string `json:"barangay"`
	ContactNumber string `json:"contactNumber"`
	Status        any    `json:"status,omitempty"`
}

// Registration is the body of auth/register and auth/adminregister.
type Registration struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	Fullname      string `json:"fullname"`
	Birthday      string `json:"birthday"`
	StreetNumber  string `json:"streetNumber"`
	StreetName    string `json:"streetName"`
	Barangay      string `json:"barangay"`
	ContactNumber string `json:"contactNumber"`
	Role          string `json:"role,omitempty"`
	Status        string `json:"status,omitempty"`
}

// Level is an alert level. The API stores what it is sent, so it may come
// back as a number or a numeric string.
type Level int

const (
	LevelPrepare Level = 1
	LevelRising  Level = 2
	LevelFlood   Level = 3
)

func (l *Level) UnmarshalJSON(b []byte) error {
	var id ID
	if err := id.UnmarshalJSON(b); err != nil {
		return err
	}
	*l = Level(id.Int())
	return nil
}

// Title names the level for display. Unknown levels read as critical.
func (l Level) Title() string {
	for _, a := range AlertLevels {
		if a.Level == l {
			return a.Title
		}
	}
	return "Critical Alert"
}

// AlertLevels are the alerts staff can send, lowest first.
var AlertLevels = []struct {
	Level       Level
	Title       string
	Description string
}{
	{LevelPrepare, "Be Prepared", "All users now assigned to prepare food, water, and documents in this level."},
	{LevelRising, "Rising Water", "On this level, residents need to have a safe place for their things as the water level continues to rise."},
	{LevelFlood, "High-Level Alert", "Notify the public that the water is now on the verge of the cliff and flooding is expected."},
}

// Notification is an alert shown in the bell menu.
type Notification struct {
	ID          ID        `json:"id"`
	UserID      ID        `json:"user_id"`
	Level       Level     `json:"level"`
	Description string    `json:"description"`
	Timestamp   Timestamp `json:"timestamp"`
}

type Contact struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	ContactNo string `json:"contact_no"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type EvacuationCenter struct {
	ID       ID      `json:"id"`
	Title    string  `json:"title"`
	Barangay string  `json:"barangay"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// MapPoint is one flood report marker on the dashboard map. CriticalLevel
// is "Low", "Medium" or "High".
type MapPoint struct {
	ID            ID      `json:"id,omitempty"`
	Barangay      string  `json:"barangay"`
	Description   string  `json:"description"`
	CriticalLevel string  `json:"criticalLevel"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
}

// NewsStatus 0 is pending approval, 1 is published.
type NewsStatus int

const (
	NewsPending   NewsStatus = 0
	NewsPublished NewsStatus = 1
)

type News struct {
	ID          ID         `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Barangay    string     `json:"barangay"`
	Email       string     `json:"email"`
	ImageURL    string     `json:"imageUrl"`
	Status      NewsStatus `json:"status"`
	ExpiresAt   string     `json:"expires_at"`
	CreatedAt   string     `json:"created_at,omitempty"`
}

type Message struct {
	ID            ID        `json:"id"`
	SenderEmail   string    `json:"senderEmail"`
	ReceiverEmail string    `json:"receiverEmail"`
	Content       string    `json:"content"`
	Timestamp     Timestamp `json:"timestamp"`
	CreatedAt     Timestamp `json:"createdAt"`
}

// Sent is when the message was sent, whichever field the API filled in.
func (m Message) Sent() time.Time {
	if m.Timestamp.IsZero() {
		return m.CreatedAt.Time
	}
	return m.Timestamp.Time
}

// Stats are the dashboard counters.
type Stats struct {
	Registered int
	New        int
	Pending    int
}

// GraphPoint is one bar of the registrations graph.
type GraphPoint struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}
