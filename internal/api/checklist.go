package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// ChecklistItems are the preparedness items every checklist tracks.
var ChecklistItems = []string{"Food", "Water", "PowerBank", "Clothes", "Flashlight", "Candles", "First Aid Kit"}

// Checklist loads the saved state of one checklist. A missing checklist is
// an empty map, not an error.
//
// The API stores the state as a JSON-encoded string which it encodes again
// on the way out, so checklistData may arrive wrapped once or twice.
func (c *Client) Checklist(ctx context.Context, email, checklistType string) (map[string]bool, error) {
	var res struct {
		ChecklistData json.RawMessage `json:"checklistData"`
	}
	q := url.Values{"email": {email}, "checklistType": {checklistType}}
	_, err := c.do(ctx, http.MethodGet, "checklist", q, nil, &res)
	if err != nil {
		if isNotFound(err) {
			return map[string]bool{}, nil
		}
		return nil, err
	}
	return decodeChecklist(res.ChecklistData)
}

func decodeChecklist(raw json.RawMessage) (map[string]bool, error) {
	items := map[string]bool{}
	data := []byte(raw)
	for range 3 {
		if len(data) == 0 || string(data) == "null" {
			return items, nil
		}
		if data[0] != '"' {
			if err := json.Unmarshal(data, &items); err != nil {
				return nil, fmt.Errorf("decode checklist: %w", err)
			}
			return items, nil
		}
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, fmt.Errorf("decode checklist: %w", err)
		}
		data = []byte(inner)
	}
	return nil, fmt.Errorf("decode checklist: too deeply encoded")
}

// SaveChecklist stores the full item map for one checklist.
func (c *Client) SaveChecklist(ctx context.Context, email, checklistType string, items map[string]bool) error {
	encoded, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode checklist: %w", err)
	}
	body := map[string]string{
		"email":         email,
		"checklistData": string(encoded),
		"checklistType": checklistType,
	}
	_, err = c.do(ctx, http.MethodPost, "checklist", nil, body, nil)
	return err
}
