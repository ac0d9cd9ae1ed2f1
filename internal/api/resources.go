package api

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"
)

// Notifications returns alerts, newest first.
func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	var res struct {
		Success bool           `json:"success"`
		Data    []Notification `json:"data"`
	}
	if _, err := c.do(ctx, http.MethodGet, "notifications", nil, nil, &res); err != nil {
		return nil, err
	}
	sort.SliceStable(res.Data, func(i, j int) bool {
		return res.Data[i].Timestamp.After(res.Data[j].Timestamp.Time)
	})
	return res.Data, nil
}

func (c *Client) PostNotification(ctx context.Context, userID ID, level Level, description string) error {
	body := map[string]any{
		"user_id":     userID,
		"level":       strconv.Itoa(int(level)),
		"description": description,
	}
	_, err := c.do(ctx, http.MethodPost, "notifications", nil, body, nil)
	return err
}

func (c *Client) Contacts(ctx context.Context) ([]Contact, error) {
	var contacts []Contact
	if _, err := c.do(ctx, http.MethodGet, "contacts", nil, nil, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

func (c *Client) CreateContact(ctx context.Context, name, number string) (*Contact, error) {
	var created Contact
	body := map[string]string{"name": name, "contact_no": number}
	if _, err := c.do(ctx, http.MethodPost, "contacts", nil, body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) DeleteContact(ctx context.Context, id ID) error {
	_, err := c.do(ctx, http.MethodDelete, "contacts/"+url.PathEscape(id.String()), nil, nil, nil)
	return err
}

func (c *Client) EvacuationCenters(ctx context.Context) ([]EvacuationCenter, error) {
	var centers []EvacuationCenter
	if _, err := c.do(ctx, http.MethodGet, "evacuation", nil, nil, &centers); err != nil {
		return nil, err
	}
	return centers, nil
}

func (c *Client) CreateEvacuationCenter(ctx context.Context, title, barangay string, at LatLng) (*EvacuationCenter, error) {
	var created EvacuationCenter
	body := map[string]any{"title": title, "barangay": barangay, "coordinates": at}
	if _, err := c.do(ctx, http.MethodPost, "evacuation", nil, body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) DeleteEvacuationCenter(ctx context.Context, id ID) error {
	_, err := c.do(ctx, http.MethodDelete, "evacuation/"+url.PathEscape(id.String()), nil, nil, nil)
	return err
}

func (c *Client) MapData(ctx context.Context) ([]MapPoint, error) {
	var points []MapPoint
	if _, err := c.do(ctx, http.MethodGet, "mapdata", nil, nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// CreateMapPoint adds a flood report marker.
func (c *Client) CreateMapPoint(ctx context.Context, p MapPoint) error {
	_, err := c.do(ctx, http.MethodPost, "mapdata", nil, p, nil)
	return err
}

func (c *Client) DeleteMapPoint(ctx context.Context, id ID) error {
	_, err := c.do(ctx, http.MethodDelete, "mapdata/"+url.PathEscape(id.String()), nil, nil, nil)
	return err
}

func (c *Client) News(ctx context.Context) ([]News, error) {
	var items []News
	if _, err := c.do(ctx, http.MethodGet, "news", nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// PostNews submits a story. Staff posts are published directly; resident
// reports are posted as pending and wait for approval.
func (c *Client) PostNews(ctx context.Context, n News) error {
	_, err := c.do(ctx, http.MethodPost, "news", nil, n, nil)
	return err
}

func (c *Client) PendingNews(ctx context.Context) ([]News, error) {
	var items []News
	if _, err := c.do(ctx, http.MethodGet, "pending", nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) ApproveNews(ctx context.Context, id ID) error {
	_, err := c.do(ctx, http.MethodPut, "approve/"+url.PathEscape(id.String()), nil, nil, nil)
	return err
}

// Messages returns the conversation between two accounts.
func (c *Client) Messages(ctx context.Context, sender, receiver string) ([]Message, error) {
	var msgs []Message
	q := url.Values{"senderEmail": {sender}, "receiverEmail": {receiver}}
	if _, err := c.do(ctx, http.MethodGet, "messages", q, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *Client) CreateConversation(ctx context.Context, sender, receiver string) error {
	body := map[string]string{"senderEmail": sender, "receiverEmail": receiver}
	_, err := c.do(ctx, http.MethodPost, "conversations", nil, body, nil)
	return err
}

func (c *Client) SendMessage(ctx context.Context, sender, receiver, content string) (*Message, error) {
	var m Message
	body := map[string]string{"senderEmail": sender, "receiverEmail": receiver, "content": content}
	if _, err := c.do(ctx, http.MethodPost, "messages", nil, body, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
