package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Login exchanges credentials for an API token and the account profile.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var res LoginResult
	body := map[string]string{"email": email, "password": password}
	if _, err := c.do(ctx, http.MethodPost, "auth/login", nil, body, &res); err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, fmt.Errorf("login: response has no token")
	}
	return &res, nil
}

func (c *Client) Register(ctx context.Context, r Registration) error {
	_, err := c.do(ctx, http.MethodPost, "auth/register", nil, r, nil)
	return err
}

// GenerateOTP asks the API to text a one-time passcode to the account.
func (c *Client) GenerateOTP(ctx context.Context, email string) error {
	_, err := c.do(ctx, http.MethodPost, "auth/generate", nil, map[string]string{"email": email}, nil)
	return err
}

// VerifyOTP checks a passcode. On success it returns the response body with
// insignificant whitespace removed, keys and escapes untouched; that value is
// what the OTP gate compares.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	body := map[string]string{"email": email, "otpCode": code}
	raw, err := c.do(ctx, http.MethodPost, "auth/verify", nil, body, nil)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	if err := json.Compact(&out, raw); err != nil {
		return "", fmt.Errorf("decode verify response: %w", err)
	}
	return out.String(), nil
}

func (c *Client) UserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	if _, err := c.do(ctx, http.MethodGet, "auth/users", url.Values{"email": {email}}, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) AllUsers(ctx context.Context) ([]User, error) {
	var users []User
	if _, err := c.do(ctx, http.MethodGet, "auth/allusers", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// PendingUsers lists residents waiting for approval.
func (c *Client) PendingUsers(ctx context.Context) ([]User, error) {
	var res struct {
		Users []User `json:"users"`
	}
	if _, err := c.do(ctx, http.MethodGet, "auth/userpending", nil, nil, &res); err != nil {
		return nil, err
	}
	return res.Users, nil
}

func (c *Client) AcceptUser(ctx context.Context, id ID) error {
	_, err := c.do(ctx, http.MethodPost, "auth/acceptuser/"+url.PathEscape(id.String()), nil, nil, nil)
	return err
}

// RegisterAdmin creates an active Admin account.
func (c *Client) RegisterAdmin(ctx context.Context, r Registration) error {
	r.Role = "Admin"
	r.Status = "1"
	_, err := c.do(ctx, http.MethodPost, "auth/adminregister", nil, r, nil)
	return err
}

func (c *Client) DeleteUser(ctx context.Context, id ID) error {
	_, err := c.do(ctx, http.MethodDelete, "auth/deleteusers/"+url.PathEscape(id.String()), nil, nil, nil)
	return err
}

// Stats fetches the three dashboard counters.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var s Stats

	var total struct {
		UserCount int `json:"userCount"`
	}
	if _, err := c.do(ctx, http.MethodGet, "auth/usercount", nil, nil, &total); err != nil {
		return s, err
	}
	s.Registered = total.UserCount

	var recent struct {
		UserCountLast14Days int `json:"userCountLast14Days"`
	}
	if _, err := c.do(ctx, http.MethodGet, "auth/usercountNew", nil, nil, &recent); err != nil {
		return s, err
	}
	s.New = recent.UserCountLast14Days

	var pending struct {
		UserCountWithNullStatus int `json:"userCountWithNullStatus"`
	}
	if _, err := c.do(ctx, http.MethodGet, "auth/usercountpending", nil, nil, &pending); err != nil {
		return s, err
	}
	s.Pending = pending.UserCountWithNullStatus

	return s, nil
}

func (c *Client) Graph(ctx context.Context) ([]GraphPoint, error) {
	var points []GraphPoint
	if _, err := c.do(ctx, http.MethodGet, "auth/graph", nil, nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}
