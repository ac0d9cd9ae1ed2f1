package model

import "time"

// Browser is one cookie-identified browser. Its key-value bucket holds the
// session keys.
type Browser struct {
	ID         int64     `json:"id"`
	Token      string    `json:"-"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}
