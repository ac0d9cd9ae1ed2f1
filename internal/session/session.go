// Package session holds the signed-in identity for one browser and the
// persisted markers that gate access to the rest of the site.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Keys in the browser bucket.
const (
	KeyAuth      = "auth"
	KeyToken     = "token"
	KeyOTPVerify = "otpverify"
)

// OTPVerifiedSentinel is the exact body the API returns after a successful
// passcode check. It is stored verbatim under KeyOTPVerify.
const OTPVerifiedSentinel = `{"message":"OTP verified successfully."}`

// Session is the profile stored under KeyAuth.
type Session struct {
	Email         string `json:"email"`
	Fullname      string `json:"fullname"`
	Role          Role   `json:"role"`
	Birthday      string `json:"birthday"`
	StreetNumber  string `json:"streetNumber"`
	StreetName    string `json:"streetName"`
	Barangay      string `json:"barangay"`
	ContactNumber string `json:"contactNumber"`
}

// Address formats the street address the way the pending-users table shows it.
func (s *Session) Address() string {
	street := strings.TrimSpace(s.StreetNumber + " " + s.StreetName)
	if s.Barangay == "" {
		return street
	}
	if street == "" {
		return s.Barangay
	}
	return street + ", " + s.Barangay
}

// KV is the durable per-browser storage a Store writes through.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(keys ...string) error
}

// ErrNoSession is returned by Set when given a nil session.
var ErrNoSession = errors.New("session: nil session")

// Store reads and writes the three session keys in one browser bucket.
type Store struct {
	kv KV
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Get returns the stored session, or nil if none is stored or the stored
// value does not decode. Only storage failures are returned as errors.
func (s *Store) Get() (*Session, error) {
	raw, ok, err := s.kv.Get(KeyAuth)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, nil
	}
	return &sess, nil
}

func (s *Store) Set(sess *Session) error {
	if sess == nil {
		return ErrNoSession
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.kv.Set(KeyAuth, string(data)); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Clear removes the session, the token and the OTP marker.
func (s *Store) Clear() error {
	if err := s.kv.Delete(KeyAuth, KeyToken, KeyOTPVerify); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Store) Token() (string, error) {
	tok, _, err := s.kv.Get(KeyToken)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return tok, nil
}

func (s *Store) SetToken(token string) error {
	if err := s.kv.Set(KeyToken, token); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// OTPMarker returns the raw value stored under KeyOTPVerify.
func (s *Store) OTPMarker() (string, error) {
	v, _, err := s.kv.Get(KeyOTPVerify)
	if err != nil {
		return "", fmt.Errorf("read otp marker: %w", err)
	}
	return v, nil
}

func (s *Store) SetOTPMarker(marker string) error {
	if err := s.kv.Set(KeyOTPVerify, marker); err != nil {
		return fmt.Errorf("write otp marker: %w", err)
	}
	return nil
}

// OTPVerified reports whether the stored marker equals OTPVerifiedSentinel.
func (s *Store) OTPVerified() (bool, error) {
	v, err := s.OTPMarker()
	if err != nil {
		return false, err
	}
	return v == OTPVerifiedSentinel, nil
}

// Value reads any other key in the bucket. Absent keys read as "".
func (s *Store) Value(key string) (string, error) {
	v, _, err := s.kv.Get(key)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}

func (s *Store) SetValue(key, value string) error {
	if err := s.kv.Set(key, value); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
