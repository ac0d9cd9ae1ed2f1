package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/noveleno/portal/internal/model"
)

// BrowserStore persists browser buckets. Cookie tokens are never stored;
// only their BLAKE2b-256 digest is.
type BrowserStore struct {
	db *sql.DB
}

func NewBrowserStore(db *sql.DB) *BrowserStore {
	return &BrowserStore{db: db}
}

func hashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func scanBrowser(scanner interface{ Scan(...any) error }) (*model.Browser, error) {
	var b model.Browser
	err := scanner.Scan(&b.ID, &b.ExpiresAt, &b.CreatedAt, &b.LastSeenAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

const browserCols = `id, expires_at, created_at, last_seen_at`

// Create registers a new browser with a crypto-random token valid for ttl.
// The returned Browser is the only place the plain token appears.
func (s *BrowserStore) Create(ttl time.Duration) (*model.Browser, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(tokenBytes)
	now := time.Now().UTC()

	result, err := s.db.Exec(
		`INSERT INTO browsers (token_hash, expires_at, created_at, last_seen_at) VALUES (?, ?, ?, ?)`,
		hashToken(token), now.Add(ttl), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert browser: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	b, err := scanBrowser(s.db.QueryRow(`SELECT `+browserCols+` FROM browsers WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get browser: %w", err)
	}
	b.Token = token
	return b, nil
}

// Lookup returns the browser for the given cookie token, or nil if it is
// unknown or expired.
func (s *BrowserStore) Lookup(token string) (*model.Browser, error) {
	if token == "" {
		return nil, nil
	}
	row := s.db.QueryRow(
		`SELECT `+browserCols+` FROM browsers WHERE token_hash = ? AND expires_at > ?`,
		hashToken(token), time.Now().UTC(),
	)
	b, err := scanBrowser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup browser: %w", err)
	}
	return b, nil
}

// Extend moves the expiry of a browser and records activity.
func (s *BrowserStore) Extend(id int64, expiresAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE browsers SET expires_at = ?, last_seen_at = ? WHERE id = ?`,
		expiresAt.UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("extend browser: %w", err)
	}
	return nil
}

func (s *BrowserStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM browsers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete browser: %w", err)
	}
	return nil
}

func (s *BrowserStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM browsers WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired browsers: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

// Bucket returns the key-value bucket of one browser.
func (s *BrowserStore) Bucket(browserID int64) *Bucket {
	return &Bucket{db: s.db, browserID: browserID}
}

// Bucket is the durable key-value storage of one browser.
type Bucket struct {
	db        *sql.DB
	browserID int64
}

func (b *Bucket) Get(key string) (string, bool, error) {
	var value string
	err := b.db.QueryRow(
		`SELECT value FROM browser_values WHERE browser_id = ? AND key = ?`,
		b.browserID, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (b *Bucket) Set(key, value string) error {
	_, err := b.db.Exec(
		`INSERT INTO browser_values (browser_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(browser_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		b.browserID, key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (b *Bucket) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, key := range keys {
		if _, err := tx.Exec(`DELETE FROM browser_values WHERE browser_id = ? AND key = ?`, b.browserID, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return tx.Commit()
}
