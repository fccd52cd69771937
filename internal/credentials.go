package internal

import (
	"database/sql"
	"errors"
	"time"
)

// CredentialStore keeps the access/refresh token pair
type CredentialStore struct {
	db   *sql.DB
	path string
}

// Load returns the stored pair, or ErrNoCredentials
func (c *CredentialStore) Load() (TokenPair, error) {
	var pair TokenPair
	err := c.db.QueryRow("SELECT access, refresh FROM credentials WHERE id = 1").Scan(&pair.Access, &pair.Refresh)
	if errors.Is(err, sql.ErrNoRows) {
		return TokenPair{}, ErrNoCredentials
	}
	if err != nil {
		return TokenPair{}, &StorageError{Path: c.path, Op: "read", Err: err}
	}
	if pair.Access == "" {
		return TokenPair{}, ErrNoCredentials
	}
	return pair, nil
}

// Save replaces the stored pair
func (c *CredentialStore) Save(pair TokenPair) error {
	_, err := c.db.Exec(`
		INSERT INTO credentials (id, access, refresh, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET access = excluded.access, refresh = excluded.refresh, updated_at = excluded.updated_at`,
		pair.Access, pair.Refresh, time.Now().Unix())
	if err != nil {
		return &StorageError{Path: c.path, Op: "write", Err: err}
	}
	return nil
}

// SetAccess stores a refreshed access token, keeping the refresh token
func (c *CredentialStore) SetAccess(access string) error {
	res, err := c.db.Exec("UPDATE credentials SET access = ?, updated_at = ? WHERE id = 1", access, time.Now().Unix())
	if err != nil {
		return &StorageError{Path: c.path, Op: "write", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoCredentials
	}
	return nil
}

// Clear forgets the login
func (c *CredentialStore) Clear() error {
	if _, err := c.db.Exec("DELETE FROM credentials"); err != nil {
		return &StorageError{Path: c.path, Op: "write", Err: err}
	}
	return nil
}
