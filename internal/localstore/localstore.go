// Package localstore is the device-local cache behind the CLI client: a
// small sqlite-backed key-value store holding JSON blobs per collection.
// It plays the role a browser's local storage plays for the web client;
// library writes land here first and sync to the server afterwards.
package localstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/glebarez/go-sqlite"
)

// Store is a sqlite-backed key-value store. Values are opaque blobs; the
// callers serialize whole collections as JSON.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store file.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open device store: %w", err)
	}
	// Single-writer local file; concurrent connections just contend.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init device store: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the blob under key. Missing keys report ok=false, not an error.
func (s *Store) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("device store read %s: %w", key, err)
	}
	return value, true, nil
}

// Put writes a blob, replacing any existing value.
func (s *Store) Put(key string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("device store write %s: %w", key, err)
	}
	return nil
}

// Delete removes a key; removing an absent key is a no-op.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("device store delete %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying file.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetJSON decodes the blob under key into out. A missing key leaves out
// untouched and reports ok=false.
func (s *Store) GetJSON(key string, out interface{}) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("device store decode %s: %w", key, err)
	}
	return true, nil
}

// PutJSON encodes v and writes it under key.
func (s *Store) PutJSON(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("device store encode %s: %w", key, err)
	}
	return s.Put(key, raw)
}
