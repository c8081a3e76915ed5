package kv

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Upgrade rewrites a stored document from one schema version to the next.
type Upgrade func(raw []byte) ([]byte, error)

// Entry is one persisted key with its raw JSON document.
type Entry struct {
	Key           string          `json:"key"`
	Value         json.RawMessage `json:"value"`
	SchemaVersion int             `json:"schemaVersion"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Store keeps one JSON document per key in the kv_entries table.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	mu       sync.RWMutex
	upgrades map[string][]Upgrade
}

func New(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		db:       db,
		logger:   logger.With("component", "kv"),
		upgrades: make(map[string][]Upgrade),
	}
}

// Register sets the upgrade chain for key. The current schema version of the
// key is the number of registered upgrades; upgrade i moves a document from
// version i to version i+1.
func (s *Store) Register(key string, upgrades ...Upgrade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upgrades[key] = upgrades
}

// Version returns the schema version new writes of key are tagged with.
func (s *Store) Version(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.upgrades[key])
}

// Get returns the raw document for key, upgraded to the current schema
// version. found is false when the key has never been written.
func (s *Store) Get(key string) (raw []byte, found bool, err error) {
	var (
		value   string
		version int
	)
	err = s.db.QueryRow(`SELECT value, schema_version FROM kv_entries WHERE key = ?`, key).Scan(&value, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}

	raw = []byte(value)
	s.mu.RLock()
	chain := s.upgrades[key]
	s.mu.RUnlock()
	if version >= len(chain) {
		return raw, true, nil
	}

	for i := version; i < len(chain); i++ {
		raw, err = chain[i](raw)
		if err != nil {
			return nil, true, fmt.Errorf("upgrade %q from version %d: %w", key, i, err)
		}
	}
	if err := s.put(key, raw, len(chain)); err != nil {
		return nil, true, err
	}
	s.logger.Info("upgraded stored document", "key", key, "from", version, "to", len(chain))
	return raw, true, nil
}

// Put writes raw under key, tagged with the key's current schema version.
func (s *Store) Put(key string, raw []byte) error {
	if !json.Valid(raw) {
		return fmt.Errorf("put %q: value is not valid JSON", key)
	}
	return s.put(key, raw, s.Version(key))
}

func (s *Store) put(key string, raw []byte, version int) error {
	_, err := s.db.Exec(
		`INSERT INTO kv_entries (key, value, schema_version, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, schema_version = excluded.schema_version, updated_at = excluded.updated_at`,
		key, string(raw), version, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Entries returns every stored document ordered by key, as stored.
func (s *Store) Entries() ([]Entry, error) {
	rows, err := s.db.Query(`SELECT key, value, schema_version, updated_at FROM kv_entries ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e     Entry
			value string
		)
		if err := rows.Scan(&e.Key, &value, &e.SchemaVersion, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Value = json.RawMessage(value)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Restore replaces the whole key space with entries in one transaction.
func (s *Store) Restore(entries []Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin restore: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM kv_entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	for _, e := range entries {
		_, err := tx.Exec(
			`INSERT INTO kv_entries (key, value, schema_version, updated_at) VALUES (?, ?, ?, ?)`,
			e.Key, string(e.Value), e.SchemaVersion, e.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("restore %q: %w", e.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit restore: %w", err)
	}
	return nil
}

// Load decodes the document stored under key into a T. A missing, corrupt or
// unreadable entry yields def; failures are logged, never returned.
func Load[T any](s *Store, key string, def T) T {
	raw, found, err := s.Get(key)
	if err != nil {
		s.logger.Error("load failed, using default", "key", key, "error", err)
		return def
	}
	if !found {
		return def
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.logger.Error("corrupt entry, using default", "key", key, "error", err)
		return def
	}
	return v
}

// Save encodes v and stores it under key. Failures are logged, never returned.
func Save[T any](s *Store, key string, v T) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode failed, value not saved", "key", key, "error", err)
		return
	}
	if err := s.Put(key, raw); err != nil {
		s.logger.Error("save failed", "key", key, "error", err)
	}
}
