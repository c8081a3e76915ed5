package kv

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/dukerupert/lifemate/internal/database"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, slog.Default())
}

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestLoadMissingReturnsDefault(t *testing.T) {
	s := setupTestStore(t)

	got := Load(s, "missing", sample{Name: "default"})
	if got.Name != "default" {
		t.Errorf("Name = %q, want %q", got.Name, "default")
	}
}

func TestSaveThenLoad(t *testing.T) {
	s := setupTestStore(t)

	Save(s, "sample", sample{Name: "milk", Count: 3})
	got := Load(s, "sample", sample{})
	if got.Name != "milk" || got.Count != 3 {
		t.Errorf("got %+v, want {milk 3}", got)
	}

	Save(s, "sample", sample{Name: "bread", Count: 1})
	got = Load(s, "sample", sample{})
	if got.Name != "bread" {
		t.Errorf("Name after overwrite = %q, want %q", got.Name, "bread")
	}
}

func TestLoadCorruptReturnsDefault(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.db.Exec(`INSERT INTO kv_entries (key, value) VALUES ('broken', '{"name": 42')`); err != nil {
		t.Fatalf("insert corrupt row: %v", err)
	}

	got := Load(s, "broken", sample{Name: "fallback"})
	if got.Name != "fallback" {
		t.Errorf("Name = %q, want %q", got.Name, "fallback")
	}
}

func TestLoadWrongShapeReturnsDefault(t *testing.T) {
	s := setupTestStore(t)

	Save(s, "list", []string{"a", "b"})
	got := Load(s, "list", sample{Name: "fallback"})
	if got.Name != "fallback" {
		t.Errorf("Name = %q, want %q", got.Name, "fallback")
	}
}

func TestPutRejectsInvalidJSON(t *testing.T) {
	s := setupTestStore(t)

	if err := s.Put("k", []byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestUpgradesRunOnLoad(t *testing.T) {
	s := setupTestStore(t)

	// Written before any upgrade was registered: version 0.
	Save(s, "counter", sample{Name: "c", Count: 1})

	double := func(raw []byte) ([]byte, error) {
		var v sample
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		v.Count *= 2
		return json.Marshal(v)
	}
	s.Register("counter", double, double)

	got := Load(s, "counter", sample{})
	if got.Count != 4 {
		t.Errorf("Count = %d, want 4", got.Count)
	}

	var version int
	if err := s.db.QueryRow(`SELECT schema_version FROM kv_entries WHERE key = 'counter'`).Scan(&version); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if version != 2 {
		t.Errorf("stored version = %d, want 2", version)
	}

	// Upgrades are not applied twice.
	got = Load(s, "counter", sample{})
	if got.Count != 4 {
		t.Errorf("Count after second load = %d, want 4", got.Count)
	}
}

func TestFailedUpgradeReturnsDefault(t *testing.T) {
	s := setupTestStore(t)

	Save(s, "k", sample{Name: "old"})
	s.Register("k", func([]byte) ([]byte, error) { return nil, fmt.Errorf("boom") })

	got := Load(s, "k", sample{Name: "fallback"})
	if got.Name != "fallback" {
		t.Errorf("Name = %q, want %q", got.Name, "fallback")
	}
}

func TestEntriesAndRestore(t *testing.T) {
	s := setupTestStore(t)

	Save(s, "a", 1)
	Save(s, "b", "two")

	entries, err := s.Entries()
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if entries[0].Key != "a" || entries[1].Key != "b" {
		t.Errorf("keys = %q, %q; want a, b", entries[0].Key, entries[1].Key)
	}

	Save(s, "c", true)
	if err := s.Restore(entries); err != nil {
		t.Fatalf("restore: %v", err)
	}

	after, err := s.Entries()
	if err != nil {
		t.Fatalf("entries after restore: %v", err)
	}
	if len(after) != 2 {
		t.Errorf("len after restore = %d, want 2", len(after))
	}
	if got := Load(s, "b", ""); got != "two" {
		t.Errorf("b = %q, want %q", got, "two")
	}
}

func TestDelete(t *testing.T) {
	s := setupTestStore(t)

	Save(s, "gone", 1)
	if err := s.Delete("gone"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := Load(s, "gone", -1); got != -1 {
		t.Errorf("got %d after delete, want -1", got)
	}
	if err := s.Delete("gone"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}
