package store

import (
	"log/slog"
	"testing"

	"github.com/dukerupert/lifemate/internal/database"
	"github.com/dukerupert/lifemate/internal/idgen"
	"github.com/dukerupert/lifemate/internal/kv"
)

func setupTestKV(t *testing.T) (*kv.Store, *idgen.Generator) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return kv.New(db, slog.Default()), idgen.New()
}

func ptr[T any](v T) *T { return &v }
