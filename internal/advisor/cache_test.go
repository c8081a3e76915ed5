package advisor

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCacheEvictsExpiredEntriesOnWrite(t *testing.T) {
	c := newCache(time.Hour)
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	fetch := func(v string) func(context.Context) (string, error) {
		return func(context.Context) (string, error) { return v, nil }
	}
	ctx := context.Background()

	c.get(ctx, "remedy:cough", false, fetch("honey"))
	c.get(ctx, "weather:28.6,77.2", true, fetch("sunny"))
	if n := c.len(); n != 2 {
		t.Fatalf("entries = %d, want 2", n)
	}

	// Past the ttl the remedy goes; the weather is kept for stale fallback.
	now = now.Add(2 * time.Hour)
	c.get(ctx, "remedy:fever", false, fetch("rest"))
	if _, ok := c.peek("remedy:cough"); ok {
		t.Error("expired remedy still cached")
	}
	if _, ok := c.peek("weather:28.6,77.2"); !ok {
		t.Error("weather dropped before its stale limit")
	}

	// Past the stale limit the weather goes too.
	now = now.Add(staleLimit)
	c.get(ctx, "remedy:cold", false, fetch("tea"))
	if _, ok := c.peek("weather:28.6,77.2"); ok {
		t.Error("weather kept past its stale limit")
	}
	if n := c.len(); n != 1 {
		t.Errorf("entries = %d, want 1", n)
	}
}

func TestCacheFailedFetchIsNotStored(t *testing.T) {
	c := newCache(time.Hour)
	_, err := c.get(context.Background(), "k", false, func(context.Context) (string, error) {
		return "", errors.New("offline")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if n := c.len(); n != 0 {
		t.Errorf("entries = %d, want 0", n)
	}
}
