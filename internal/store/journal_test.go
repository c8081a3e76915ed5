package store

import (
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/lifemate/internal/model"
)

func setupJournalStore(t *testing.T) *JournalStore {
	t.Helper()
	kvs, ids := setupTestKV(t)
	return NewJournalStore(kvs, ids, time.UTC)
}

func TestAddJournalEntry(t *testing.T) {
	s := setupJournalStore(t)

	first, err := s.Add("Pay electricity bill", "2026-05-01T09:30")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if first.ReminderFired {
		t.Error("new entry should start with reminder unfired")
	}
	second, _ := s.Add("Call mother", "")

	entries := s.List()
	if len(entries) != 2 || entries[0].ID != second.ID {
		t.Errorf("entries not newest first: %+v", entries)
	}

	if _, err := s.Add("   ", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty content err = %v, want ErrInvalidInput", err)
	}
	if _, err := s.Add("x", "tomorrow"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad reminder err = %v, want ErrInvalidInput", err)
	}
}

func TestDueRemindersAndMarkFired(t *testing.T) {
	s := setupJournalStore(t)

	past, _ := s.Add("past", "2026-05-01T09:30")
	exact, _ := s.Add("exact", "2026-05-01T10:00")
	s.Add("future", "2026-05-01T10:01")
	s.Add("none", "")

	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	due := s.DueReminders(now)
	if len(due) != 2 {
		t.Fatalf("due = %d, want 2", len(due))
	}
	ids := map[int64]bool{due[0].ID: true, due[1].ID: true}
	if !ids[past.ID] || !ids[exact.ID] {
		t.Errorf("due ids = %v, want past and exact", ids)
	}

	if !s.MarkFired(past.ID) {
		t.Error("first MarkFired should claim the reminder")
	}
	if s.MarkFired(past.ID) {
		t.Error("second MarkFired should report already fired")
	}
	if s.MarkFired(424242) {
		t.Error("MarkFired on missing entry should be false")
	}
	if n := len(s.DueReminders(now)); n != 1 {
		t.Errorf("due after fire = %d, want 1", n)
	}
}

func TestUpdateAndRemoveJournalEntry(t *testing.T) {
	s := setupJournalStore(t)
	e, _ := s.Add("draft", "")

	got, err := s.Update(e.ID, model.JournalPatch{Content: ptr(" final "), ReminderDateTime: ptr("2026-06-01T08:00")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Content != "final" || got.ReminderDateTime != "2026-06-01T08:00" {
		t.Errorf("updated = %+v", got)
	}
	if _, err := s.Update(999, model.JournalPatch{Content: ptr("x")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing err = %v, want ErrNotFound", err)
	}

	s.Remove(e.ID)
	s.Remove(e.ID)
	if n := len(s.List()); n != 0 {
		t.Errorf("entries = %d, want 0", n)
	}
}

func TestFiredReminderLifecycle(t *testing.T) {
	s := setupJournalStore(t)
	e, _ := s.Add("renew insurance", "2026-01-01T09:00")

	day1 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	if !s.MarkFired(e.ID) {
		t.Fatal("MarkFired should claim the reminder")
	}

	// Editing only the content leaves a fired reminder fired.
	if _, err := s.Update(e.ID, model.JournalPatch{Content: ptr("renew car insurance")}); err != nil {
		t.Fatalf("update content: %v", err)
	}
	if n := len(s.DueReminders(day1)); n != 0 {
		t.Errorf("due after content edit = %d, want 0", n)
	}

	// Re-sending the same time does not re-arm it either.
	if _, err := s.Update(e.ID, model.JournalPatch{ReminderDateTime: ptr("2026-01-01T09:00")}); err != nil {
		t.Fatalf("update same time: %v", err)
	}
	if n := len(s.DueReminders(day1)); n != 0 {
		t.Errorf("due after same-time edit = %d, want 0", n)
	}

	// A new time starts a new reminder that fires once.
	got, err := s.Update(e.ID, model.JournalPatch{ReminderDateTime: ptr("2026-01-02T09:00")})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if got.ReminderFired {
		t.Error("rescheduled reminder should be unfired")
	}
	day3 := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	if n := len(s.DueReminders(day3)); n != 1 {
		t.Fatalf("due after reschedule = %d, want 1", n)
	}
	if !s.MarkFired(e.ID) || s.MarkFired(e.ID) {
		t.Error("rescheduled reminder should be claimed exactly once")
	}
}
