package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/lifemate/internal/idgen"
	"github.com/dukerupert/lifemate/internal/kv"
	"github.com/dukerupert/lifemate/internal/model"
)

type JournalStore struct {
	kv  *kv.Store
	ids *idgen.Generator
	loc *time.Location
	mu  sync.Mutex
}

// NewJournalStore returns a journal store. Reminder times are wall-clock
// times in loc.
func NewJournalStore(kvs *kv.Store, ids *idgen.Generator, loc *time.Location) *JournalStore {
	if loc == nil {
		loc = time.Local
	}
	s := &JournalStore{kv: kvs, ids: ids, loc: loc}
	for _, e := range s.load() {
		ids.Observe(e.ID)
	}
	return s
}

func (s *JournalStore) load() []model.JournalEntry {
	return kv.Load(s.kv, kv.KeyJournalEntries, []model.JournalEntry{})
}

func (s *JournalStore) save(entries []model.JournalEntry) {
	kv.Save(s.kv, kv.KeyJournalEntries, entries)
}

// List returns entries newest first.
func (s *JournalStore) List() []model.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *JournalStore) validReminder(v string) bool {
	if v == "" {
		return true
	}
	_, ok := model.JournalEntry{ReminderDateTime: v}.ReminderAt(s.loc)
	return ok
}

// Add records a new entry. reminder is optional; when set it uses
// model.ReminderLayout and the entry starts with its reminder unfired.
func (s *JournalStore) Add(content, reminder string) (model.JournalEntry, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.JournalEntry{}, ErrInvalidInput
	}
	if !s.validReminder(reminder) {
		return model.JournalEntry{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := model.JournalEntry{
		ID:               s.ids.Next(),
		CreatedAt:        time.Now().UTC(),
		Content:          content,
		ReminderDateTime: reminder,
		ReminderFired:    false,
	}
	entries := append([]model.JournalEntry{e}, s.load()...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	s.save(entries)
	return e, nil
}

// Update merges patch into the entry. A changed reminder time arms the new
// reminder.
func (s *JournalStore) Update(id int64, patch model.JournalPatch) (model.JournalEntry, error) {
	if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
		return model.JournalEntry{}, ErrInvalidInput
	}
	if patch.ReminderDateTime != nil && !s.validReminder(*patch.ReminderDateTime) {
		return model.JournalEntry{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	for i := range entries {
		if entries[i].ID != id {
			continue
		}
		if patch.Content != nil {
			entries[i].Content = strings.TrimSpace(*patch.Content)
		}
		if patch.ReminderDateTime != nil && *patch.ReminderDateTime != entries[i].ReminderDateTime {
			entries[i].ReminderDateTime = *patch.ReminderDateTime
			entries[i].ReminderFired = false
		}
		s.save(entries)
		return entries[i], nil
	}
	return model.JournalEntry{}, ErrNotFound
}

// Remove deletes the entry. Removing a missing entry does nothing.
func (s *JournalStore) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) != len(entries) {
		s.save(kept)
	}
}

// DueReminders returns entries whose reminder time is at or before now and
// has not fired yet.
func (s *JournalStore) DueReminders(now time.Time) []model.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []model.JournalEntry
	for _, e := range s.load() {
		if e.ReminderFired {
			continue
		}
		at, ok := e.ReminderAt(s.loc)
		if ok && !now.Before(at) {
			due = append(due, e)
		}
	}
	return due
}

// MarkFired flags the entry's reminder as fired. It reports false when the
// entry is missing or was already fired, so a reminder is claimed once.
func (s *JournalStore) MarkFired(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	for i := range entries {
		if entries[i].ID == id {
			if entries[i].ReminderFired {
				return false
			}
			entries[i].ReminderFired = true
			s.save(entries)
			return true
		}
	}
	return false
}
