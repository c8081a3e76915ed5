package model

import "time"

// ReminderLayout is the local wall-clock format of JournalEntry.ReminderDateTime.
const ReminderLayout = "2006-01-02T15:04"

type JournalEntry struct {
	ID               int64     `json:"id"`
	CreatedAt        time.Time `json:"createdAt"`
	Content          string    `json:"content"`
	ReminderDateTime string    `json:"reminderDateTime,omitempty"`
	ReminderFired    bool      `json:"reminderFired"`
}

// ReminderAt parses ReminderDateTime in loc. Full RFC 3339 timestamps are
// accepted too. ok is false when there is no usable reminder.
func (e JournalEntry) ReminderAt(loc *time.Location) (at time.Time, ok bool) {
	if e.ReminderDateTime == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation(ReminderLayout, e.ReminderDateTime, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, e.ReminderDateTime); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// JournalPatch holds the editable fields of an entry. The fired flag is
// owned by the reminder check and cannot be patched.
type JournalPatch struct {
	Content          *string `json:"content,omitempty"`
	ReminderDateTime *string `json:"reminderDateTime,omitempty"`
}
