package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/lifemate/internal/i18n"
	"github.com/dukerupert/lifemate/internal/model"
)

// Journal is the part of the journal store the reminder check needs.
type Journal interface {
	DueReminders(now time.Time) []model.JournalEntry
	MarkFired(id int64) bool
}

// Reminders fires due journal reminders exactly once each.
type Reminders struct {
	journal Journal
	prefs   Preferences
	send    *Dispatcher
}

func NewReminders(journal Journal, prefs Preferences, send *Dispatcher) *Reminders {
	return &Reminders{journal: journal, prefs: prefs, send: send}
}

// Check sends every reminder due at now and returns how many fired.
func (r *Reminders) Check(ctx context.Context, now time.Time) int {
	if r.prefs.Permission() != model.PermissionGranted {
		return 0
	}

	lang, _ := r.prefs.Language()
	fired := 0
	for _, e := range r.journal.DueReminders(now) {
		// Claim first so a concurrent check cannot fire it again.
		if !r.journal.MarkFired(e.ID) {
			continue
		}
		r.send.Send(ctx, model.KindReminder, i18n.ReminderTitle.In(lang), e.Content, fmt.Sprintf("journal-%d", e.ID))
		fired++
	}
	return fired
}
