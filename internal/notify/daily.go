package notify

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/dukerupert/lifemate/internal/i18n"
	"github.com/dukerupert/lifemate/internal/kv"
	"github.com/dukerupert/lifemate/internal/model"
)

// MarketHour is the local hour from which the market nudge is due.
const MarketHour = 10

// DailyGate sends at most one morning and one market nudge per local date.
type DailyGate struct {
	kv    *kv.Store
	prefs Preferences
	send  *Dispatcher
	pick  func(n int) int
	mu    sync.Mutex
}

func NewDailyGate(kvs *kv.Store, prefs Preferences, send *Dispatcher) *DailyGate {
	return &DailyGate{kv: kvs, prefs: prefs, send: send, pick: rand.IntN}
}

// Check evaluates the gate at now, which should be in the user's local zone.
// At most one nudge is emitted per call; the kind sent is returned.
func (g *DailyGate) Check(ctx context.Context, now time.Time) (model.NotificationKind, bool) {
	if g.prefs.Permission() != model.PermissionGranted {
		return "", false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	today := now.Format(model.DateLayout)
	state := kv.Load(g.kv, kv.KeyDailyNotification, model.DailyNotificationState{})
	if state.Date != today {
		state = model.DailyNotificationState{Date: today}
	}

	var (
		kind model.NotificationKind
		pool []i18n.Content
	)
	switch {
	case now.Hour() >= MarketHour && !state.Status.MarketSent:
		kind, pool = model.KindMarket, i18n.MarketNotifications()
		state.Status.MarketSent = true
	case !state.Status.MorningSent:
		kind, pool = model.KindMorning, i18n.MorningNotifications()
		state.Status.MorningSent = true
	default:
		return "", false
	}

	lang, _ := g.prefs.Language()
	if len(pool) > 0 {
		c := pool[g.pick(len(pool))]
		g.send.Send(ctx, kind, c.Title.In(lang), c.Body.In(lang), string(kind))
	}
	kv.Save(g.kv, kv.KeyDailyNotification, state)
	return kind, true
}
