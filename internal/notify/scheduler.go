package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is how often the scheduler polls.
const DefaultInterval = 30 * time.Second

// Scheduler runs the reminder check and the daily gate on a fixed interval.
type Scheduler struct {
	mu        sync.RWMutex
	gate      *DailyGate
	reminders *Reminders
	interval  time.Duration
	loc       *time.Location
	now       func() time.Time
	logger    *slog.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewScheduler creates a scheduler. Checks run with wall-clock time in loc.
func NewScheduler(gate *DailyGate, reminders *Reminders, interval time.Duration, loc *time.Location, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		gate:      gate,
		reminders: reminders,
		interval:  interval,
		loc:       loc,
		now:       time.Now,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start begins the scheduler loop. One check runs immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.Tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
	s.logger.Info("scheduler started", "interval", s.interval)
}

// Stop cancels the loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Tick runs one reminder check and one daily gate check. It is also the
// foreground trigger.
func (s *Scheduler) Tick(ctx context.Context) Result {
	now := s.now().In(s.loc)
	var res Result
	if s.reminders != nil {
		res.Reminders = s.reminders.Check(ctx, now)
	}
	if s.gate != nil {
		if kind, ok := s.gate.Check(ctx, now); ok {
			res.Daily = kind
		}
	}
	if res.Reminders > 0 || res.Daily != "" {
		s.logger.Debug("tick", "reminders", res.Reminders, "daily", res.Daily)
	}
	return res
}
