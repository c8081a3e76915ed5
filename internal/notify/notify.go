// Package notify decides when the daily nudges and journal reminders fire and
// hands them to the delivery channels.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/lifemate/internal/i18n"
	"github.com/dukerupert/lifemate/internal/model"
)

// Notifier delivers a notification on one channel.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n model.Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n model.Notification) error {
	return f(ctx, n)
}

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n model.Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps a history of emitted notifications.
type Recorder interface {
	Record(n model.Notification) error
}

// Preferences supplies the user's language and notification permission.
type Preferences interface {
	Language() (i18n.LanguageCode, bool)
	Permission() model.NotificationPermission
}

// Dispatcher stamps notifications, records them and fans them out.
// Delivery failures are logged and never retried.
type Dispatcher struct {
	notifier Notifier
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

func NewDispatcher(notifier Notifier, recorder Recorder, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		recorder: recorder,
		logger:   logger.With("component", "notify"),
		now:      time.Now,
	}
}

// Send emits one notification and returns it as recorded.
func (d *Dispatcher) Send(ctx context.Context, kind model.NotificationKind, title, body, tag string) model.Notification {
	n := model.Notification{
		ID:     uuid.NewString(),
		Kind:   kind,
		Title:  title,
		Body:   body,
		Tag:    tag,
		SentAt: d.now().UTC(),
	}

	if d.recorder != nil {
		if err := d.recorder.Record(n); err != nil {
			d.logger.Error("record notification", "kind", kind, "error", err)
		}
	}
	if d.notifier != nil {
		if err := d.notifier.Notify(ctx, n); err != nil {
			d.logger.Warn("deliver notification", "kind", kind, "tag", tag, "error", err)
		}
	}
	d.logger.Info("notification sent", "kind", kind, "id", n.ID)
	return n
}

// Result reports what one scheduler tick emitted.
type Result struct {
	Reminders int                    `json:"reminders"`
	Daily     model.NotificationKind `json:"daily,omitempty"`
}
