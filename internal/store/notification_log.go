package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/lifemate/internal/model"
)

// NotificationLogStore records every notification that was emitted.
type NotificationLogStore struct {
	db *sql.DB
}

func NewNotificationLogStore(db *sql.DB) *NotificationLogStore {
	return &NotificationLogStore{db: db}
}

const notificationColumns = `id, kind, title, body, tag, sent_at`

func scanNotification(scanner interface{ Scan(...any) error }) (*model.Notification, error) {
	var n model.Notification
	err := scanner.Scan(&n.ID, &n.Kind, &n.Title, &n.Body, &n.Tag, &n.SentAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *NotificationLogStore) Record(n model.Notification) error {
	_, err := s.db.Exec(
		`INSERT INTO notification_log (`+notificationColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.Kind, n.Title, n.Body, n.Tag, n.SentAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record notification: %w", err)
	}
	return nil
}

// Recent returns up to limit notifications, newest first.
func (s *NotificationLogStore) Recent(limit int) ([]model.Notification, error) {
	rows, err := s.db.Query(
		`SELECT `+notificationColumns+` FROM notification_log ORDER BY sent_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// Prune deletes notifications sent before cutoff.
func (s *NotificationLogStore) Prune(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM notification_log WHERE sent_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune notifications: %w", err)
	}
	return res.RowsAffected()
}
