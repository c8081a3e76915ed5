package model

import "time"

type NotificationPermission string

const (
	PermissionGranted NotificationPermission = "granted"
	PermissionDenied  NotificationPermission = "denied"
	PermissionDefault NotificationPermission = "default"
)

func (p NotificationPermission) Valid() bool {
	switch p {
	case PermissionGranted, PermissionDenied, PermissionDefault:
		return true
	}
	return false
}

type DailyNotificationStatus struct {
	MorningSent bool `json:"morningSent"`
	MarketSent  bool `json:"marketSent"`
}

// DailyNotificationState is the persisted day-part gate. Date is the local
// calendar day the flags belong to.
type DailyNotificationState struct {
	Date   string                  `json:"date"`
	Status DailyNotificationStatus `json:"status"`
}

type PushSubscription struct {
	ID         int64     `json:"id"`
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"p256dh"`
	AuthKey    string    `json:"auth"`
	DeviceName string    `json:"deviceName"`
	CreatedAt  time.Time `json:"createdAt"`
}

type NotificationKind string

const (
	KindMorning  NotificationKind = "morning"
	KindMarket   NotificationKind = "market"
	KindReminder NotificationKind = "reminder"
)

// Notification is one emitted alert.
type Notification struct {
	ID     string           `json:"id"`
	Kind   NotificationKind `json:"kind"`
	Title  string           `json:"title"`
	Body   string           `json:"body"`
	Tag    string           `json:"tag,omitempty"`
	SentAt time.Time        `json:"sentAt"`
}
