package kv

// Keys of the persisted collections. The names match the layout the web
// client has always used, so existing exports load unchanged.
const (
	KeyLanguage           = "app-language"
	KeyProducts           = "app-products"
	KeyShoppingLists      = "app-shopping-lists"
	KeyMilkVendors        = "app-milk-vendor-lists"
	KeyJournalEntries     = "app-journal-entries"
	KeyNotificationPerm   = "app-notification-permission"
	KeyAttendanceRecords  = "app-attendance-records"
	KeyAttendanceSettings = "app-attendance-settings"
	KeyAttendanceHistory  = "app-attendance-history"
	KeyPushSubscriptions  = "app-push-subscriptions"
	KeyDailyNotification  = "dailyNotificationStatus"
)
