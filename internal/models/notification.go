package models

import "time"

// NotificationType categorises entries in an account's notification log.
type NotificationType string

const (
	NotificationDaily   NotificationType = "daily"
	NotificationPremium NotificationType = "premium_reminder"
)

// Route is the screen the app opens when a notification is tapped.
type Route string

const (
	RouteHome          Route = "home"
	RoutePremium       Route = "premium"
	RouteNotifications Route = "notifications"
)

type Notification struct {
	NotificationID int              `json:"notification_id"`
	AccountID      string           `json:"account_id"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	Type           NotificationType `json:"type"`
	IsRead         bool             `json:"is_read"`
	CreatedAt      time.Time        `json:"timestamp"`
}

// LocalNotification is what gets shown on the device.
type LocalNotification struct {
	Title    string
	Body     string
	Route    Route
	Category NotificationType
}
