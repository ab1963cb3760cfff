package models

import "time"

type Account struct {
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	IsPremium bool      `json:"is_premium"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session binds a device to the account currently signed in on it.
type Session struct {
	DeviceID   string    `json:"device_id"`
	AccountID  string    `json:"account_id"`
	SignedInAt time.Time `json:"signed_in_at"`
}
