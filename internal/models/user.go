package models

import "time"

type User struct {
	ID              int       `json:"id"`
	TelegramID      int64     `json:"telegram_id"`
	Username        *string   `json:"username"`
	FirstName       *string   `json:"first_name"`
	LastName        *string   `json:"last_name"`
	ListingsCreated int       `json:"listings_created"`
	LastActivity    time.Time `json:"last_activity"`
	CreatedAt       time.Time `json:"created_at"`
	IsBanned        bool      `json:"is_banned"`
	IsPremium       bool      `json:"is_premium"`
}
