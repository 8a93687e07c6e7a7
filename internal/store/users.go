package store

import (
	"database/sql"

	"beatssuda/internal/models"
)

// UpsertUser creates a user row for a Telegram identity or refreshes the
// names and last-activity timestamp of an existing one.
func UpsertUser(db *sql.DB, telegramID int64, username, firstName, lastName *string) (*models.User, error) {
	var u models.User
	err := db.QueryRow(`
		INSERT INTO users (telegram_id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			last_activity = NOW()
		RETURNING id, telegram_id, username, first_name, last_name,
			listings_created, last_activity, created_at, is_banned, is_premium
	`, telegramID, username, firstName, lastName).Scan(
		&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.LastName,
		&u.ListingsCreated, &u.LastActivity, &u.CreatedAt, &u.IsBanned, &u.IsPremium)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// IncrementUserListings bumps the per-user created-listings counter.
func IncrementUserListings(db *sql.DB, telegramID int64) error {
	_, err := db.Exec(
		"UPDATE users SET listings_created = listings_created + 1, last_activity = NOW() WHERE telegram_id = $1",
		telegramID)
	return err
}
