package store

import "database/sql"

// InsertModerationLog appends one moderation-log row. Logs are append-only;
// there is intentionally no update or delete counterpart.
func InsertModerationLog(db *sql.DB, listingID int, action, reason, moderator string) error {
	if moderator == "" {
		moderator = "system"
	}
	_, err := db.Exec(
		"INSERT INTO moderation_logs (listing_id, action, reason, moderator) VALUES ($1, $2, $3, $4)",
		listingID, action, reason, moderator)
	return err
}
