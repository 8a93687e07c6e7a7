package database

import (
	"database/sql"
	"log"
	"os"

	_ "github.com/lib/pq"
)

func Connect() (*sql.DB, error) {
	connStr := os.Getenv("DB_CONNECTION_STRING")
	return sql.Open("postgres", connStr)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS listings (
		id SERIAL PRIMARY KEY,
		listing_type TEXT NOT NULL,
		author TEXT NOT NULL,
		contact TEXT NOT NULL,
		item_type TEXT NOT NULL,
		genre TEXT NOT NULL,
		preview_url TEXT NOT NULL,
		description TEXT,
		price TEXT NOT NULL,
		price_usd DOUBLE PRECISION NOT NULL DEFAULT 0,
		license TEXT,
		includes TEXT,
		delivery_time TEXT,
		tags TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		is_moderated BOOLEAN NOT NULL DEFAULT FALSE,
		views INTEGER NOT NULL DEFAULT 0,
		contacts_clicked INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		telegram_id BIGINT UNIQUE,
		username TEXT,
		first_name TEXT,
		last_name TEXT,
		listings_created INTEGER NOT NULL DEFAULT 0,
		last_activity TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		is_banned BOOLEAN NOT NULL DEFAULT FALSE,
		is_premium BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS moderation_logs (
		id SERIAL PRIMARY KEY,
		listing_id INTEGER NOT NULL REFERENCES listings(id),
		action TEXT NOT NULL,
		reason TEXT,
		moderator TEXT NOT NULL DEFAULT 'system',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS content_filters (
		id SERIAL PRIMARY KEY,
		filter_type TEXT NOT NULL,
		pattern TEXT NOT NULL,
		is_regex BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

type seedFilter struct {
	filterType string
	pattern    string
	isRegex    bool
}

// RE2 word boundaries are ASCII-only, so the Cyrillic seed patterns carry no \b.
var defaultFilters = []seedFilter{
	{"banned_domain", "torrent", false},
	{"banned_domain", "crack", false},
	{"banned_word", `(бесплатно скачать|даром|free download)`, true},
	{"banned_word", `(кряк|crack|keygen)`, true},
}

// Migrate creates the schema and seeds the default content filters on first
// startup. Filters are only seeded when the table is empty; after that they
// are managed out of band.
func Migrate(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM content_filters").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, f := range defaultFilters {
		_, err := db.Exec(
			"INSERT INTO content_filters (filter_type, pattern, is_regex) VALUES ($1, $2, $3)",
			f.filterType, f.pattern, f.isRegex)
		if err != nil {
			return err
		}
	}
	log.Println("Seeded default content filters")
	return nil
}
