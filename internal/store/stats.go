package store

import (
	"database/sql"
	"log"
)

type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

type ListingStats struct {
	Total  int            `json:"total"`
	Active int            `json:"active"`
	ByType map[string]int `json:"by_type"`
}

type ModerationStats struct {
	Total        int     `json:"total"`
	Approved     int     `json:"approved"`
	Pending      int     `json:"pending"`
	ApprovalRate float64 `json:"approval_rate"`
}

// CountListings reports totals over active and moderated listings plus the
// per-type breakdown.
func CountListings(db *sql.DB) (*ListingStats, error) {
	stats := &ListingStats{ByType: map[string]int{"sell": 0, "buy": 0, "service": 0}}

	err := db.QueryRow(`
		SELECT COUNT(*) FILTER (WHERE is_active),
		       COUNT(*) FILTER (WHERE is_active AND is_moderated)
		FROM listings
	`).Scan(&stats.Total, &stats.Active)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT listing_type, COUNT(*)
		FROM listings
		WHERE is_active = true AND is_moderated = true
		GROUP BY listing_type
	`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Printf("Error closing rows: %v", closeErr)
		}
	}()

	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		stats.ByType[t] = n
	}
	return stats, rows.Err()
}

// PopularGenres returns the most used genres among published listings.
func PopularGenres(db *sql.DB, limit int) ([]GenreCount, error) {
	rows, err := db.Query(`
		SELECT genre, COUNT(*) AS count
		FROM listings
		WHERE is_active = true AND is_moderated = true
		GROUP BY genre
		ORDER BY count DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Printf("Error closing rows: %v", closeErr)
		}
	}()

	genres := []GenreCount{}
	for rows.Next() {
		var g GenreCount
		if err := rows.Scan(&g.Genre, &g.Count); err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

// CountModeration reports how many listings passed moderation versus how many
// still wait for review.
func CountModeration(db *sql.DB) (*ModerationStats, error) {
	var stats ModerationStats
	err := db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_moderated AND is_active),
		       COUNT(*) FILTER (WHERE NOT is_moderated)
		FROM listings
	`).Scan(&stats.Total, &stats.Approved, &stats.Pending)
	if err != nil {
		return nil, err
	}
	if stats.Total > 0 {
		stats.ApprovalRate = float64(stats.Approved) / float64(stats.Total) * 100
	}
	return &stats, nil
}
