package store

import (
	"database/sql"
	"log"

	"beatssuda/internal/models"
)

// ActiveFilters returns the enabled content filters in insertion order.
func ActiveFilters(db *sql.DB) ([]models.ContentFilter, error) {
	rows, err := db.Query(`
		SELECT id, filter_type, pattern, is_regex, is_active, created_at
		FROM content_filters
		WHERE is_active = true
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Printf("Error closing rows: %v", closeErr)
		}
	}()

	var filters []models.ContentFilter
	for rows.Next() {
		var f models.ContentFilter
		if err := rows.Scan(&f.ID, &f.FilterType, &f.Pattern, &f.IsRegex, &f.IsActive, &f.CreatedAt); err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, rows.Err()
}
