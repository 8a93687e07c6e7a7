package models

import "time"

// ModerationLog is an append-only record of one moderation decision. Rows are
// never mutated or deleted.
type ModerationLog struct {
	ID        int       `json:"id"`
	ListingID int       `json:"listing_id"`
	Action    string    `json:"action"` // auto_approved, needs_review, rejected
	Reason    string    `json:"reason"`
	Moderator string    `json:"moderator"`
	CreatedAt time.Time `json:"created_at"`
}

// ContentFilter is an admin-managed moderation rule: a literal substring or a
// regular expression applied to submitted listing text.
type ContentFilter struct {
	ID         int       `json:"id"`
	FilterType string    `json:"filter_type"` // banned_word, banned_domain, ...
	Pattern    string    `json:"pattern"`
	IsRegex    bool      `json:"is_regex"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}
