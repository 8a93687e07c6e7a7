package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"beatssuda/internal/models"
)

var ErrNotFound = errors.New("listing not found")

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Filter narrows listing queries; empty fields are ignored. Fields compose by
// logical AND.
type Filter struct {
	ListingType string
	Genre       string
	ItemType    string
}

type Pagination struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

type Page struct {
	Listings   []models.Listing
	Pagination Pagination
}

func clampPagination(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

const listingColumns = `id, listing_type, author, contact, item_type, genre, preview_url,
	description, price, price_usd, license, includes, delivery_time, tags,
	created_at, updated_at, is_active, is_moderated, views, contacts_clicked`

func scanListing(row interface{ Scan(...any) error }) (*models.Listing, error) {
	var l models.Listing
	err := row.Scan(
		&l.ID, &l.ListingType, &l.Author, &l.Contact, &l.ItemType, &l.Genre,
		&l.PreviewURL, &l.Description, &l.Price, &l.PriceUSD, &l.License,
		&l.Includes, &l.DeliveryTime, &l.Tags, &l.CreatedAt, &l.UpdatedAt,
		&l.IsActive, &l.IsModerated, &l.Views, &l.ContactsClicked)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateListing persists a new listing and fills in its generated id and
// timestamps.
func CreateListing(db *sql.DB, l *models.Listing) error {
	return db.QueryRow(`
		INSERT INTO listings (listing_type, author, contact, item_type, genre,
			preview_url, description, price, price_usd, license, includes,
			delivery_time, tags, is_active, is_moderated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at
	`, l.ListingType, l.Author, l.Contact, l.ItemType, l.Genre, l.PreviewURL,
		l.Description, l.Price, l.PriceUSD, l.License, l.Includes,
		l.DeliveryTime, l.Tags, l.IsActive, l.IsModerated,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

// GetListing returns an active listing by id without touching its counters.
func GetListing(db *sql.DB, id int) (*models.Listing, error) {
	l, err := scanListing(db.QueryRow(
		"SELECT "+listingColumns+" FROM listings WHERE id = $1 AND is_active = true", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

// IncrementViews bumps the view counter and returns the updated listing. The
// increment and the read are a single statement, so concurrent requests each
// count exactly once.
func IncrementViews(db *sql.DB, id int) (*models.Listing, error) {
	l, err := scanListing(db.QueryRow(`
		UPDATE listings SET views = views + 1, updated_at = NOW()
		WHERE id = $1 AND is_active = true
		RETURNING `+listingColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

// IncrementContactClicks bumps the contact-click counter and returns the
// listing's contact together with the new count.
func IncrementContactClicks(db *sql.DB, id int) (string, int, error) {
	var contact string
	var clicks int
	err := db.QueryRow(`
		UPDATE listings SET contacts_clicked = contacts_clicked + 1, updated_at = NOW()
		WHERE id = $1 AND is_active = true
		RETURNING contact, contacts_clicked
	`, id).Scan(&contact, &clicks)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, ErrNotFound
	}
	return contact, clicks, err
}

// ListListings returns moderated active listings ordered newest first.
func ListListings(db *sql.DB, f Filter, page, perPage int) (*Page, error) {
	where := []string{"is_active = true", "is_moderated = true"}
	var args []any
	addFilters(&where, &args, f)
	return queryPage(db, where, args, page, perPage)
}

// SearchListings matches q case-insensitively across description, author,
// item_type, genre and tags, combined with the usual filters.
func SearchListings(db *sql.DB, q string, f Filter, page, perPage int) (*Page, error) {
	where := []string{"is_active = true", "is_moderated = true"}
	var args []any
	args = append(args, "%"+q+"%")
	where = append(where, fmt.Sprintf(
		"(description ILIKE $%d OR author ILIKE $%d OR item_type ILIKE $%d OR genre ILIKE $%d OR tags ILIKE $%d)",
		1, 1, 1, 1, 1))
	addFilters(&where, &args, f)
	return queryPage(db, where, args, page, perPage)
}

func addFilters(where *[]string, args *[]any, f Filter) {
	if f.ListingType != "" {
		*args = append(*args, f.ListingType)
		*where = append(*where, fmt.Sprintf("listing_type = $%d", len(*args)))
	}
	if f.Genre != "" {
		*args = append(*args, f.Genre)
		*where = append(*where, fmt.Sprintf("genre = $%d", len(*args)))
	}
	if f.ItemType != "" {
		*args = append(*args, f.ItemType)
		*where = append(*where, fmt.Sprintf("item_type = $%d", len(*args)))
	}
}

func queryPage(db *sql.DB, where []string, args []any, page, perPage int) (*Page, error) {
	page, perPage = clampPagination(page, perPage)
	cond := strings.Join(where, " AND ")

	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM listings WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, err
	}

	offset := (page - 1) * perPage
	query := fmt.Sprintf(
		"SELECT %s FROM listings WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		listingColumns, cond, len(args)+1, len(args)+2)
	rows, err := db.Query(query, append(args, perPage, offset)...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Printf("Error closing rows: %v", closeErr)
		}
	}()

	listings := []models.Listing{}
	for rows.Next() {
		l, scanErr := scanListing(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		listings = append(listings, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pages := 0
	if total > 0 {
		pages = (total + perPage - 1) / perPage
	}

	return &Page{
		Listings: listings,
		Pagination: Pagination{
			Page:    page,
			PerPage: perPage,
			Total:   total,
			Pages:   pages,
			HasNext: page < pages,
			HasPrev: page > 1 && total > 0,
		},
	}, nil
}
