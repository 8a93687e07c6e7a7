package models

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Listing is a classified ad for selling/buying/offering audio-production
// goods or services. Price is free text; PriceUSD is a lossy heuristic used
// for filtering only.
type Listing struct {
	ID              int       `json:"id"`
	ListingType     string    `json:"listing_type"` // sell, buy, service
	Author          string    `json:"author"`
	Contact         string    `json:"contact"`
	ItemType        string    `json:"item_type"`
	Genre           string    `json:"genre"`
	PreviewURL      string    `json:"preview_url"`
	Description     *string   `json:"description"`
	Price           string    `json:"price"`
	PriceUSD        float64   `json:"price_usd"`
	License         *string   `json:"license"`
	Includes        *string   `json:"includes"`
	DeliveryTime    *string   `json:"delivery_time"`
	Tags            *string   `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	IsActive        bool      `json:"is_active"`
	IsModerated     bool      `json:"is_moderated"`
	Views           int       `json:"views"`
	ContactsClicked int       `json:"contacts_clicked"`
}

// PublicListing is the API representation of a listing, with tags expanded
// into a token list.
type PublicListing struct {
	Listing
	Tags []string `json:"tags"`
}

func (l *Listing) Public() PublicListing {
	return PublicListing{Listing: *l, Tags: l.SplitTags()}
}

// SplitTags returns the whitespace-separated hashtag tokens of the listing.
func (l *Listing) SplitTags() []string {
	if l.Tags == nil {
		return []string{}
	}
	tags := strings.Fields(*l.Tags)
	if tags == nil {
		return []string{}
	}
	return tags
}

var priceRegex = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(usd|грн|₽|rub)`)

// ExtractPriceUSD converts a free-text price to an approximate USD amount for
// filtering. The exchange rates are fixed placeholders, not real currency
// conversion; unrecognized formats yield 0.
func ExtractPriceUSD(price string) float64 {
	match := priceRegex.FindStringSubmatch(price)
	if match == nil {
		return 0
	}

	amount, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}

	switch strings.ToUpper(match[2]) {
	case "USD":
		return amount
	case "ГРН":
		return amount / 27
	case "₽", "RUB":
		return amount / 60
	}
	return 0
}
