package moderation

import (
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"

	"beatssuda/internal/models"
	"beatssuda/internal/store"
)

// Fields carries the submitted listing text the moderation rules look at.
// Optional fields are empty strings, never nil.
type Fields struct {
	Author      string
	Contact     string
	PreviewURL  string
	Description string
	Price       string
	Tags        string
}

// Verdict is the structured moderation decision for one candidate listing.
// Errors block publication; warnings flag it for human review but never block.
type Verdict struct {
	Approved    bool     `json:"approved"`
	NeedsReview bool     `json:"needs_review"`
	Warnings    []string `json:"warnings"`
	Errors      []string `json:"errors"`
}

// Moderator evaluates candidate listings against the built-in rule set merged
// with the active content filters stored in the database. Construct one with
// New; there is no package-level instance.
type Moderator struct {
	db *sql.DB

	bannedDomains      []string
	safeDomains        []string
	suspiciousPatterns []*regexp.Regexp
	personalPatterns   []*regexp.Regexp
}

// The Cyrillic alternatives carry no \b: RE2 word boundaries are ASCII-only
// and would never match next to Cyrillic letters.
var suspiciousPatternSources = []string{
	`(?i)(бесплатно скачать|даром|\bfree download\b)`,
	`(?i)(кряк|серийник|\bcrack\b|\bkeygen\b)`,
	`(?i)(пиратка|пират|взлом)`,
	`(?i)(телефон|номер телефона|\+\d{10,})`,
	`(?i)(карта|банк|счет|перевод|\bpaypal\b)`,
}

var personalPatternSources = []string{
	`\b\d{10,}\b`,
	`\b\d{4}\s*\d{4}\s*\d{4}\s*\d{4}\b`,
	`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`,
}

func New(db *sql.DB) *Moderator {
	m := &Moderator{
		db: db,
		bannedDomains: []string{
			"torrent", "pirate", "crack", "keygen", "warez",
			"rutracker", "thepiratebay", "kickass",
		},
		safeDomains: []string{
			"soundcloud.com",
			"drive.google.com",
			"t.me",
			"dropbox.com",
			"mediafire.com",
			"wetransfer.com",
			"youtube.com",
			"youtu.be",
			"bandcamp.com",
			"spotify.com",
		},
	}
	for _, src := range suspiciousPatternSources {
		m.suspiciousPatterns = append(m.suspiciousPatterns, regexp.MustCompile(src))
	}
	for _, src := range personalPatternSources {
		m.personalPatterns = append(m.personalPatterns, regexp.MustCompile(src))
	}
	return m
}

// Moderate evaluates one candidate listing. Every check runs even after a
// hard failure so the verdict carries complete diagnostics; Approved is false
// exactly when at least one error accumulated.
func (m *Moderator) Moderate(f Fields) Verdict {
	filters, err := store.ActiveFilters(m.db)
	if err != nil {
		// Degrade to the built-in rules; a filter-table outage must not
		// take down submissions.
		log.Printf("Error loading content filters: %v", err)
		filters = nil
	}
	return m.moderate(f, filters)
}

func (m *Moderator) moderate(f Fields, filters []models.ContentFilter) Verdict {
	v := Verdict{Approved: true, Warnings: []string{}, Errors: []string{}}

	if msg, severity := m.checkPreviewURL(f.PreviewURL); severity == severityBlock {
		v.Errors = append(v.Errors, msg)
		v.Approved = false
	} else if severity == severityWarn {
		v.Warnings = append(v.Warnings, msg)
		v.NeedsReview = true
	}

	blob := strings.ToLower(strings.Join([]string{
		f.Description, f.Author, f.Contact, f.Tags, f.Price,
	}, " "))

	for i, pattern := range m.suspiciousPatterns {
		if pattern.MatchString(blob) {
			v.Warnings = append(v.Warnings,
				"Обнаружен подозрительный контент: "+suspiciousPatternSources[i])
			v.NeedsReview = true
		}
	}

	for _, filter := range filters {
		if !matchFilter(filter, blob) {
			continue
		}
		if filter.FilterType == "banned_word" {
			v.Errors = append(v.Errors, "Обнаружено запрещенное содержимое")
			v.Approved = false
		} else {
			v.Warnings = append(v.Warnings, "Подозрительное содержимое")
			v.NeedsReview = true
		}
	}

	contactText := strings.ToLower(f.Contact + " " + f.Description)
	for _, pattern := range m.personalPatterns {
		if pattern.MatchString(contactText) {
			v.Warnings = append(v.Warnings, "Возможна утечка личных данных")
			v.NeedsReview = true
			break
		}
	}

	return v
}

type severity int

const (
	severityNone severity = iota
	severityWarn
	severityBlock
)

func (m *Moderator) checkPreviewURL(raw string) (string, severity) {
	if raw == "" {
		return "Отсутствует ссылка на превью", severityBlock
	}

	parsed, err := url.Parse(strings.ToLower(raw))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "Некорректная ссылка на превью", severityBlock
	}

	host := parsed.Host
	for _, banned := range m.bannedDomains {
		if strings.Contains(host, banned) {
			return fmt.Sprintf("Запрещенный домен: %s", host), severityBlock
		}
	}

	for _, safe := range m.safeDomains {
		if strings.Contains(host, safe) {
			return "", severityNone
		}
	}
	return fmt.Sprintf("[ТРЕБУЕТ ПРОВЕРКИ] Неизвестный домен: %s", host), severityWarn
}

func matchFilter(f models.ContentFilter, blob string) bool {
	if f.IsRegex {
		re, err := regexp.Compile("(?i)" + f.Pattern)
		if err != nil {
			log.Printf("Skipping invalid content filter %d: %v", f.ID, err)
			return false
		}
		return re.MatchString(blob)
	}
	return strings.Contains(blob, strings.ToLower(f.Pattern))
}

// LogDecision appends a moderation-log entry for a persisted listing. Action
// is auto_approved for clean listings and needs_review for flagged ones; the
// reason is the joined warning list or "Clean".
func (m *Moderator) LogDecision(listingID int, v Verdict) error {
	action := "auto_approved"
	if v.NeedsReview {
		action = "needs_review"
	}
	reason := "Clean"
	if len(v.Warnings) > 0 {
		reason = "Warnings: " + strings.Join(v.Warnings, "; ")
	}
	return store.InsertModerationLog(m.db, listingID, action, reason, "system")
}

// Stats reports moderation throughput for the stats endpoints.
func (m *Moderator) Stats() (*store.ModerationStats, error) {
	return store.CountModeration(m.db)
}
