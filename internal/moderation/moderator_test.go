package moderation

import (
	"strings"
	"testing"

	"beatssuda/internal/models"
)

func cleanFields() Fields {
	return Fields{
		Author:      "beatmaker_ivan",
		Contact:     "@beatmaker_ivan",
		PreviewURL:  "https://soundcloud.com/ivan/dark-trap-beat",
		Description: "Тёмный трэп бит, 140 bpm",
		Price:       "30 USD",
		Tags:        "#бит #trap",
	}
}

func TestModerateCleanListing(t *testing.T) {
	m := New(nil)
	v := m.moderate(cleanFields(), nil)

	if !v.Approved {
		t.Errorf("Expected clean listing to be approved, got errors: %v", v.Errors)
	}
	if v.NeedsReview {
		t.Errorf("Expected clean listing to skip review, got warnings: %v", v.Warnings)
	}
	if len(v.Errors) != 0 || len(v.Warnings) != 0 {
		t.Errorf("Expected empty diagnostics, got errors=%v warnings=%v", v.Errors, v.Warnings)
	}
}

func TestModeratePreviewURL(t *testing.T) {
	m := New(nil)

	tests := []struct {
		name        string
		url         string
		wantError   string
		needsReview bool
	}{
		{"Missing URL", "", "Отсутствует ссылка на превью", false},
		{"Not a URL", "just some text", "Некорректная ссылка на превью", false},
		{"Wrong scheme", "ftp://soundcloud.com/track", "Некорректная ссылка на превью", false},
		{"Banned domain", "https://rutracker.org/beat.mp3", "Запрещенный домен: rutracker.org", false},
		{"Banned substring in host", "https://best-torrent-site.com/x", "Запрещенный домен: best-torrent-site.com", false},
		{"Unknown domain", "https://my-own-site.ru/beat", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := cleanFields()
			f.PreviewURL = tt.url
			v := m.moderate(f, nil)

			if tt.wantError != "" {
				if v.Approved {
					t.Error("Expected listing to be rejected")
				}
				if len(v.Errors) != 1 || v.Errors[0] != tt.wantError {
					t.Errorf("Expected error %q, got %v", tt.wantError, v.Errors)
				}
				return
			}

			if !v.Approved {
				t.Errorf("Expected listing to be approved, got errors: %v", v.Errors)
			}
			if v.NeedsReview != tt.needsReview {
				t.Errorf("Expected needs_review=%v, got %v (warnings: %v)", tt.needsReview, v.NeedsReview, v.Warnings)
			}
			if tt.needsReview && len(v.Warnings) == 0 {
				t.Error("Expected a warning for unknown domain")
			}
		})
	}
}

func TestModerateSuspiciousContent(t *testing.T) {
	m := New(nil)

	tests := []struct {
		name  string
		mod   func(*Fields)
		count int
	}{
		{"Free download", func(f *Fields) { f.Description = "можно бесплатно скачать тут" }, 1},
		{"Crack mention", func(f *Fields) { f.Description = "работает без crack" }, 1},
		{"Piracy", func(f *Fields) { f.Tags = "#пиратка" }, 1},
		{"Phone number", func(f *Fields) { f.Contact = "+79991234567" }, 1},
		{"Bank transfer", func(f *Fields) { f.Description = "оплата на карту или paypal" }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := cleanFields()
			tt.mod(&f)
			v := m.moderate(f, nil)

			if !v.Approved {
				t.Errorf("Suspicious content must not block publication, got errors: %v", v.Errors)
			}
			if !v.NeedsReview {
				t.Error("Expected needs_review to be set")
			}

			suspicious := 0
			for _, w := range v.Warnings {
				if strings.HasPrefix(w, "Обнаружен подозрительный контент") {
					suspicious++
				}
			}
			if suspicious < tt.count {
				t.Errorf("Expected at least %d suspicious-content warnings, got %v", tt.count, v.Warnings)
			}
		})
	}
}

func TestModerateContentFilters(t *testing.T) {
	m := New(nil)

	t.Run("Banned word blocks", func(t *testing.T) {
		f := cleanFields()
		f.Description = "продам KEYGEN дёшево"
		filters := []models.ContentFilter{
			{ID: 1, FilterType: "banned_word", Pattern: "keygen", IsRegex: false},
		}
		v := m.moderate(f, filters)

		if v.Approved {
			t.Error("Expected banned_word filter match to reject the listing")
		}
		found := false
		for _, e := range v.Errors {
			if e == "Обнаружено запрещенное содержимое" {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected banned-content error, got %v", v.Errors)
		}
	})

	t.Run("Other filter types warn", func(t *testing.T) {
		f := cleanFields()
		f.Description = "что-то про спам"
		filters := []models.ContentFilter{
			{ID: 2, FilterType: "spam_pattern", Pattern: "спам", IsRegex: false},
		}
		v := m.moderate(f, filters)

		if !v.Approved {
			t.Errorf("Non-banned_word filters must not block, got errors: %v", v.Errors)
		}
		if !v.NeedsReview {
			t.Error("Expected needs_review for matched filter")
		}
	})

	t.Run("Regex filter is case-insensitive", func(t *testing.T) {
		f := cleanFields()
		f.Description = "FREE DOWNLOAD inside"
		filters := []models.ContentFilter{
			{ID: 3, FilterType: "banned_word", Pattern: "(бесплатно скачать|free download)", IsRegex: true},
		}
		v := m.moderate(f, filters)

		if v.Approved {
			t.Error("Expected regex filter to match regardless of case")
		}
	})

	t.Run("Invalid regex is skipped", func(t *testing.T) {
		f := cleanFields()
		filters := []models.ContentFilter{
			{ID: 4, FilterType: "banned_word", Pattern: "([unclosed", IsRegex: true},
		}
		v := m.moderate(f, filters)

		if !v.Approved {
			t.Errorf("Broken filter must not reject listings, got errors: %v", v.Errors)
		}
	})
}

func TestModeratePersonalData(t *testing.T) {
	m := New(nil)

	tests := []struct {
		name string
		mod  func(*Fields)
	}{
		{"Long digit run", func(f *Fields) { f.Contact = "89991234567" }},
		{"Card number", func(f *Fields) { f.Description = "карта 1234 5678 9012 3456" }},
		{"Email", func(f *Fields) { f.Contact = "ivan@example.com" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := cleanFields()
			tt.mod(&f)
			v := m.moderate(f, nil)

			if !v.Approved {
				t.Errorf("Personal data must warn, not block, got errors: %v", v.Errors)
			}
			if !v.NeedsReview {
				t.Error("Expected needs_review to be set")
			}

			count := 0
			for _, w := range v.Warnings {
				if w == "Возможна утечка личных данных" {
					count++
				}
			}
			if count != 1 {
				t.Errorf("Expected exactly one personal-data warning, got %d (%v)", count, v.Warnings)
			}
		})
	}
}

func TestModerateAccumulatesAllDiagnostics(t *testing.T) {
	m := New(nil)
	f := Fields{
		Author:      "someone",
		Contact:     "89991234567",
		PreviewURL:  "",
		Description: "бесплатно скачать кряк",
		Price:       "0",
	}
	filters := []models.ContentFilter{
		{ID: 1, FilterType: "banned_word", Pattern: "кряк", IsRegex: false},
	}
	v := m.moderate(f, filters)

	if v.Approved {
		t.Error("Expected rejection")
	}
	// Missing URL error, banned_word error, two suspicious warnings and the
	// personal-data warning must all be present despite the early errors.
	if len(v.Errors) != 2 {
		t.Errorf("Expected 2 errors, got %v", v.Errors)
	}
	if len(v.Warnings) < 3 {
		t.Errorf("Expected at least 3 warnings, got %v", v.Warnings)
	}
	if !v.NeedsReview {
		t.Error("Expected needs_review alongside errors")
	}
}
