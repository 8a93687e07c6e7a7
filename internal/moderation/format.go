package moderation

import (
	"strings"

	"beatssuda/internal/models"
)

var typeGlyphs = map[string]string{
	"sell":    "🔥 SELL",
	"buy":     "💎 BUY",
	"service": "🛠 SERVICE",
}

const disclaimer = "⚠️ Администрация LTL18:33bg не несёт ответственности за сделки между пользователями.\n" +
	"Рекомендуем использовать безопасные способы расчёта или предоплату через эскроу."

// FormatListing renders a listing in the fixed BEATSSUDA layout. The bot, the
// formatted API endpoint and the site all publish this text, so the field
// order, glyphs and disclaimer must stay byte-stable.
func FormatListing(l *models.Listing) string {
	glyph, ok := typeGlyphs[l.ListingType]
	if !ok {
		glyph = "📦"
	}

	var b strings.Builder
	b.WriteString(glyph + " — " + l.ItemType + "\n")
	b.WriteString("🧑 Автор: " + l.Author + "\n")
	b.WriteString("🎵 Жанр: " + l.Genre)
	if l.License != nil && *l.License != "" {
		b.WriteString("    📌 Лицензия: " + *l.License)
	}
	b.WriteString("\n🔗 Превью: " + l.PreviewURL)
	b.WriteString("\n💸 Цена: " + l.Price)
	if l.Includes != nil && *l.Includes != "" {
		b.WriteString("\n📦 Что включено: " + *l.Includes)
	}
	if l.DeliveryTime != nil && *l.DeliveryTime != "" {
		b.WriteString("\n⏱ Срок: " + *l.DeliveryTime)
	}
	if l.Description != nil && *l.Description != "" {
		b.WriteString("\n✍️ Описание: " + *l.Description)
	}
	b.WriteString("\n📩 Контакт: " + l.Contact)
	if tags := l.SplitTags(); len(tags) > 0 {
		b.WriteString("\n🏷 Теги: " + strings.Join(tags, " "))
	}
	b.WriteString("\n\n" + disclaimer)

	return b.String()
}
