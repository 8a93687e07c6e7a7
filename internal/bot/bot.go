package bot

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/gorilla/mux"
)

// Handler wires the community bot commands: the bot's only job is opening the
// marketplace as a Telegram web app.
type Handler struct {
	webAppURL string
	support   string
}

func New(token, webAppURL, support string) (*bot.Bot, error) {
	h := &Handler{webAppURL: webAppURL, support: support}

	b, err := bot.New(token)
	if err != nil {
		return nil, err
	}

	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.handleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/app", bot.MatchTypeExact, h.handleApp)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, h.handleHelp)

	return b, nil
}

// RegisterWebhookHandlers mounts the Telegram webhook. The token path segment
// is the original deployment's shared-secret check; anything else is 403.
func RegisterWebhookHandlers(r *mux.Router, b *bot.Bot, token string) {
	r.HandleFunc("/webhook/{token}", webhookHandler(b, token)).Methods("POST")
}

func webhookHandler(b *bot.Bot, token string) http.HandlerFunc {
	var inner http.HandlerFunc
	if b != nil {
		inner = b.WebhookHandler()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		got := mux.Vars(r)["token"]
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			http.Error(w, "Unauthorized", http.StatusForbidden)
			return
		}
		if inner == nil {
			http.Error(w, "Bot not configured", http.StatusServiceUnavailable)
			return
		}
		inner(w, r)
	}
}

func (h *Handler) webAppKeyboard(buttonText string) models.ReplyMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{
			{
				Text:   buttonText,
				WebApp: &models.WebAppInfo{URL: h.webAppURL},
			},
		}},
	}
}

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        startText(h.support),
		ReplyMarkup: h.webAppKeyboard("🚀 Открыть BEATSSUDA Platform"),
	})
	if err != nil {
		log.Printf("Error sending /start reply: %v", err)
	}
}

func (h *Handler) handleApp(ctx context.Context, b *bot.Bot, update *models.Update) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        "🚀 Откройте BEATSSUDA Platform",
		ReplyMarkup: h.webAppKeyboard("📱 Открыть платформу"),
	})
	if err != nil {
		log.Printf("Error sending /app reply: %v", err)
	}
}

func (h *Handler) handleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   helpText(h.support),
	})
	if err != nil {
		log.Printf("Error sending /help reply: %v", err)
	}
}
