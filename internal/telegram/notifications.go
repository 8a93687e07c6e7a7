package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"beatssuda/internal/models"
	"beatssuda/internal/moderation"
)

const requestTimeout = 10 * time.Second

type Message struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type Response struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func isDebugMode() bool {
	if debugStr := os.Getenv("TELEGRAM_DEBUG"); debugStr != "" {
		if debug, err := strconv.ParseBool(debugStr); err == nil {
			return debug
		}
	}
	return false
}

// NotifyNewListing announces a freshly published listing in the community
// channel. It is fire-and-forget: every failure is logged and swallowed, the
// submitting request never waits on it.
func NotifyNewListing(listing *models.Listing) {
	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	channelID := os.Getenv("TELEGRAM_CHANNEL_ID")
	if botToken == "" || channelID == "" {
		if isDebugMode() {
			log.Printf("TELEGRAM_BOT_TOKEN or TELEGRAM_CHANNEL_ID not set, skipping channel notification")
		}
		return
	}

	SendMessage(botToken, channelID, buildListingAnnouncement(listing))
}

func buildListingAnnouncement(listing *models.Listing) string {
	return fmt.Sprintf("📣 Новое объявление #%d\n\n%s", listing.ID, moderation.FormatListing(listing))
}

// SendMessage posts a plain-text message through the Bot API. Errors are
// logged, never returned; callers treat delivery as best effort.
func SendMessage(botToken, chatID, text string) {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", botToken)

	msg := Message{
		ChatID: chatID,
		Text:   text,
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling telegram message: %v", err)
		return
	}

	client := &http.Client{Timeout: requestTimeout}
	resp, err := client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		log.Printf("Error sending telegram message: %v", err)
		return
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("Error closing response body: %v", closeErr)
		}
	}()

	var tgResp Response
	if err := json.NewDecoder(resp.Body).Decode(&tgResp); err != nil {
		log.Printf("Error decoding telegram response: %v", err)
		return
	}
	if !tgResp.OK {
		log.Printf("Telegram API error: %s", tgResp.Description)
	}
}
