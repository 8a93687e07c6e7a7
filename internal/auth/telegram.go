package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// webAppDataLabel is the fixed key Telegram specifies for deriving the Web
// App secret from the bot token.
const webAppDataLabel = "WebAppData"

type TelegramUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	PhotoURL     string `json:"photo_url,omitempty"`
}

// ValidateInitData verifies a Telegram Web App initData payload against the
// bot token and returns the embedded user. The hash field is removed, the
// remaining pairs are serialized sorted as "key=value" lines, and the HMAC is
// checked with exact hex equality.
func ValidateInitData(initData, botToken string) (*TelegramUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("validation error: %v", err)
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, fmt.Errorf("no hash provided")
	}
	values.Del("hash")

	var dataStrings []string
	for key, value := range values {
		if len(value) > 0 {
			dataStrings = append(dataStrings, fmt.Sprintf("%s=%s", key, value[0]))
		}
	}
	sort.Strings(dataStrings)
	dataCheckString := strings.Join(dataStrings, "\n")

	secret := hmac.New(sha256.New, []byte(webAppDataLabel))
	secret.Write([]byte(botToken))
	secretKey := secret.Sum(nil)

	h := hmac.New(sha256.New, secretKey)
	h.Write([]byte(dataCheckString))
	expectedHash := hex.EncodeToString(h.Sum(nil))

	if hash != expectedHash {
		return nil, fmt.Errorf("invalid hash")
	}

	userJSON := values.Get("user")
	if userJSON == "" {
		userJSON = "{}"
	}
	var user TelegramUser
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, fmt.Errorf("validation error: %v", err)
	}
	return &user, nil
}

// ValidateUserHeader parses the X-Telegram-User header kept for backward
// compatibility with the web-app frontend. It requires id, username and
// first_name, and id must be a JSON integer, not a string or a fraction.
func ValidateUserHeader(header string) (*TelegramUser, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(header), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON")
	}

	for _, field := range []string{"id", "username", "first_name"} {
		if _, ok := raw[field]; !ok {
			return nil, fmt.Errorf("missing field: %s", field)
		}
	}

	var id int64
	if err := json.Unmarshal(raw["id"], &id); err != nil {
		return nil, fmt.Errorf("invalid user ID")
	}

	var user TelegramUser
	if err := json.Unmarshal([]byte(header), &user); err != nil {
		return nil, fmt.Errorf("invalid JSON")
	}
	return &user, nil
}
