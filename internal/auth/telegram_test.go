package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"testing"
)

const testBotToken = "123456:TEST-TOKEN"

// signInitData builds an initData query string with a valid hash the same way
// Telegram clients do.
func signInitData(t *testing.T, pairs map[string]string) string {
	t.Helper()

	var lines []string
	for k, v := range pairs {
		lines = append(lines, k+"="+v)
	}
	sort.Strings(lines)

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(testBotToken))
	h := hmac.New(sha256.New, secret.Sum(nil))
	h.Write([]byte(strings.Join(lines, "\n")))
	hash := hex.EncodeToString(h.Sum(nil))

	values := url.Values{}
	for k, v := range pairs {
		values.Set(k, v)
	}
	values.Set("hash", hash)
	return values.Encode()
}

func TestValidateInitData(t *testing.T) {
	initData := signInitData(t, map[string]string{
		"auth_date": "1700000000",
		"query_id":  "AAF3",
		"user":      `{"id":42,"first_name":"Ivan","username":"beatmaker_ivan"}`,
	})

	user, err := ValidateInitData(initData, testBotToken)
	if err != nil {
		t.Fatalf("Expected valid initData to pass, got: %v", err)
	}
	if user.ID != 42 {
		t.Errorf("Expected user ID 42, got %d", user.ID)
	}
	if user.Username != "beatmaker_ivan" {
		t.Errorf("Expected username beatmaker_ivan, got %q", user.Username)
	}
}

func TestValidateInitDataTamperedHash(t *testing.T) {
	initData := signInitData(t, map[string]string{
		"auth_date": "1700000000",
		"user":      `{"id":42,"first_name":"Ivan"}`,
	})

	values, _ := url.ParseQuery(initData)
	hash := values.Get("hash")
	flipped := "0"
	if hash[0] == '0' {
		flipped = "1"
	}
	values.Set("hash", flipped+hash[1:])

	_, err := ValidateInitData(values.Encode(), testBotToken)
	if err == nil || err.Error() != "invalid hash" {
		t.Errorf("Expected 'invalid hash' error, got: %v", err)
	}
}

func TestValidateInitDataTamperedPayload(t *testing.T) {
	initData := signInitData(t, map[string]string{
		"auth_date": "1700000000",
		"user":      `{"id":42,"first_name":"Ivan"}`,
	})

	values, _ := url.ParseQuery(initData)
	values.Set("user", `{"id":999,"first_name":"Mallory"}`)

	_, err := ValidateInitData(values.Encode(), testBotToken)
	if err == nil || err.Error() != "invalid hash" {
		t.Errorf("Expected 'invalid hash' error for modified payload, got: %v", err)
	}
}

func TestValidateInitDataMissingHash(t *testing.T) {
	_, err := ValidateInitData("auth_date=1700000000&user=%7B%22id%22%3A42%7D", testBotToken)
	if err == nil || err.Error() != "no hash provided" {
		t.Errorf("Expected 'no hash provided' error, got: %v", err)
	}
}

func TestValidateUserHeader(t *testing.T) {
	user, err := ValidateUserHeader(`{"id":42,"username":"ivan","first_name":"Ivan","last_name":"Petrov"}`)
	if err != nil {
		t.Fatalf("Expected valid header to pass, got: %v", err)
	}
	if user.ID != 42 || user.Username != "ivan" || user.FirstName != "Ivan" || user.LastName != "Petrov" {
		t.Errorf("Unexpected parsed user: %+v", user)
	}
}

func TestValidateUserHeaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		wantErr string
	}{
		{"Not JSON", "not json", "invalid JSON"},
		{"Missing id", `{"username":"ivan","first_name":"Ivan"}`, "missing field: id"},
		{"Missing username", `{"id":42,"first_name":"Ivan"}`, "missing field: username"},
		{"Missing first name", `{"id":42,"username":"ivan"}`, "missing field: first_name"},
		{"String id", `{"id":"42","username":"ivan","first_name":"Ivan"}`, "invalid user ID"},
		{"Fractional id", `{"id":4.2,"username":"ivan","first_name":"Ivan"}`, "invalid user ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateUserHeader(tt.header)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if err.Error() != tt.wantErr {
				t.Errorf("Expected error %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestValidateInitDataWrongToken(t *testing.T) {
	initData := signInitData(t, map[string]string{
		"auth_date": "1700000000",
		"user":      `{"id":42,"first_name":"Ivan"}`,
	})

	_, err := ValidateInitData(initData, "999999:OTHER-TOKEN")
	if err == nil {
		t.Error("Expected initData signed with another token to fail")
	}
}
