package bot

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

func TestWebhookRejectsWrongToken(t *testing.T) {
	r := mux.NewRouter()
	RegisterWebhookHandlers(r, nil, "secret-token")

	req := httptest.NewRequest("POST", "/webhook/wrong-token", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}

func TestWebhookRejectsWhenTokenUnset(t *testing.T) {
	r := mux.NewRouter()
	RegisterWebhookHandlers(r, nil, "")

	req := httptest.NewRequest("POST", "/webhook/anything", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for unset token, got %d", w.Code)
	}
}

func TestWebhookWithoutBot(t *testing.T) {
	r := mux.NewRouter()
	RegisterWebhookHandlers(r, nil, "secret-token")

	req := httptest.NewRequest("POST", "/webhook/secret-token", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503 when bot is not configured, got %d", w.Code)
	}
}

func TestWebhookRequiresPost(t *testing.T) {
	r := mux.NewRouter()
	RegisterWebhookHandlers(r, nil, "secret-token")

	req := httptest.NewRequest("GET", "/webhook/secret-token", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code == http.StatusOK {
		t.Error("Expected GET on the webhook to be rejected")
	}
}

func TestCommandTexts(t *testing.T) {
	start := startText("@support")
	if !strings.Contains(start, "BEATSSUDA") {
		t.Errorf("Expected platform name in /start text, got:\n%s", start)
	}
	if !strings.Contains(start, "@support") {
		t.Error("Expected support contact in /start text")
	}

	help := helpText("@support")
	if !strings.Contains(help, "@support") {
		t.Error("Expected support contact in /help text")
	}
}
