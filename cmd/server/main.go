package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"beatssuda"
	"beatssuda/internal/api"
	"beatssuda/internal/bot"
	"beatssuda/internal/database"
	"beatssuda/internal/moderation"
	"beatssuda/internal/public"

	tgbot "github.com/go-telegram/bot"
	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

const (
	filePerm          = 0o600
	readTimeout       = 15 * time.Second
	writeTimeout      = 15 * time.Second
	serverIdleTimeout = 60 * time.Second
)

func setupLogging() (*os.File, error) {
	logFilePath := os.Getenv("LOG_FILE_PATH")
	if logFilePath == "" {
		logFilePath = "beatssuda.log"
	}

	cleaned := filepath.Clean(logFilePath)
	if !filepath.IsAbs(cleaned) {
		cleaned = filepath.Join(".", cleaned)
	}

	absBase, err := filepath.Abs(".")
	if err != nil {
		return nil, err
	}
	absTarget, err := filepath.Abs(cleaned)
	if err != nil {
		return nil, err
	}
	if absTarget != absBase && !strings.HasPrefix(absTarget, absBase+string(os.PathSeparator)) {
		return nil, fmt.Errorf("invalid log path: %s", logFilePath)
	}

	dir := filepath.Dir(absTarget)
	if mkErr := os.MkdirAll(dir, 0o750); mkErr != nil {
		return nil, mkErr
	}

	logFile, err := os.OpenFile(absTarget, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePerm) // #nosec G304
	if err != nil {
		return nil, err
	}

	log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	return logFile, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Error loading .env file:", err)
	}

	logFile, err := setupLogging()
	if err != nil {
		log.Fatal("Failed to set up logging:", err)
	}
	defer func() {
		if closeErr := logFile.Close(); closeErr != nil {
			log.Printf("Failed to close log file: %v", closeErr)
		}
	}()

	log.Println("Logging initialized. Log file:", logFile.Name())

	db, err := database.Connect()
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		return
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database connection: %v", err)
		}
	}()

	if err := database.Migrate(db); err != nil {
		log.Printf("Failed to run migrations: %v", err)
		return
	}

	mod := moderation.New(db)

	r := mux.NewRouter()
	registerHandlers(r, db, mod)

	setupStaticFiles(r)
	public.InitTemplates(parseTemplates())

	protected := setupCSRFMiddleware(r)

	startServer(protected)
}

func registerHandlers(r *mux.Router, db *sql.DB, mod *moderation.Moderator) {
	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")

	api.RegisterHandlers(r, db, mod, botToken)
	public.RegisterHandlers(r, db, mod)

	b := startBot(botToken)
	bot.RegisterWebhookHandlers(r, b, botToken)
}

func startBot(token string) *tgbot.Bot {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set; bot commands disabled")
		return nil
	}

	b, err := bot.New(token, os.Getenv("WEBAPP_URL"), os.Getenv("SUPPORT_CONTACT"))
	if err != nil {
		log.Printf("Failed to initialize bot: %v", err)
		return nil
	}

	go b.StartWebhook(context.Background())
	return b
}

func setupStaticFiles(r *mux.Router) {
	staticFiles, err := fs.Sub(beatssuda.Files, "static")
	if err != nil {
		log.Fatalf("Error accessing static files: %v", err)
	}
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(staticFiles))))
}

func parseTemplates() *template.Template {
	funcMap := template.FuncMap{
		"add":       func(a, b int) int { return a + b },
		"sub":       func(a, b int) int { return a - b },
		"csrfField": csrf.TemplateField,
		"csrfToken": csrf.Token,
	}

	t := template.New("").Funcs(funcMap)
	t, err := t.ParseFS(beatssuda.Files, "internal/public/templates/*.html")
	if err != nil {
		log.Fatalf("Error parsing templates: %v", err)
	}
	return t
}

func setupCSRFMiddleware(r *mux.Router) http.Handler {
	var key []byte
	if envKey := os.Getenv("CSRF_AUTH_KEY"); envKey != "" {
		key = []byte(envKey)
	} else {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			log.Fatalf("CSRF key generation failed: %v", err)
		}
		log.Printf("WARNING: CSRF_AUTH_KEY not set; using ephemeral key (tokens reset on restart).")
	}
	if len(key) < 32 {
		log.Fatalf("CSRF_AUTH_KEY must be at least 32 bytes; got %d", len(key))
	}

	secure := strings.EqualFold(os.Getenv("CSRF_SECURE"), "true")
	if os.Getenv("CSRF_SECURE") == "" {
		secure = true
	}

	sameSite := csrf.SameSiteLaxMode
	switch strings.ToLower(os.Getenv("CSRF_SAMESITE")) {
	case "strict":
		sameSite = csrf.SameSiteStrictMode
	case "none":
		sameSite = csrf.SameSiteNoneMode
	case "lax", "":
		sameSite = csrf.SameSiteLaxMode
	}

	opts := []csrf.Option{
		csrf.CookieName("_csrf"),
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.Path("/"),
		csrf.SameSite(sameSite),
		csrf.TrustedOrigins(parseTrustedOrigins()),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Invalid CSRF token", http.StatusForbidden)
		})),
	}

	protect := csrf.Protect(key, opts...)
	protected := skipCSRFForMachineClients(protect(r))

	return withCSRFTokHeader(protected)
}

// The JSON API authenticates via Telegram identity headers and the bot
// webhook via the token in its path; cookie CSRF does not apply to either.
func skipCSRFForMachineClients(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/webhook/") {
			r = csrf.UnsafeSkipCheck(r)
		}
		next.ServeHTTP(w, r)
	})
}

func parseTrustedOrigins() []string {
	raw := os.Getenv("CSRF_TRUSTED_ORIGINS")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func withCSRFTokHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			w.Header().Set("X-CSRF-Token", csrf.Token(r))
		}
		next.ServeHTTP(w, r)
	})
}

func startServer(handler http.Handler) {
	port := os.Getenv("PORT")
	if port == "" {
		fmt.Println("PORT environment variable not set. Defaulting to 8080")
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	log.Printf("Starting server on :%s", port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Server failed to start:", err)
	}
}
