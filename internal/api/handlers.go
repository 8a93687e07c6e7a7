package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"beatssuda/internal/api/middleware"
	"beatssuda/internal/auth"
	"beatssuda/internal/models"
	"beatssuda/internal/moderation"
	"beatssuda/internal/preview"
	"beatssuda/internal/store"
	"beatssuda/internal/telegram"

	"github.com/gorilla/mux"
)

const telegramUserHeader = "X-Telegram-User"

func RegisterHandlers(r *mux.Router, db *sql.DB, mod *moderation.Moderator, botToken string) {
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.CORSMiddleware)

	apiRouter.HandleFunc("/listings", listListingsHandler(db)).Methods("GET")
	apiRouter.HandleFunc("/listings", createListingHandler(db, mod)).Methods("POST")
	apiRouter.HandleFunc("/listings/search", searchListingsHandler(db)).Methods("GET")
	apiRouter.HandleFunc("/listings/{id:[0-9]+}", getListingHandler(db)).Methods("GET")
	apiRouter.HandleFunc("/listings/{id:[0-9]+}/contact", trackContactHandler(db)).Methods("POST")
	apiRouter.HandleFunc("/listings/{id:[0-9]+}/formatted", formattedListingHandler(db)).Methods("GET")
	apiRouter.HandleFunc("/listings/{id:[0-9]+}/preview-info", previewInfoHandler(db)).Methods("GET")
	apiRouter.HandleFunc("/stats", statsHandler(db, mod)).Methods("GET")
	apiRouter.HandleFunc("/auth/telegram", telegramAuthHandler(db, botToken)).Methods("POST")

	apiRouter.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "API endpoint не найден")
	})
}

func paginationParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page == 0 {
		page = 1
	}
	if perPage == 0 {
		perPage = 20
	}
	return page, perPage
}

func filterParams(r *http.Request) store.Filter {
	q := r.URL.Query()
	return store.Filter{
		ListingType: q.Get("type"),
		Genre:       q.Get("genre"),
		ItemType:    q.Get("item_type"),
	}
}

func publicListings(listings []models.Listing) []models.PublicListing {
	out := make([]models.PublicListing, 0, len(listings))
	for i := range listings {
		out = append(out, listings[i].Public())
	}
	return out
}

func listListingsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, perPage := paginationParams(r)
		result, err := store.ListListings(db, filterParams(r), page, perPage)
		if err != nil {
			log.Printf("Error getting listings: %v", err)
			respondError(w, http.StatusInternalServerError, "Ошибка получения объявлений")
			return
		}
		respondData(w, http.StatusOK, map[string]any{
			"listings":   publicListings(result.Listings),
			"pagination": result.Pagination,
		})
	}
}

type createListingRequest struct {
	ListingType  string `json:"listing_type"`
	Author       string `json:"author"`
	Contact      string `json:"contact"`
	ItemType     string `json:"item_type"`
	Genre        string `json:"genre"`
	PreviewURL   string `json:"preview_url"`
	Price        string `json:"price"`
	License      string `json:"license"`
	Includes     string `json:"includes"`
	DeliveryTime string `json:"delivery_time"`
	Description  string `json:"description"`
	Tags         string `json:"tags"`
}

func (req *createListingRequest) missingFields() []string {
	required := []struct {
		name  string
		value string
	}{
		{"listing_type", req.ListingType},
		{"author", req.Author},
		{"contact", req.Contact},
		{"item_type", req.ItemType},
		{"genre", req.Genre},
		{"preview_url", req.PreviewURL},
		{"price", req.Price},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func createListingHandler(db *sql.DB, mod *moderation.Moderator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(telegramUserHeader)
		if header == "" {
			respondError(w, http.StatusUnauthorized, "Для создания объявлений необходимо войти через Telegram")
			return
		}
		tgUser, err := auth.ValidateUserHeader(header)
		if err != nil {
			respondError(w, http.StatusUnauthorized, fmt.Sprintf("Ошибка авторизации: %v", err))
			return
		}

		var req createListingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Данные не предоставлены")
			return
		}

		if missing := req.missingFields(); len(missing) > 0 {
			respondError(w, http.StatusBadRequest,
				"Отсутствуют обязательные поля: "+strings.Join(missing, ", "))
			return
		}

		user, err := store.UpsertUser(db, tgUser.ID,
			optional(tgUser.Username), optional(tgUser.FirstName), optional(tgUser.LastName))
		if err != nil {
			log.Printf("Error upserting user %d: %v", tgUser.ID, err)
			respondError(w, http.StatusInternalServerError, "Ошибка создания объявления")
			return
		}
		if user.IsBanned {
			respondError(w, http.StatusForbidden, "Пользователь заблокирован")
			return
		}

		verdict := mod.Moderate(moderation.Fields{
			Author:      req.Author,
			Contact:     req.Contact,
			PreviewURL:  req.PreviewURL,
			Description: req.Description,
			Price:       req.Price,
			Tags:        req.Tags,
		})
		if !verdict.Approved {
			respond(w, http.StatusBadRequest, response{
				Success: false,
				Error:   "Объявление не прошло модерацию",
				Details: verdict.Errors,
			})
			return
		}

		listing := &models.Listing{
			ListingType:  req.ListingType,
			Author:       req.Author,
			Contact:      req.Contact,
			ItemType:     req.ItemType,
			Genre:        req.Genre,
			PreviewURL:   req.PreviewURL,
			Description:  optional(req.Description),
			Price:        req.Price,
			PriceUSD:     models.ExtractPriceUSD(req.Price),
			License:      optional(req.License),
			Includes:     optional(req.Includes),
			DeliveryTime: optional(req.DeliveryTime),
			Tags:         optional(req.Tags),
			IsActive:     true,
			IsModerated:  !verdict.NeedsReview,
		}

		if err := store.CreateListing(db, listing); err != nil {
			log.Printf("Error creating listing: %v", err)
			respondError(w, http.StatusInternalServerError, "Ошибка создания объявления")
			return
		}

		if err := mod.LogDecision(listing.ID, verdict); err != nil {
			log.Printf("Error writing moderation log for listing %d: %v", listing.ID, err)
		}
		if err := store.IncrementUserListings(db, tgUser.ID); err != nil {
			log.Printf("Error updating user %d counters: %v", tgUser.ID, err)
		}

		// Best-effort channel announcement once the listing is committed.
		if listing.IsModerated {
			go telegram.NotifyNewListing(listing)
		}

		resp := response{
			Success: true,
			Data: map[string]any{
				"listing": listing.Public(),
				"moderation": map[string]any{
					"approved":     verdict.Approved,
					"needs_review": verdict.NeedsReview,
					"warnings":     verdict.Warnings,
				},
			},
		}
		if verdict.NeedsReview {
			resp.Message = "Объявление создано, но требует проверки модератором"
		}
		respond(w, http.StatusCreated, resp)
	}
}

func listingID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

func getListingHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listing, err := store.IncrementViews(db, listingID(r))
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Объявление не найдено")
			return
		}
		if err != nil {
			log.Printf("Error getting listing: %v", err)
			respondError(w, http.StatusInternalServerError, "Ошибка получения объявления")
			return
		}
		respondData(w, http.StatusOK, map[string]any{"listing": listing.Public()})
	}
}

func trackContactHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contact, clicks, err := store.IncrementContactClicks(db, listingID(r))
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Объявление не найдено")
			return
		}
		if err != nil {
			log.Printf("Error tracking contact click: %v", err)
			respondError(w, http.StatusInternalServerError, "Ошибка отслеживания")
			return
		}
		respondData(w, http.StatusOK, map[string]any{
			"contact": contact,
			"clicks":  clicks,
		})
	}
}

func formattedListingHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listing, err := store.GetListing(db, listingID(r))
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Объявление не найдено")
			return
		}
		if err != nil {
			log.Printf("Error formatting listing: %v", err)
			respondError(w, http.StatusInternalServerError, "Ошибка форматирования объявления")
			return
		}
		respondData(w, http.StatusOK, map[string]any{
			"listing_id":     listing.ID,
			"formatted_text": moderation.FormatListing(listing),
			"raw_data":       listing.Public(),
		})
	}
}

func previewInfoHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listing, err := store.GetListing(db, listingID(r))
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Объявление не найдено")
			return
		}
		if err != nil {
			log.Printf("Error getting listing: %v", err)
			respondError(w, http.StatusInternalServerError, "Ошибка получения объявления")
			return
		}

		info, err := preview.Inspect(r.Context(), listing.PreviewURL)
		if err != nil {
			log.Printf("Error inspecting preview for listing %d: %v", listing.ID, err)
			respondError(w, http.StatusBadGateway, "Не удалось проверить превью")
			return
		}
		respondData(w, http.StatusOK, map[string]any{
			"listing_id": listing.ID,
			"preview":    info,
		})
	}
}

func searchListingsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if q == "" {
			respondError(w, http.StatusBadRequest, "Поисковый запрос не указан")
			return
		}

		page, perPage := paginationParams(r)
		result, err := store.SearchListings(db, q, filterParams(r), page, perPage)
		if err != nil {
			log.Printf("Error searching listings: %v", err)
			respondError(w, http.StatusInternalServerError, "Ошибка поиска")
			return
		}
		respondData(w, http.StatusOK, map[string]any{
			"query":      q,
			"listings":   publicListings(result.Listings),
			"pagination": result.Pagination,
		})
	}
}

func statsHandler(db *sql.DB, mod *moderation.Moderator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingStats, err := store.CountListings(db)
		if err != nil {
			log.Printf("Error getting stats: %v", err)
			respondError(w, http.StatusInternalServerError, "Ошибка получения статистики")
			return
		}
		genres, err := store.PopularGenres(db, 5)
		if err != nil {
			log.Printf("Error getting genre stats: %v", err)
			respondError(w, http.StatusInternalServerError, "Ошибка получения статистики")
			return
		}
		moderationStats, err := mod.Stats()
		if err != nil {
			log.Printf("Error getting moderation stats: %v", err)
			respondError(w, http.StatusInternalServerError, "Ошибка получения статистики")
			return
		}
		respondData(w, http.StatusOK, map[string]any{
			"listings":       listingStats,
			"popular_genres": genres,
			"moderation":     moderationStats,
		})
	}
}

type telegramAuthRequest struct {
	InitData  string  `json:"init_data"`
	ID        int64   `json:"id"`
	Username  *string `json:"username"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func telegramAuthHandler(db *sql.DB, botToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req telegramAuthRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Данные пользователя не предоставлены")
			return
		}

		var telegramID int64
		var username, firstName, lastName *string

		if req.InitData != "" {
			tgUser, err := auth.ValidateInitData(req.InitData, botToken)
			if err != nil {
				respondError(w, http.StatusUnauthorized, fmt.Sprintf("Ошибка авторизации: %v", err))
				return
			}
			telegramID = tgUser.ID
			username = optional(tgUser.Username)
			firstName = optional(tgUser.FirstName)
			lastName = optional(tgUser.LastName)
		} else {
			// Legacy body shape: the user object posted directly.
			if req.ID == 0 {
				respondError(w, http.StatusBadRequest, "Данные пользователя не предоставлены")
				return
			}
			telegramID = req.ID
			username = req.Username
			firstName = req.FirstName
			lastName = req.LastName
		}

		user, err := store.UpsertUser(db, telegramID, username, firstName, lastName)
		if err != nil {
			log.Printf("Error upserting user %d: %v", telegramID, err)
			respondError(w, http.StatusInternalServerError, "Ошибка авторизации")
			return
		}
		respondData(w, http.StatusOK, map[string]any{"user": user})
	}
}
