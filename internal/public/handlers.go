package public

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"beatssuda/internal/auth"
	"beatssuda/internal/models"
	"beatssuda/internal/moderation"
	"beatssuda/internal/store"
	"beatssuda/internal/telegram"

	"github.com/gorilla/mux"
)

const frontPageLimit = 50

var (
	templates   *template.Template
	templatesMu sync.RWMutex
)

func InitTemplates(t *template.Template) {
	templatesMu.Lock()
	defer templatesMu.Unlock()
	templates = t
}

func getTemplates() *template.Template {
	templatesMu.RLock()
	defer templatesMu.RUnlock()
	return templates
}

type pageData struct {
	SiteName string
	Year     int
	Request  *http.Request
}

func newPageData(r *http.Request) pageData {
	return pageData{
		SiteName: "LTL18:33bg - BEATSSUDA",
		Year:     time.Now().Year(),
		Request:  r,
	}
}

func render(w http.ResponseWriter, name string, data any) {
	t := getTemplates()
	if t == nil {
		log.Println("Templates not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if err := t.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
		http.Error(w, "Error rendering template", http.StatusInternalServerError)
	}
}

func renderError(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	w.WriteHeader(status)
	render(w, "error.html", struct {
		pageData
		Title   string
		Message string
	}{newPageData(r), title, message})
}

func RegisterHandlers(r *mux.Router, db *sql.DB, mod *moderation.Moderator) {
	r.HandleFunc("/", indexHandler(db)).Methods("GET")
	r.HandleFunc("/listings/{type:sell|buy|service}", listingsByTypeHandler(db)).Methods("GET")
	r.HandleFunc("/create", createPageHandler()).Methods("GET")
	r.HandleFunc("/create", createListingHandler(db, mod)).Methods("POST")
	r.HandleFunc("/listing/{id:[0-9]+}", viewListingHandler(db)).Methods("GET")
	r.HandleFunc("/search", searchHandler(db)).Methods("GET")
	r.HandleFunc("/stats", statsHandler(db, mod)).Methods("GET")
	r.HandleFunc("/track-contact/{id:[0-9]+}", trackContactHandler(db)).Methods("GET")
	r.HandleFunc("/health", healthHandler()).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		renderError(w, r, http.StatusNotFound,
			"Страница не найдена", "Извините, запрашиваемая страница не существует.")
	})
}

type listingsPage struct {
	pageData
	Listings []models.Listing
	Query    string
	Filter   store.Filter
}

func indexHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := store.Filter{
			ListingType: q.Get("type"),
			Genre:       q.Get("genre"),
			ItemType:    q.Get("item_type"),
		}
		result, err := store.ListListings(db, filter, 1, frontPageLimit)
		if err != nil {
			log.Printf("Error fetching listings: %v", err)
			renderError(w, r, http.StatusInternalServerError,
				"Ошибка сервера", "Произошла внутренняя ошибка сервера.")
			return
		}
		render(w, "index.html", listingsPage{
			pageData: newPageData(r),
			Listings: result.Listings,
			Filter:   filter,
		})
	}
}

func listingsByTypeHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingType := mux.Vars(r)["type"]
		result, err := store.ListListings(db, store.Filter{ListingType: listingType}, 1, frontPageLimit)
		if err != nil {
			log.Printf("Error fetching listings: %v", err)
			renderError(w, r, http.StatusInternalServerError,
				"Ошибка сервера", "Произошла внутренняя ошибка сервера.")
			return
		}
		render(w, "index.html", listingsPage{
			pageData: newPageData(r),
			Listings: result.Listings,
			Filter:   store.Filter{ListingType: listingType},
		})
	}
}

type createPage struct {
	pageData
	Form     map[string]string
	Errors   []string
	Warnings []string
}

func createPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, "create_listing.html", createPage{
			pageData: newPageData(r),
			Form:     map[string]string{},
		})
	}
}

func createListingHandler(db *sql.DB, mod *moderation.Moderator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("X-Telegram-User")
		if header == "" {
			renderError(w, r, http.StatusUnauthorized,
				"Требуется авторизация", "Для создания объявлений необходимо войти через Telegram.")
			return
		}
		tgUser, err := auth.ValidateUserHeader(header)
		if err != nil {
			renderError(w, r, http.StatusUnauthorized,
				"Требуется авторизация", fmt.Sprintf("Ошибка авторизации: %v", err))
			return
		}

		form := map[string]string{}
		for _, field := range []string{
			"listing_type", "author", "contact", "item_type", "genre",
			"preview_url", "price", "license", "includes", "delivery_time",
			"description", "tags",
		} {
			form[field] = strings.TrimSpace(r.FormValue(field))
		}

		var missing []string
		for _, field := range []string{"listing_type", "author", "contact", "item_type", "genre", "preview_url", "price"} {
			if form[field] == "" {
				missing = append(missing, field)
			}
		}
		if len(missing) > 0 {
			render(w, "create_listing.html", createPage{
				pageData: newPageData(r),
				Form:     form,
				Errors:   []string{"Отсутствуют обязательные поля: " + strings.Join(missing, ", ")},
			})
			return
		}

		user, err := store.UpsertUser(db, tgUser.ID,
			optional(tgUser.Username), optional(tgUser.FirstName), optional(tgUser.LastName))
		if err != nil {
			log.Printf("Error upserting user %d: %v", tgUser.ID, err)
			renderError(w, r, http.StatusInternalServerError,
				"Ошибка сервера", "Произошла ошибка при создании объявления.")
			return
		}
		if user.IsBanned {
			renderError(w, r, http.StatusForbidden,
				"Доступ запрещен", "Пользователь заблокирован.")
			return
		}

		verdict := mod.Moderate(moderation.Fields{
			Author:      form["author"],
			Contact:     form["contact"],
			PreviewURL:  form["preview_url"],
			Description: form["description"],
			Price:       form["price"],
			Tags:        form["tags"],
		})
		if !verdict.Approved {
			render(w, "create_listing.html", createPage{
				pageData: newPageData(r),
				Form:     form,
				Errors:   verdict.Errors,
			})
			return
		}

		listing := &models.Listing{
			ListingType:  form["listing_type"],
			Author:       form["author"],
			Contact:      form["contact"],
			ItemType:     form["item_type"],
			Genre:        form["genre"],
			PreviewURL:   form["preview_url"],
			Description:  optional(form["description"]),
			Price:        form["price"],
			PriceUSD:     models.ExtractPriceUSD(form["price"]),
			License:      optional(form["license"]),
			Includes:     optional(form["includes"]),
			DeliveryTime: optional(form["delivery_time"]),
			Tags:         optional(form["tags"]),
			IsActive:     true,
			IsModerated:  !verdict.NeedsReview,
		}
		if err := store.CreateListing(db, listing); err != nil {
			log.Printf("Error creating listing: %v", err)
			renderError(w, r, http.StatusInternalServerError,
				"Ошибка сервера", "Произошла ошибка при создании объявления.")
			return
		}

		if err := mod.LogDecision(listing.ID, verdict); err != nil {
			log.Printf("Error writing moderation log for listing %d: %v", listing.ID, err)
		}
		if err := store.IncrementUserListings(db, tgUser.ID); err != nil {
			log.Printf("Error updating user %d counters: %v", tgUser.ID, err)
		}
		if listing.IsModerated {
			go telegram.NotifyNewListing(listing)
		}

		http.Redirect(w, r, fmt.Sprintf("/listing/%d", listing.ID), http.StatusSeeOther)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type listingView struct {
	pageData
	Listing   *models.Listing
	Tags      []string
	Formatted string
}

func viewListingHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(mux.Vars(r)["id"])
		listing, err := store.IncrementViews(db, id)
		if errors.Is(err, store.ErrNotFound) {
			renderError(w, r, http.StatusNotFound,
				"Страница не найдена", "Извините, запрашиваемая страница не существует.")
			return
		}
		if err != nil {
			log.Printf("Error fetching listing %d: %v", id, err)
			renderError(w, r, http.StatusInternalServerError,
				"Ошибка сервера", "Произошла внутренняя ошибка сервера.")
			return
		}
		render(w, "view_listing.html", listingView{
			pageData:  newPageData(r),
			Listing:   listing,
			Tags:      listing.SplitTags(),
			Formatted: moderation.FormatListing(listing),
		})
	}
}

func searchHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("query"))
		page := listingsPage{pageData: newPageData(r), Query: q}

		if q != "" {
			filter := store.Filter{
				ListingType: r.URL.Query().Get("listing_type"),
				Genre:       r.URL.Query().Get("genre"),
				ItemType:    r.URL.Query().Get("item_type"),
			}
			result, err := store.SearchListings(db, q, filter, 1, frontPageLimit)
			if err != nil {
				log.Printf("Error searching listings: %v", err)
				renderError(w, r, http.StatusInternalServerError,
					"Ошибка сервера", "Произошла внутренняя ошибка сервера.")
				return
			}
			page.Listings = result.Listings
			page.Filter = filter
		}

		render(w, "search.html", page)
	}
}

type statsPage struct {
	pageData
	Listings   *store.ListingStats
	Genres     []store.GenreCount
	Moderation *store.ModerationStats
}

func statsHandler(db *sql.DB, mod *moderation.Moderator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingStats, err := store.CountListings(db)
		if err != nil {
			log.Printf("Error getting stats: %v", err)
			renderError(w, r, http.StatusInternalServerError,
				"Ошибка сервера", "Произошла внутренняя ошибка сервера.")
			return
		}
		genres, err := store.PopularGenres(db, 10)
		if err != nil {
			log.Printf("Error getting genre stats: %v", err)
			renderError(w, r, http.StatusInternalServerError,
				"Ошибка сервера", "Произошла внутренняя ошибка сервера.")
			return
		}
		moderationStats, err := mod.Stats()
		if err != nil {
			log.Printf("Error getting moderation stats: %v", err)
			renderError(w, r, http.StatusInternalServerError,
				"Ошибка сервера", "Произошла внутренняя ошибка сервера.")
			return
		}
		render(w, "stats.html", statsPage{
			pageData:   newPageData(r),
			Listings:   listingStats,
			Genres:     genres,
			Moderation: moderationStats,
		})
	}
}

func trackContactHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(mux.Vars(r)["id"])
		contact, clicks, err := store.IncrementContactClicks(db, id)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Printf("Error tracking contact click: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"contact": contact,
			"clicks":  clicks,
		}); err != nil {
			log.Printf("Error encoding response: %v", err)
		}
	}
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ok","platform":"BEATSSUDA"}`)
	}
}
