package api

import (
	"encoding/json"
	"log"
	"net/http"
)

// response is the JSON envelope every API endpoint answers with.
type response struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
	Details []string `json:"details,omitempty"`
	Message string   `json:"message,omitempty"`
}

func respond(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func respondData(w http.ResponseWriter, status int, data any) {
	respond(w, status, response{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respond(w, status, response{Success: false, Error: msg})
}
