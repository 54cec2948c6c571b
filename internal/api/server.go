package api

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/studydeck/studydeck/internal/logger"
	"github.com/studydeck/studydeck/internal/services"
)

// Server holds the HTTP handlers' dependencies.
type Server struct {
	CardService   services.CardService
	ReviewService services.ReviewService
	DB            *sql.DB
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode response: %v", err)
	}
}
