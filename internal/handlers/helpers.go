package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/eanlabs/bioplast/internal/app"
	"github.com/eanlabs/bioplast/internal/auth"
	"github.com/eanlabs/bioplast/internal/models"
)

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondServiceError maps the error taxonomy onto status codes:
// permission denials block with 403, lookup misses are 404, anything else
// is a 500.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrPermissionDenied):
		http.Error(w, "Permission denied", http.StatusForbidden)
	case errors.Is(err, app.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, auth.ErrEmailTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, auth.ErrUserInactive),
		errors.Is(err, auth.ErrWrongPassword):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	default:
		logger.Error.Printf("ERROR: %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

// requireSession resolves the bearer token; a missing or unknown token is
// a 401 and the handler must stop.
func requireSession(w http.ResponseWriter, r *http.Request, service *app.Service) *models.Session {
	sess, err := service.SessionFromRequest(r)
	if err != nil {
		logger.Error.Printf("Failed to resolve session: %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return nil
	}
	if sess == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil
	}
	return sess
}
