package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/eanlabs/bioplast/internal/app"
)

type SessionHandler struct {
	service *app.Service
}

func NewSessionHandler(service *app.Service) *SessionHandler {
	return &SessionHandler{service: service}
}

func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	token, sess, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, map[string]any{
		"token":   token,
		"session": sess,
	})
}

func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token := h.service.BearerToken(r)
	if token == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.service.Logout(r.Context(), token); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
