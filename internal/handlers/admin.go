package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/eanlabs/bioplast/internal/app"
	"github.com/eanlabs/bioplast/internal/models"
)

type AdminHandler struct {
	service *app.Service
}

func NewAdminHandler(service *app.Service) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r, h.service)
	if sess == nil {
		return
	}

	users, err := h.service.ListUsers(sess)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, map[string]any{
		"rows": users,
	})
}

func (h *AdminHandler) HandleRegisterUser(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r, h.service)
	if sess == nil {
		return
	}

	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if user.Name == "" || user.Email == "" || user.Password == "" {
		http.Error(w, "name, email and password are required", http.StatusBadRequest)
		return
	}
	user.Active = true

	created, err := h.service.RegisterUser(sess, user)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, created)
}

func (h *AdminHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r, h.service)
	if sess == nil {
		return
	}

	var update models.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.service.UpdateUser(sess, r.PathValue("id"), update)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, user)
}

func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r, h.service)
	if sess == nil {
		return
	}

	if err := h.service.DeleteUser(sess, r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleAuditLog returns the trail in insertion order; clients reverse it
// for most-recent-first display.
func (h *AdminHandler) HandleAuditLog(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r, h.service)
	if sess == nil {
		return
	}

	entries, err := h.service.AuditEntries(sess)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, map[string]any{
		"rows": entries,
	})
}

func (h *AdminHandler) HandleClearAudit(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r, h.service)
	if sess == nil {
		return
	}

	if err := h.service.ClearAudit(sess); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
