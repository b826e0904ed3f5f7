package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/eanlabs/bioplast/internal/app"
	"github.com/eanlabs/bioplast/internal/models"
)

type PracticeHandler struct {
	service *app.Service
}

func NewPracticeHandler(service *app.Service) *PracticeHandler {
	return &PracticeHandler{service: service}
}

func (h *PracticeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r, h.service)
	if sess == nil {
		return
	}

	p, err := h.service.Practice(sess, r.PathValue("code"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, p)
}

func (h *PracticeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r, h.service)
	if sess == nil {
		return
	}

	var update models.PracticeUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.service.UpdatePractice(sess, r.PathValue("code"), update)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, p)
}

// HandleSaveHeat persists a finished stopwatch run: seconds, optional peak
// temperature, and heating notes.
func (h *PracticeHandler) HandleSaveHeat(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r, h.service)
	if sess == nil {
		return
	}

	var req struct {
		Seconds int      `json:"seconds"`
		MaxTemp *float64 `json:"maxTemp,omitempty"`
		Notes   string   `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Seconds < 0 {
		http.Error(w, "seconds must not be negative", http.StatusBadRequest)
		return
	}

	p, err := h.service.RecordHeat(sess, r.PathValue("code"), req.Seconds, req.MaxTemp, req.Notes)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, p)
}

// HandleAttachPhoto stores the final-film photo data URI. The merge happens
// against the current stored record, not the client's snapshot.
func (h *PracticeHandler) HandleAttachPhoto(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r, h.service)
	if sess == nil {
		return
	}

	var req struct {
		PhotoDataURL string `json:"photoDataUrl"`
		FinalNotes   string `json:"finalNotes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PhotoDataURL == "" {
		http.Error(w, "photoDataUrl is required", http.StatusBadRequest)
		return
	}

	p, err := h.service.AttachPhoto(sess, r.PathValue("code"), req.PhotoDataURL, req.FinalNotes)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, p)
}

func (h *PracticeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r, h.service)
	if sess == nil {
		return
	}

	if err := h.service.DeletePractice(sess, r.PathValue("code")); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
