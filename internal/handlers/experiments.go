package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/eanlabs/bioplast/internal/app"
	"github.com/eanlabs/bioplast/internal/calc"
	"github.com/eanlabs/bioplast/internal/metrics"
	"github.com/eanlabs/bioplast/internal/models"
	"github.com/eanlabs/bioplast/internal/repo"
)

type ExperimentHandler struct {
	service *app.Service
}

func NewExperimentHandler(service *app.Service) *ExperimentHandler {
	return &ExperimentHandler{service: service}
}

// HandleStart creates an experiment from either a starch mass (the normal
// calculated flow) or an explicit manual reagent set, plus a replica count.
func (h *ExperimentHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		duration := time.Since(start).Seconds()
		metrics.APIRequestDuration.WithLabelValues(
			r.URL.Path,
			r.Method,
			"200",
		).Observe(duration)
	}()

	sess := requireSession(w, r, h.service)
	if sess == nil {
		return
	}

	var req struct {
		StarchG  *float64         `json:"starch_g,omitempty"`
		Base     *models.Reagents `json:"base,omitempty"`
		Replicas int              `json:"replicas"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var base models.Reagents
	switch {
	case req.StarchG != nil:
		base = calc.ReagentsFromStarch(*req.StarchG)
	case req.Base != nil:
		base = *req.Base
	default:
		http.Error(w, "either starch_g or base reagents are required", http.StatusBadRequest)
		return
	}

	exp, practices, err := h.service.StartExperiment(sess, base, req.Replicas)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, map[string]any{
		"experiment": exp,
		"practices":  practices,
	})
}

func (h *ExperimentHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r, h.service)
	if sess == nil {
		return
	}

	mode := repo.SearchMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = repo.SearchAuto
	}

	results, err := h.service.Search(sess, mode, r.URL.Query().Get("q"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, map[string]any{
		"rows": results,
	})
}

func (h *ExperimentHandler) HandleGroup(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r, h.service)
	if sess == nil {
		return
	}
	number, ok := experimentNumber(w, r)
	if !ok {
		return
	}

	exp, practices, err := h.service.ExperimentGroup(sess, number)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, map[string]any{
		"experiment": exp,
		"practices":  practices,
	})
}

func (h *ExperimentHandler) HandleReliability(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r, h.service)
	if sess == nil {
		return
	}
	number, ok := experimentNumber(w, r)
	if !ok {
		return
	}

	report, err := h.service.Reliability(sess, number)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, report)
}

func (h *ExperimentHandler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r, h.service)
	if sess == nil {
		return
	}
	number, ok := experimentNumber(w, r)
	if !ok {
		return
	}

	filename, csv, err := h.service.ExportCSV(sess, number)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write([]byte(csv))
}

func (h *ExperimentHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r, h.service)
	if sess == nil {
		return
	}
	number, ok := experimentNumber(w, r)
	if !ok {
		return
	}

	exp, err := h.service.CloseExperiment(sess, number)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, exp)
}

func (h *ExperimentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r, h.service)
	if sess == nil {
		return
	}
	number, ok := experimentNumber(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteExperiment(sess, number); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func experimentNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number <= 0 {
		http.Error(w, "Invalid experiment number", http.StatusBadRequest)
		return 0, false
	}
	return number, true
}
