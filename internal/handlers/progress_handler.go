package handlers

import (
	"net/http"
	"strconv"

	"signlearn/internal/service"
)

// ProgressHandler serves the user's progress views
type ProgressHandler struct {
	progressService *service.ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// Overview returns totals, per-module rows and overall accuracy
func (h *ProgressHandler) Overview(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	overview, err := h.progressService.GetOverview(r.Context(), user.ID)
	if err != nil {
		respondServiceError(w, "Error loading progress overview", err)
		return
	}
	respondOK(w, overview)
}

// Modules returns one progress row per module
func (h *ProgressHandler) Modules(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	summary, err := h.progressService.GetModuleProgressSummary(r.Context(), user.ID)
	if err != nil {
		respondServiceError(w, "Error loading module progress", err)
		return
	}
	respondOK(w, summary)
}

// Mistakes returns the user's mistakes, optionally limited by ?module_id=
func (h *ProgressHandler) Mistakes(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var moduleID int64
	if raw := r.URL.Query().Get("module_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid module_id", "", nil)
			return
		}
		moduleID = id
	}

	mistakes, err := h.progressService.GetMistakes(r.Context(), user.ID, moduleID)
	if err != nil {
		respondServiceError(w, "Error loading mistakes", err)
		return
	}
	respondOK(w, mistakes)
}
