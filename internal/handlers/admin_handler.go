package handlers

import (
	"net/http"

	"signlearn/internal/models"
	"signlearn/internal/service"
)

// AdminHandler handles admin-specific routes
type AdminHandler struct {
	catalogService *service.CatalogService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(catalogService *service.CatalogService) *AdminHandler {
	return &AdminHandler{catalogService: catalogService}
}

// ImportCurriculum adds the modules of a JSON curriculum to the catalog
func (h *AdminHandler) ImportCurriculum(w http.ResponseWriter, r *http.Request) {
	var curriculum models.Curriculum
	if err := decodeJSON(w, r, &curriculum, maxCurriculumBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	result, err := h.catalogService.Import(r.Context(), &curriculum)
	if err != nil {
		respondServiceError(w, "Error importing curriculum", err)
		return
	}
	respondCreated(w, result)
}

// ExportCurriculum returns the whole catalog as a curriculum document
func (h *AdminHandler) ExportCurriculum(w http.ResponseWriter, r *http.Request) {
	curriculum, err := h.catalogService.Export(r.Context())
	if err != nil {
		respondServiceError(w, "Error exporting curriculum", err)
		return
	}
	respondOK(w, curriculum)
}
