package handlers

import (
	"net/http"

	"github.com/Noah-Banjo/lr-schoolbot/internal/application/services"
)

// LocationHandler serves map markers for the historic schools.
type LocationHandler struct{}

func NewLocationHandler() *LocationHandler {
	return &LocationHandler{}
}

// ListLocations handles GET /api/locations
func (h *LocationHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	schools := services.Schools()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"schools": schools,
		"count":   len(schools),
	})
}
