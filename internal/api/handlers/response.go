package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Noah-Banjo/lr-schoolbot/internal/infrastructure/observability"
	apperrors "github.com/Noah-Banjo/lr-schoolbot/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps err onto its HTTP status and public message.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	respondWithError(w, status, apperrors.PublicMessage(err))
}
