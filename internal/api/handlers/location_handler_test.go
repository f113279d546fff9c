package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Noah-Banjo/lr-schoolbot/internal/api/handlers"
	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/entities"
)

func TestLocationHandler_ListLocations(t *testing.T) {
	w := httptest.NewRecorder()
	handlers.NewLocationHandler().ListLocations(w, httptest.NewRequest(http.MethodGet, "/api/locations", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Schools []entities.School `json:"schools"`
		Count   int               `json:"count"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Schools, 2)
	assert.Equal(t, "central-high", body.Schools[0].Slug)
	assert.InDelta(t, 34.7367, body.Schools[0].Latitude, 1e-6)
}
