package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Noah-Banjo/lr-schoolbot/internal/application/services"
	apperrors "github.com/Noah-Banjo/lr-schoolbot/pkg/errors"
)

// ChatHandler serves the JSON chat API.
type ChatHandler struct {
	chat    *services.ChatService
	clients *ClientResolver
}

func NewChatHandler(chat *services.ChatService, clients *ClientResolver) *ChatHandler {
	return &ChatHandler{chat: chat, clients: clients}
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var payload chatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	cs, sessionErr := h.clients.Open(w, r)
	reply, err := h.chat.Ask(r.Context(), cs, payload.Message)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if sessionErr != nil && reply.AnalyticsError == "" {
		reply.AnalyticsError = apperrors.PublicMessage(sessionErr)
	}

	respondWithJSON(w, http.StatusOK, reply)
}

// EndSession handles POST /api/session/end
func (h *ChatHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.clients.End(w, r); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status": "ended",
	})
}
