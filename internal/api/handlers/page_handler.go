package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Noah-Banjo/lr-schoolbot/internal/application/services"
	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/providers"
	apperrors "github.com/Noah-Banjo/lr-schoolbot/pkg/errors"
)

// PageHandler serves the visitor-facing HTML pages, including the form
// based chat.
type PageHandler struct {
	render   *renderer
	chat     *services.ChatService
	clients  *ClientResolver
	feedback *FeedbackHandler
}

func NewPageHandler(chat *services.ChatService, clients *ClientResolver, feedback *FeedbackHandler) (*PageHandler, error) {
	rd, err := newRenderer()
	if err != nil {
		return nil, err
	}
	return &PageHandler{render: rd, chat: chat, clients: clients, feedback: feedback}, nil
}

type chatPage struct {
	Transcript        []providers.ChatMessage
	LastInteractionID string
	Error             string
	AnalyticsError    string
	Thanks            bool
	MaxLength         int
}

// Home handles GET /
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render.render(w, r, http.StatusOK, "home.html", pageData{Title: "Home", Active: "home"})
}

// Locations handles GET /locations
func (h *PageHandler) Locations(w http.ResponseWriter, r *http.Request) {
	h.render.render(w, r, http.StatusOK, "locations.html", pageData{Title: "School Locations", Active: "locations", Data: services.Schools()})
}

// About handles GET /about
func (h *PageHandler) About(w http.ResponseWriter, r *http.Request) {
	h.render.render(w, r, http.StatusOK, "about.html", pageData{Title: "About", Active: "about"})
}

// Sources handles GET /sources
func (h *PageHandler) Sources(w http.ResponseWriter, r *http.Request) {
	h.render.render(w, r, http.StatusOK, "sources.html", pageData{Title: "Sources", Active: "sources"})
}

// Chat handles GET /chat
func (h *PageHandler) Chat(w http.ResponseWriter, r *http.Request) {
	cs, err := h.clients.Open(w, r)
	page := h.chatPage(cs)
	if err != nil {
		page.AnalyticsError = apperrors.PublicMessage(err)
	}
	page.Thanks = r.URL.Query().Get("feedback") == "thanks"
	h.renderChat(w, r, http.StatusOK, page)
}

// SendMessage handles POST /chat
func (h *PageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	cs, sessionErr := h.clients.Open(w, r)
	reply, err := h.chat.Ask(r.Context(), cs, r.PostForm.Get("message"))
	page := h.chatPage(cs)
	if err != nil {
		page.Error = apperrors.PublicMessage(err)
		h.renderChat(w, r, apperrors.HTTPStatus(err), page)
		return
	}

	switch {
	case reply.AnalyticsError != "":
		page.AnalyticsError = reply.AnalyticsError
	case sessionErr != nil:
		page.AnalyticsError = apperrors.PublicMessage(sessionErr)
	}
	h.renderChat(w, r, http.StatusOK, page)
}

// Feedback handles POST /chat/feedback
func (h *PageHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	score, convErr := strconv.Atoi(r.PostForm.Get("score"))
	err := convErr
	if err == nil {
		err = h.feedback.submit(r, strings.TrimSpace(r.PostForm.Get("interaction_id")), score)
	}
	if err == nil {
		http.Redirect(w, r, "/chat?feedback=thanks", http.StatusSeeOther)
		return
	}

	cs, _ := h.clients.Open(w, r)
	page := h.chatPage(cs)
	status := apperrors.HTTPStatus(err)
	switch {
	case convErr != nil:
		status = http.StatusBadRequest
		page.Error = "invalid feedback score"
	case errors.Is(err, errRateLimited):
		status = http.StatusTooManyRequests
		page.Error = "Too much feedback from this address, please try again later."
	default:
		page.Error = apperrors.PublicMessage(err)
	}
	h.renderChat(w, r, status, page)
}

func (h *PageHandler) chatPage(cs *services.ClientSession) chatPage {
	return chatPage{
		Transcript:        cs.Conversation.Transcript(),
		LastInteractionID: cs.Tracker.LastInteractionID(),
		MaxLength:         services.MaxMessageLength,
	}
}

func (h *PageHandler) renderChat(w http.ResponseWriter, r *http.Request, status int, page chatPage) {
	h.render.render(w, r, status, "chat.html", pageData{Title: "Chat with SchoolBot", Active: "chat", Data: page})
}
