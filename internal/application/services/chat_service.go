package services

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/providers"
	"github.com/Noah-Banjo/lr-schoolbot/internal/infrastructure/observability"
	apperrors "github.com/Noah-Banjo/lr-schoolbot/pkg/errors"
)

// MaxMessageLength bounds a single user message in runes.
const MaxMessageLength = 2000

// Conversation is the message history sent to the model. The first message
// is always the system prompt.
type Conversation struct {
	mu       sync.Mutex
	prompt   string
	messages []providers.ChatMessage
}

func newConversation(prompt string) *Conversation {
	c := &Conversation{prompt: prompt}
	c.Reset()
	return c
}

// Reset drops everything but the system prompt.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = []providers.ChatMessage{{Role: providers.RoleSystem, Content: c.prompt}}
}

func (c *Conversation) append(role, content string) []providers.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, providers.ChatMessage{Role: role, Content: content})
	out := make([]providers.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Transcript returns the user and assistant turns, oldest first.
func (c *Conversation) Transcript() []providers.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]providers.ChatMessage, 0, len(c.messages))
	for _, m := range c.messages {
		if m.Role != providers.RoleSystem {
			out = append(out, m)
		}
	}
	return out
}

// ChatReply is the outcome of one user message.
type ChatReply struct {
	Reply         string `json:"reply"`
	InteractionID string `json:"interaction_id,omitempty"`
	SessionID     string `json:"session_id,omitempty"`
	// AnalyticsError is set when the reply was produced but could not be logged.
	AnalyticsError string `json:"analytics_error,omitempty"`
}

// ChatService sends conversations to the language model and records each
// exchange on the caller's tracker.
type ChatService struct {
	provider     providers.ChatProvider
	systemPrompt string
	now          func() time.Time
}

func NewChatService(provider providers.ChatProvider, systemPrompt string) *ChatService {
	return &ChatService{provider: provider, systemPrompt: systemPrompt, now: time.Now}
}

// NewConversation starts a history seeded with the system prompt.
func (s *ChatService) NewConversation() *Conversation {
	return newConversation(s.systemPrompt)
}

// Ask sends message in the context of cs. A model failure returns an
// external error and records nothing; the user turn stays in the history.
// A storage failure still returns the reply, with AnalyticsError set.
func (s *ChatService) Ask(ctx context.Context, cs *ClientSession, message string) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("message is required")
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return nil, apperrors.NewValidationError("message is too long")
	}

	logger := observability.LoggerFromContext(ctx)

	start := s.now()
	history := cs.Conversation.append(providers.RoleUser, message)
	reply, err := s.provider.Complete(ctx, history)
	if err != nil {
		logger.Error().Err(err).Str("session_id", cs.Tracker.SessionID()).Msg("chat completion failed")
		return nil, apperrors.NewExternalError("SchoolBot is unavailable right now, please try again", err)
	}
	end := s.now()
	cs.Conversation.append(providers.RoleAssistant, reply)

	out := &ChatReply{Reply: reply, SessionID: cs.Tracker.SessionID()}
	id, err := cs.Tracker.TrackInteraction(ctx, InteractionInput{
		Query:     message,
		Response:  reply,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		logger.Error().Err(err).Str("session_id", out.SessionID).Msg("failed to record interaction")
		out.AnalyticsError = apperrors.PublicMessage(err)
		return out, nil
	}
	out.InteractionID = id
	return out, nil
}
