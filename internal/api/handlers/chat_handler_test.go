package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Noah-Banjo/lr-schoolbot/internal/api/handlers"
	"github.com/Noah-Banjo/lr-schoolbot/internal/application/services"
	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/repositories"
)

func TestChatHandler_Chat_Success(t *testing.T) {
	app := newTestApp(t)

	w := httptest.NewRecorder()
	app.chat.Chat(w, jsonRequest(http.MethodPost, "/api/chat", `{"message":"When did Central High integrate?"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	var reply services.ChatReply
	require.NoError(t, json.NewDecoder(w.Body).Decode(&reply))
	assert.Equal(t, "Central High was integrated in September 1957.", reply.Reply)
	assert.NotEmpty(t, reply.InteractionID)
	assert.NotEmpty(t, reply.SessionID)

	sid := cookieNamed(w, handlers.SessionCookie)
	uid := cookieNamed(w, handlers.UserCookie)
	require.NotNil(t, sid)
	require.NotNil(t, uid)
	assert.True(t, sid.HttpOnly)
	assert.Greater(t, uid.MaxAge, 0)

	// The same cookies keep the same session.
	w2 := httptest.NewRecorder()
	app.chat.Chat(w2, jsonRequest(http.MethodPost, "/api/chat", `{"message":"Who was Daisy Bates?"}`, sid, uid))
	assert.Equal(t, http.StatusOK, w2.Code)
	var second services.ChatReply
	require.NoError(t, json.NewDecoder(w2.Body).Decode(&second))
	assert.Equal(t, reply.SessionID, second.SessionID)
	assert.Nil(t, cookieNamed(w2, handlers.UserCookie))

	assert.Len(t, readTable(t, app.store, repositories.TableSessions), 1)
	assert.Len(t, readTable(t, app.store, repositories.TableInteractions), 2)
}

func TestChatHandler_Chat_ReturningUser(t *testing.T) {
	app := newTestApp(t)

	req := jsonRequest(http.MethodPost, "/api/chat", `{"message":"hello"}`, &http.Cookie{Name: handlers.UserCookie, Value: "user-7"})
	w := httptest.NewRecorder()
	app.chat.Chat(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	session := repositories.SessionFromRecord(readTable(t, app.store, repositories.TableSessions)[0])
	assert.Equal(t, "user-7", session.UserID)
	assert.True(t, session.IsReturnUser)
}

func TestChatHandler_Chat_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fail   bool
		status int
	}{
		{"malformed json", `{"message":`, false, http.StatusBadRequest},
		{"empty message", `{"message":"   "}`, false, http.StatusBadRequest},
		{"model unavailable", `{"message":"Who was Daisy Bates?"}`, true, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			if tt.fail {
				app.failChat(errUpstream)
			}

			w := httptest.NewRecorder()
			app.chat.Chat(w, jsonRequest(http.MethodPost, "/api/chat", tt.body))

			assert.Equal(t, tt.status, w.Code)
			var body map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
			assert.Empty(t, readTable(t, app.store, repositories.TableInteractions))
		})
	}
}

func TestChatHandler_EndSession(t *testing.T) {
	app := newTestApp(t)

	w := httptest.NewRecorder()
	app.chat.Chat(w, jsonRequest(http.MethodPost, "/api/chat", `{"message":"Who was Daisy Bates?"}`))
	require.Equal(t, http.StatusOK, w.Code)
	sid := cookieNamed(w, handlers.SessionCookie)

	end := httptest.NewRecorder()
	app.chat.EndSession(end, jsonRequest(http.MethodPost, "/api/session/end", "", sid))
	assert.Equal(t, http.StatusOK, end.Code)
	cleared := cookieNamed(end, handlers.SessionCookie)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)

	session := repositories.SessionFromRecord(readTable(t, app.store, repositories.TableSessions)[0])
	require.NotNil(t, session.EndTime)
	assert.Equal(t, 1, session.InteractionCount)
	assert.Equal(t, 0, app.sessions.Len())

	// Without a session cookie there is nothing to end.
	none := httptest.NewRecorder()
	app.chat.EndSession(none, jsonRequest(http.MethodPost, "/api/session/end", ""))
	assert.Equal(t, http.StatusOK, none.Code)
}
