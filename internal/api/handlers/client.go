package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Noah-Banjo/lr-schoolbot/internal/application/services"
)

const (
	// UserCookie persists across visits and marks returning users.
	UserCookie = "schoolbot_uid"
	// SessionCookie lives as long as the browser session.
	SessionCookie = "schoolbot_sid"

	userCookieMaxAge = 365 * 24 * time.Hour
)

// ClientResolver maps request cookies onto client sessions.
type ClientResolver struct {
	sessions *services.ClientSessions
	secure   bool
}

func NewClientResolver(sessions *services.ClientSessions, secureCookies bool) *ClientResolver {
	return &ClientResolver{sessions: sessions, secure: secureCookies}
}

// Open returns the caller's session, starting one if needed and setting the
// cookies that identify it. The session is returned even when recording its
// start failed, so the caller can keep chatting without analytics.
func (c *ClientResolver) Open(w http.ResponseWriter, r *http.Request) (*services.ClientSession, error) {
	key := cookieValue(r, SessionCookie)
	if key == "" {
		key = uuid.New().String()
		c.setCookie(w, SessionCookie, key, 0)
	}

	userID := cookieValue(r, UserCookie)
	cs, err := c.sessions.Open(r.Context(), key, services.ClientInfo{
		UserID:    userID,
		UserAgent: r.UserAgent(),
	})
	if uid := cs.Tracker.UserID(); uid != "" && uid != userID {
		c.setCookie(w, UserCookie, uid, userCookieMaxAge)
	}
	return cs, err
}

// Lookup returns the caller's session without starting one.
func (c *ClientResolver) Lookup(r *http.Request) (*services.ClientSession, bool) {
	key := cookieValue(r, SessionCookie)
	if key == "" {
		return nil, false
	}
	return c.sessions.Lookup(key)
}

// End closes the caller's session and clears its cookie. The user cookie
// stays so the next visit counts as a return.
func (c *ClientResolver) End(w http.ResponseWriter, r *http.Request) error {
	key := cookieValue(r, SessionCookie)
	if key == "" {
		return nil
	}
	c.setCookie(w, SessionCookie, "", -1)
	return c.sessions.End(r.Context(), key)
}

func (c *ClientResolver) setCookie(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
	switch {
	case maxAge < 0:
		cookie.MaxAge = -1
	case maxAge > 0:
		cookie.MaxAge = int(maxAge.Seconds())
	}
	http.SetCookie(w, cookie)
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
