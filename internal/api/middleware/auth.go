package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"

	"github.com/Noah-Banjo/lr-schoolbot/internal/infrastructure/observability"
)

const dashboardRealm = `Basic realm="SchoolBot dashboard", charset="UTF-8"`

// DashboardAuth gates next behind HTTP basic auth. Any user name is
// accepted; only the password is checked.
func DashboardAuth(password string) func(http.Handler) http.Handler {
	want := sha256.Sum256([]byte(password))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, given, ok := r.BasicAuth()
			got := sha256.Sum256([]byte(given))
			if !ok || subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
				if ok {
					observability.LoggerFromContext(r.Context()).Warn().Str("path", r.URL.Path).Msg("dashboard password rejected")
				}
				w.Header().Set("WWW-Authenticate", dashboardRealm)
				http.Error(w, "Password incorrect", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
