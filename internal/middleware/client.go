package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hireloop/hireloop-web/internal/service"
)

const (
	// ClientCookie names the durable storage namespace. It outlives browser restarts.
	ClientCookie = "hl_client"
	// TabCookie names the ephemeral storage namespace. The browser drops it when
	// the browsing session ends.
	TabCookie = "hl_tab"

	clientCookieMaxAge = 365 * 24 * time.Hour
)

type contextKey string

const sessionKey contextKey = "session"

// SessionOpener opens the session stored under a client's namespaces.
type SessionOpener interface {
	Open(ctx context.Context, clientID, tabID string) (*service.Session, error)
}

// ClientScope returns middleware that identifies the browser by its storage cookies,
// issuing new ones when missing, and puts the browser's restored session in the
// request context.
func ClientScope(sessions SessionOpener, secureCookies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := ensureCookie(w, r, ClientCookie, clientCookieMaxAge, secureCookies)
			tabID := ensureCookie(w, r, TabCookie, 0, secureCookies)

			sess, err := sessions.Open(r.Context(), clientID, tabID)
			if err != nil {
				slog.ErrorContext(r.Context(), "opening client session failed", "client_id", clientID, "error", err)
				writeJSONError(w, http.StatusServiceUnavailable, "session storage unavailable")
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext extracts the client session from the request context.
func SessionFromContext(ctx context.Context) (*service.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*service.Session)
	return sess, ok && sess != nil
}

// ensureCookie returns the id stored in cookie name, issuing a fresh one when it is
// missing or not a UUID. maxAge 0 makes a browser-session cookie.
func ensureCookie(w http.ResponseWriter, r *http.Request, name string, maxAge time.Duration, secure bool) string {
	if c, err := r.Cookie(name); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	cookie := &http.Cookie{
		Name:     name,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge > 0 {
		cookie.MaxAge = int(maxAge.Seconds())
	}
	http.SetCookie(w, cookie)
	return id
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
