// Package guard decides whether a request may reach a protected route.
package guard

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/hireloop/hireloop-web/internal/model"
)

// Kind is the outcome of a route check.
type Kind int

const (
	Loading Kind = iota
	Authorized
	RedirectLogin
	RedirectHome
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

func (k Kind) String() string {
	switch k {
	case Loading:
		return "loading"
	case Authorized:
		return "authorized"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	}
	return "unknown"
}

// State is the session view a decision is derived from.
type State struct {
	// Resolved is false until the startup connectivity probe completes.
	Resolved bool
	Identity *model.Identity
	Token    string
}

// Decision is the outcome of Decide.
type Decision struct {
	Kind Kind
	// Location is the redirect target for RedirectLogin and RedirectHome.
	Location string
}

// Decide maps the session state and the route's required role to an outcome.
// An empty required role admits any logged-in user. A missing identity and a
// missing token are the same unauthenticated state.
func Decide(st State, required model.Role) Decision {
	switch {
	case !st.Resolved:
		return Decision{Kind: Loading}
	case st.Identity == nil || st.Token == "":
		return Decision{Kind: RedirectLogin, Location: LoginPath}
	case required != "" && st.Identity.Role != required:
		return Decision{Kind: RedirectHome, Location: HomePath}
	}
	return Decision{Kind: Authorized}
}

// Readiness reports whether the startup probe has completed.
type Readiness interface {
	Resolved() bool
}

// Session is the part of a session the guard reads.
type Session interface {
	Identity() (model.Identity, bool)
	Token() string
}

// Require returns middleware admitting only requests whose session satisfies role.
// It renders a 503 placeholder while loading and redirects otherwise. sessionFrom
// may return nil when the request carries no session.
func Require(ready Readiness, sessionFrom func(*http.Request) Session, role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := Decide(stateOf(ready, sessionFrom(r)), role)

			switch d.Kind {
			case Authorized:
				next.ServeHTTP(w, r)
			case Loading:
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Cache-Control", "no-store")
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "loading"})
			case RedirectLogin:
				http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusFound)
			default:
				http.Redirect(w, r, d.Location, http.StatusFound)
			}
		})
	}
}

func stateOf(ready Readiness, s Session) State {
	st := State{Resolved: ready == nil || ready.Resolved()}
	if s == nil {
		return st
	}
	if identity, ok := s.Identity(); ok {
		st.Identity = &identity
		st.Token = s.Token()
	}
	return st
}

// LoginURL is the login page URL that returns to next after login.
func LoginURL(next string) string {
	target := LoginTarget(next)
	if target == HomePath {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(target)
}

// LoginTarget sanitises a post-login return location. Only same-site relative
// paths survive; anything else becomes the home page.
func LoginTarget(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return HomePath
	}
	// protocol-relative and backslash tricks
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") || strings.ContainsAny(next, "\r\n") {
		return HomePath
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return HomePath
	}
	if u.Path == LoginPath {
		return HomePath
	}
	return next
}
