package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hireloop/hireloop-web/internal/guard"
	"github.com/hireloop/hireloop-web/internal/model"
	"github.com/hireloop/hireloop-web/internal/service"
)

// AuthHandler handles the session lifecycle endpoints.
type AuthHandler struct {
	readiness *service.Readiness
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(readiness *service.Readiness) *AuthHandler {
	return &AuthHandler{readiness: readiness}
}

type loginRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
	Remember bool       `json:"remember"`
	Next     string     `json:"next,omitempty"`
}

type sessionResponse struct {
	Resolved    bool            `json:"resolved"`
	Reachable   bool            `json:"reachable"`
	LoggedIn    bool            `json:"loggedIn"`
	Remembered  bool            `json:"remembered,omitempty"`
	User        *model.Identity `json:"user,omitempty"`
	AppliedJobs []string        `json:"appliedJobs,omitempty"`
	Unread      int             `json:"unreadNotifications,omitempty"`
	LastError   string          `json:"lastError,omitempty"`
	Redirect    string          `json:"redirect,omitempty"`
}

func (h *AuthHandler) sessionView(s *service.Session) sessionResponse {
	resp := sessionResponse{
		Resolved:   h.readiness.Resolved(),
		Reachable:  h.readiness.Reachable(),
		LoggedIn:   s.IsLoggedIn(),
		Remembered: s.Remembered(),
		LastError:  s.LastError(),
	}
	if identity, ok := s.Identity(); ok {
		resp.User = &identity
		for _, applied := range s.AppliedJobs() {
			resp.AppliedJobs = append(resp.AppliedJobs, applied.JobID)
		}
		resp.Unread = s.Notifications().Cached().Unread
	}
	return resp
}

// HandleHealth handles GET /health requests.
func (h *AuthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if !h.readiness.Resolved() {
		status = "loading"
	} else if !h.readiness.Reachable() {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// HandleSession handles GET /session requests.
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.sessionView(sess))
}

// HandleLogin handles POST /login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}

	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := sess.Login(r.Context(), req.Email, req.Password, req.Role, req.Remember); err != nil {
		writeError(w, r, err)
		return
	}

	resp := h.sessionView(sess)
	resp.Redirect = guard.LoginTarget(req.Next)
	writeJSON(w, http.StatusOK, resp)
}

// HandleRegister handles POST /register requests.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}

	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := sess.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse(msg))
}

// HandleLogout handles POST /logout requests.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}
	sess.Logout(r.Context())
	writeJSON(w, http.StatusOK, messageResponse("logged out"))
}

// HandleForgotPassword handles POST /forgot-password requests.
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := sess.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse(msg))
}

// HandleResetPassword handles POST /reset-password/{token} requests.
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := sess.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse(msg))
}

// HandleContact handles POST /contact requests.
func (h *AuthHandler) HandleContact(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}

	var req model.ContactMessage
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := sess.SendContact(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse(msg))
}
