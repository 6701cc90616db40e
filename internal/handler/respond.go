// Package handler serves the browser-facing JSON API in front of the marketplace backend.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hireloop/hireloop-web/internal/gateway"
	"github.com/hireloop/hireloop-web/internal/middleware"
	"github.com/hireloop/hireloop-web/internal/service"
)

const maxBodyBytes = 1 << 20 // 1MB

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func messageResponse(msg string) map[string]string {
	return map[string]string{"msg": msg}
}

// decodeJSON reads a JSON body of at most 1MB into v. It writes the error response
// itself and reports false when the body is unusable.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("request body too large"))
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return false
	}
	return true
}

// sessionOf returns the client session ClientScope attached to the request.
func sessionOf(w http.ResponseWriter, r *http.Request) (*service.Session, bool) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return nil, false
	}
	return sess, true
}

// writeError maps a service error to its HTTP response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *gateway.RequestError

	switch {
	case errors.Is(err, service.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse(service.UserMessage(err)))
	case errors.Is(err, service.ErrAuthentication),
		errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrNotLoggedIn):
		writeJSON(w, http.StatusUnauthorized, errorResponse(service.UserMessage(err)))
	case errors.Is(err, service.ErrSuperseded):
		writeJSON(w, http.StatusConflict, errorResponse("request superseded by a newer one"))
	case errors.Is(err, context.Canceled):
		writeJSON(w, http.StatusRequestTimeout, errorResponse("request cancelled"))
	case errors.Is(err, service.ErrConnectivity):
		writeJSON(w, http.StatusBadGateway, errorResponse(service.UserMessage(err)))
	case errors.As(err, &reqErr):
		status := reqErr.Status
		if status < 400 || status >= 500 {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, errorResponse(reqErr.Message))
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
	}
}
