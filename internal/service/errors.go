package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/hireloop/hireloop-web/internal/gateway"
)

var (
	ErrConnectivity   = gateway.ErrConnectivity
	ErrUnauthorized   = gateway.ErrUnauthorized
	ErrRequestFailed  = gateway.ErrRequestFailed
	ErrSuperseded     = gateway.ErrSuperseded
	ErrAuthentication = errors.New("authentication failed")
	ErrValidation     = errors.New("validation failed")
	ErrNotLoggedIn    = errors.New("not logged in")
)

const (
	connectivityMessage = "Cannot reach the server. Check your connection and try again."
	unauthorizedMessage = "Your session has expired. Please log in again."
	notLoggedInMessage  = "Please log in to continue."
)

// AuthError is a login rejected by the backend. Message is the server's text.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// Is makes every AuthError match ErrAuthentication.
func (e *AuthError) Is(target error) bool {
	return target == ErrAuthentication
}

// ValidationError is malformed registration, profile or form input, rejected either
// locally or by the backend.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// UserMessage returns the text shown to the user for err. Cancelled and superseded
// calls produce no message.
func UserMessage(err error) string {
	var (
		authErr *AuthError
		valErr  *ValidationError
		reqErr  *gateway.RequestError
		connErr *gateway.ConnectivityError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSuperseded), errors.Is(err, context.Canceled):
		return ""
	case errors.As(err, &authErr):
		return authErr.Message
	case errors.As(err, &valErr):
		return valErr.Message
	case errors.Is(err, ErrUnauthorized):
		return unauthorizedMessage
	case errors.Is(err, ErrNotLoggedIn):
		return notLoggedInMessage
	case errors.As(err, &connErr):
		return connectivityMessage
	case errors.As(err, &reqErr):
		return reqErr.Message
	}
	return err.Error()
}

// asAuthError turns a client-side rejection of a login into an AuthError.
func asAuthError(err error) error {
	var reqErr *gateway.RequestError
	if errors.As(err, &reqErr) && reqErr.Status >= 400 && reqErr.Status < 500 {
		return &AuthError{Status: reqErr.Status, Message: reqErr.Message}
	}
	return err
}

// asValidationError turns a backend 400/409/422 into a ValidationError carrying the server's message.
func asValidationError(err error) error {
	var reqErr *gateway.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.Status {
		case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
			return &ValidationError{Message: reqErr.Message}
		}
	}
	return err
}
