package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrRequestFailed = errors.New("request failed")
	ErrConnectivity  = errors.New("backend unreachable")
	ErrSuperseded    = errors.New("request superseded by a newer one")
)

// RequestError is a non-2xx response other than a mid-session 401.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Is makes every RequestError match ErrRequestFailed.
func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}

// ConnectivityError reports that no HTTP response was obtained from the backend.
type ConnectivityError struct {
	BaseURL string
	Err     error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("cannot reach server at %s: %v", e.BaseURL, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// Is makes every ConnectivityError match ErrConnectivity.
func (e *ConnectivityError) Is(target error) bool {
	return target == ErrConnectivity
}

// errorBody covers the error shapes the backend produces.
type errorBody struct {
	Msg     string `json:"msg"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Errors  []struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	} `json:"errors"`
}

// parseErrorMessage extracts the human-readable message of an error response body,
// falling back to the status text.
func parseErrorMessage(status int, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		for _, m := range []string{eb.Msg, eb.Message, eb.Error} {
			if m = strings.TrimSpace(m); m != "" {
				return m
			}
		}
		var parts []string
		for _, e := range eb.Errors {
			if m := strings.TrimSpace(e.Msg + e.Message); m != "" {
				parts = append(parts, m)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}

	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("request failed with status %d", status)
}
