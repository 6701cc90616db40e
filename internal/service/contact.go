package service

import (
	"context"
	"net/http"

	"github.com/hireloop/hireloop-web/internal/gateway"
	"github.com/hireloop/hireloop-web/internal/model"
)

// SendContact submits the public contact form and returns the backend's acknowledgement.
func (s *Session) SendContact(ctx context.Context, msg model.ContactMessage) (string, error) {
	if err := validateStruct(msg); err != nil {
		return "", err
	}

	var resp model.MessageResponse
	err := s.api.Do(ctx, gateway.Request{
		Method:    http.MethodPost,
		Path:      "/contact",
		Body:      msg,
		Action:    "contact",
		Anonymous: true,
	}, &resp)
	if err != nil {
		return "", asValidationError(err)
	}
	return resp.Msg, nil
}
