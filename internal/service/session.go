// Package service holds the per-client session lifecycle and the backend resource clients built on it.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sync"

	"github.com/hireloop/hireloop-web/internal/gateway"
	"github.com/hireloop/hireloop-web/internal/model"
	"github.com/hireloop/hireloop-web/internal/repository"
)

// GatewayFactory builds the gateway a Session talks through, bound to the session's
// token and 401 teardown.
type GatewayFactory func(tokens gateway.TokenSource, onUnauthorized gateway.UnauthorizedFunc) *gateway.Gateway

// Session owns one client's identity, token and derived caches. Every backend call
// made through it tears the session down on a 401.
type Session struct {
	store  *repository.CredentialStore
	api    *gateway.Gateway
	logger *slog.Logger

	mu            sync.RWMutex
	identity      *model.Identity
	token         string
	remembered    bool
	appliedJobs   []model.AppliedJob
	notifications []model.Notification
	lastError     string
}

// NewSession creates a logged-out Session. Call Restore to pick up a stored session.
func NewSession(store *repository.CredentialStore, newGateway GatewayFactory, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{store: store, logger: logger}
	s.api = newGateway(gateway.TokenFunc(s.Token), s.expire)
	return s
}

// Restore loads the stored session and its cached projections. Unusable stored data
// leaves the session logged out.
func (s *Session) Restore(ctx context.Context) error {
	creds, err := s.store.Load(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "loading stored session failed", "error", err)
		return fmt.Errorf("restoring session: %w", err)
	}
	if creds == nil {
		return nil
	}

	jobs := s.store.LoadAppliedJobs(ctx)
	notifications := s.store.LoadNotifications(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	identity := creds.Identity
	s.identity = &identity
	s.token = creds.Token
	s.remembered = creds.Remembered
	s.appliedJobs = jobs
	s.notifications = notifications
	return nil
}

// Login authenticates against the backend and persists the session in durable
// storage when remember is set, ephemeral storage otherwise. On failure the session
// is left untouched and the error's user message is recorded.
func (s *Session) Login(ctx context.Context, email, password string, role model.Role, remember bool) error {
	req := model.LoginRequest{Email: email, Password: password, Role: role}
	if err := validateStruct(req); err != nil {
		return s.fail(err)
	}

	var resp model.AuthResponse
	err := s.api.Do(ctx, gateway.Request{
		Method:    http.MethodPost,
		Path:      "/auth/login",
		Body:      req,
		Action:    "login",
		Anonymous: true,
	}, &resp)
	if err != nil {
		s.logger.InfoContext(ctx, "login failed", "email", email, "role", role, "error", err)
		return s.fail(asAuthError(err))
	}
	if resp.Token == "" || resp.User.ID == "" {
		return s.fail(fmt.Errorf("%w: login response is missing the token or user", ErrRequestFailed))
	}

	if err := s.store.Save(ctx, resp.User, resp.Token, remember); err != nil {
		return s.fail(fmt.Errorf("persisting session: %w", err))
	}
	if err := s.store.ClearAppliedJobs(ctx); err != nil {
		s.logger.WarnContext(ctx, "clearing applied jobs cache failed", "error", err)
	}
	if err := s.store.SaveNotifications(ctx, []model.Notification{}); err != nil {
		s.logger.WarnContext(ctx, "clearing notifications cache failed", "error", err)
	}
	if err := s.store.SaveProfileRefs(ctx, resp.User.ProfilePhoto, resp.User.Resume); err != nil {
		s.logger.WarnContext(ctx, "saving profile refs failed", "error", err)
	}

	s.mu.Lock()
	identity := resp.User
	s.identity = &identity
	s.token = resp.Token
	s.remembered = remember
	s.appliedJobs = nil
	s.notifications = nil
	s.lastError = ""
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "user logged in", "user_id", identity.ID, "role", identity.Role, "remember", remember)
	return nil
}

// Register creates an account. It never logs in; the caller logs in separately.
func (s *Session) Register(ctx context.Context, req model.RegisterRequest) (string, error) {
	if err := validateStruct(req); err != nil {
		return "", s.fail(err)
	}

	var resp model.MessageResponse
	err := s.api.Do(ctx, gateway.Request{
		Method:    http.MethodPost,
		Path:      "/auth/register",
		Body:      req,
		Action:    "register",
		Anonymous: true,
	}, &resp)
	if err != nil {
		return "", s.fail(asValidationError(err))
	}

	s.ClearError()
	return resp.Msg, nil
}

// Logout clears the in-memory session and everything stored for it. It is safe to
// call when already logged out.
func (s *Session) Logout(ctx context.Context) {
	s.clear(ctx)

	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()
}

// expire is the gateway's 401 hook. A rejection of a token this session no longer
// holds is ignored, as is one whose stored session has since been replaced.
func (s *Session) expire(ctx context.Context, rejectedToken string) {
	s.mu.Lock()
	if rejectedToken == "" || s.token != rejectedToken {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "ignoring 401 for a superseded token")
		return
	}
	userID := s.identity.ID
	s.identity = nil
	s.token = ""
	s.remembered = false
	s.appliedJobs = nil
	s.notifications = nil
	s.lastError = unauthorizedMessage
	s.mu.Unlock()

	cleared, err := s.store.ClearToken(ctx, rejectedToken)
	if err != nil {
		s.logger.WarnContext(ctx, "clearing stored session failed", "error", err)
	}
	s.logger.InfoContext(ctx, "session expired", "user_id", userID, "storage_cleared", cleared)
}

func (s *Session) clear(ctx context.Context) {
	s.mu.Lock()
	userID := ""
	if s.identity != nil {
		userID = s.identity.ID
	}
	s.identity = nil
	s.token = ""
	s.remembered = false
	s.appliedJobs = nil
	s.notifications = nil
	s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		s.logger.WarnContext(ctx, "clearing stored session failed", "error", err)
	}
	if userID != "" {
		s.logger.InfoContext(ctx, "user logged out", "user_id", userID)
	}
}

// ForgotPassword asks the backend to send a reset link. It never changes the
// identity or token; a failure is recorded in the last-error slot.
func (s *Session) ForgotPassword(ctx context.Context, email string) (string, error) {
	if err := validateVar("email", email, "required,email"); err != nil {
		return "", s.fail(err)
	}

	var resp model.MessageResponse
	err := s.api.Do(ctx, gateway.Request{
		Method:    http.MethodPost,
		Path:      "/auth/forgot-password",
		Body:      map[string]string{"email": email},
		Action:    "forgot-password",
		Anonymous: true,
	}, &resp)
	if err != nil {
		return "", s.fail(err)
	}

	s.ClearError()
	return resp.Msg, nil
}

// ResetPassword sets a new password using a reset token. It never changes the
// identity or token; a failure is recorded in the last-error slot.
func (s *Session) ResetPassword(ctx context.Context, resetToken, newPassword string) (string, error) {
	if err := validateVar("token", resetToken, "required"); err != nil {
		return "", s.fail(err)
	}
	if err := validateVar("password", newPassword, "required,min=6"); err != nil {
		return "", s.fail(err)
	}

	var resp model.MessageResponse
	err := s.api.Do(ctx, gateway.Request{
		Method:    http.MethodPost,
		Path:      "/auth/reset-password/" + url.PathEscape(resetToken),
		Body:      map[string]string{"password": newPassword},
		Action:    "reset-password",
		Anonymous: true,
	}, &resp)
	if err != nil {
		return "", s.fail(asValidationError(err))
	}

	s.ClearError()
	return resp.Msg, nil
}

// RefreshProfile re-reads the identity from the backend.
func (s *Session) RefreshProfile(ctx context.Context) (model.Identity, error) {
	token, err := s.requireToken()
	if err != nil {
		return model.Identity{}, err
	}

	var raw json.RawMessage
	if err := s.api.Do(ctx, gateway.Request{Path: "/users/profile", Action: "profile"}, &raw); err != nil {
		return model.Identity{}, err
	}
	identity, err := decodeUser(raw)
	if err != nil {
		return model.Identity{}, err
	}
	return s.replaceIdentity(ctx, token, identity)
}

// UpdateProfile applies upd and replaces the identity with the backend's result.
func (s *Session) UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (model.Identity, error) {
	token, err := s.requireToken()
	if err != nil {
		return model.Identity{}, err
	}
	if err := validateStruct(upd); err != nil {
		return model.Identity{}, s.fail(err)
	}

	var raw json.RawMessage
	err = s.api.Do(ctx, gateway.Request{
		Method: http.MethodPut,
		Path:   "/users/profile",
		Body:   upd,
		Action: "profile-update",
	}, &raw)
	if err != nil {
		return model.Identity{}, s.fail(asValidationError(err))
	}
	identity, err := decodeUser(raw)
	if err != nil {
		return model.Identity{}, err
	}
	return s.replaceIdentity(ctx, token, identity)
}

// UploadPhoto uploads a profile photo.
func (s *Session) UploadPhoto(ctx context.Context, filename string, file io.Reader) (model.Identity, error) {
	return s.upload(ctx, "/users/upload/photo", "profilePhoto", filename, file, func(id *model.Identity, ref string) {
		id.ProfilePhoto = ref
	})
}

// UploadResume uploads a resume document.
func (s *Session) UploadResume(ctx context.Context, filename string, file io.Reader) (model.Identity, error) {
	return s.upload(ctx, "/users/upload/resume", "resume", filename, file, func(id *model.Identity, ref string) {
		id.Resume = ref
	})
}

func (s *Session) upload(ctx context.Context, path, field, filename string, file io.Reader, setRef func(*model.Identity, string)) (model.Identity, error) {
	token, err := s.requireToken()
	if err != nil {
		return model.Identity{}, err
	}

	var resp model.UploadResponse
	if err := s.api.Upload(ctx, path, field, filename, file, &resp); err != nil {
		return model.Identity{}, s.fail(asValidationError(err))
	}

	var identity model.Identity
	if resp.User != nil {
		identity = *resp.User
	} else {
		current, ok := s.Identity()
		if !ok {
			return model.Identity{}, ErrUnauthorized
		}
		identity = current
		setRef(&identity, resp.URL)
	}
	return s.replaceIdentity(ctx, token, identity)
}

// replaceIdentity swaps in identity wholesale and re-persists it in the slot the
// session was saved to. It is dropped when the session changed since token was read.
func (s *Session) replaceIdentity(ctx context.Context, token string, identity model.Identity) (model.Identity, error) {
	s.mu.Lock()
	if s.token == "" || s.token != token {
		s.mu.Unlock()
		return model.Identity{}, ErrUnauthorized
	}
	s.identity = &identity
	remembered := s.remembered
	s.mu.Unlock()

	if err := s.store.Save(ctx, identity, token, remembered); err != nil {
		return identity, fmt.Errorf("persisting profile: %w", err)
	}
	if err := s.store.SaveProfileRefs(ctx, identity.ProfilePhoto, identity.Resume); err != nil {
		s.logger.WarnContext(ctx, "saving profile refs failed", "error", err)
	}
	return identity, nil
}

func decodeUser(raw json.RawMessage) (model.Identity, error) {
	var wrapped model.ProfileResponse
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User.ID != "" {
		return wrapped.User, nil
	}
	var identity model.Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return model.Identity{}, fmt.Errorf("decoding profile: %w", err)
	}
	if identity.ID == "" {
		return model.Identity{}, fmt.Errorf("%w: profile response has no user", ErrRequestFailed)
	}
	return identity, nil
}

// IsLoggedIn reports whether both identity and token are present.
func (s *Session) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil && s.token != ""
}

// Identity returns a copy of the current identity.
func (s *Session) Identity() (model.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil || s.token == "" {
		return model.Identity{}, false
	}
	identity := *s.identity
	identity.Skills = slices.Clone(identity.Skills)
	return identity, true
}

// Role returns the current user's role, or "" when logged out.
func (s *Session) Role() model.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil || s.token == "" {
		return ""
	}
	return s.identity.Role
}

// Token returns the bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Remembered reports whether the session lives in durable storage.
func (s *Session) Remembered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remembered
}

// LastError returns the user message of the last failed auth flow.
func (s *Session) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// ClearError empties the last-error slot.
func (s *Session) ClearError() {
	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()
}

// fail records err's user message and returns err.
func (s *Session) fail(err error) error {
	if msg := UserMessage(err); msg != "" {
		s.mu.Lock()
		s.lastError = msg
		s.mu.Unlock()
	}
	return err
}

func (s *Session) requireToken() (string, error) {
	if token := s.Token(); token != "" {
		return token, nil
	}
	return "", ErrNotLoggedIn
}

// AppliedJobs returns the local applied-jobs projection.
func (s *Session) AppliedJobs() []model.AppliedJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.appliedJobs)
}

// CachedNotifications returns the local notifications projection with its unread count.
func (s *Session) CachedNotifications() model.NotificationFeed {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.NewNotificationFeed(slices.Clone(s.notifications))
}

// updateAppliedJobs applies fn to the projection and mirrors the result, unless
// the session changed since token was read.
func (s *Session) updateAppliedJobs(ctx context.Context, token string, fn func([]model.AppliedJob) []model.AppliedJob) {
	s.mu.Lock()
	if s.token == "" || s.token != token {
		s.mu.Unlock()
		return
	}
	s.appliedJobs = fn(s.appliedJobs)
	snapshot := slices.Clone(s.appliedJobs)
	s.mu.Unlock()

	if err := s.store.SaveAppliedJobs(ctx, snapshot); err != nil {
		s.logger.WarnContext(ctx, "mirroring applied jobs failed", "error", err)
	}
}

func (s *Session) updateNotifications(ctx context.Context, token string, fn func([]model.Notification) []model.Notification) model.NotificationFeed {
	s.mu.Lock()
	if s.token == "" || s.token != token {
		s.mu.Unlock()
		return model.NewNotificationFeed(nil)
	}
	s.notifications = fn(s.notifications)
	snapshot := slices.Clone(s.notifications)
	s.mu.Unlock()

	if err := s.store.SaveNotifications(ctx, snapshot); err != nil {
		s.logger.WarnContext(ctx, "mirroring notifications failed", "error", err)
	}
	return model.NewNotificationFeed(snapshot)
}
