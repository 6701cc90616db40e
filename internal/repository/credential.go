package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hireloop/hireloop-web/internal/crypto"
	"github.com/hireloop/hireloop-web/internal/model"
)

// Credentials is the persisted session: identity, bearer token and which slot holds them.
type Credentials struct {
	Identity   model.Identity
	Token      string
	Remembered bool
}

// CredentialStore persists the session identity and token in exactly one of two
// slots: durable when the user asked to be remembered, ephemeral otherwise.
type CredentialStore struct {
	durable   Slot
	ephemeral Slot
	now       func() time.Time
}

// NewCredentialStore creates a CredentialStore over the given slots.
func NewCredentialStore(durable, ephemeral Slot) *CredentialStore {
	return &CredentialStore{durable: durable, ephemeral: ephemeral, now: time.Now}
}

// Save writes identity and token to the slot chosen by remember and removes any
// identity or token left in the other slot.
func (s *CredentialStore) Save(ctx context.Context, identity model.Identity, token string, remember bool) error {
	target, other := s.ephemeral, s.durable
	if remember {
		target, other = s.durable, s.ephemeral
	}

	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encoding identity: %w", err)
	}

	if err := other.Delete(ctx, KeyUser, KeyToken); err != nil {
		return err
	}
	if err := target.Set(ctx, KeyUser, string(data)); err != nil {
		return err
	}
	if err := target.Set(ctx, KeyToken, token); err != nil {
		// never leave an identity without its token
		_ = target.Delete(ctx, KeyUser)
		return err
	}
	return nil
}

// Load returns the stored session, preferring the durable slot. It returns nil when
// nothing usable is stored: a missing half of the pair, an unparsable identity or an
// expired JWT all count as logged out, and the broken entry is removed.
func (s *CredentialStore) Load(ctx context.Context) (*Credentials, error) {
	var errs []error
	for _, slot := range []struct {
		slot       Slot
		remembered bool
	}{{s.durable, true}, {s.ephemeral, false}} {
		creds, err := s.loadFrom(ctx, slot.slot)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if creds != nil {
			creds.Remembered = slot.remembered
			return creds, nil
		}
	}
	return nil, errors.Join(errs...)
}

func (s *CredentialStore) loadFrom(ctx context.Context, slot Slot) (*Credentials, error) {
	rawUser, hasUser, err := slot.Get(ctx, KeyUser)
	if err != nil {
		return nil, err
	}
	token, hasToken, err := slot.Get(ctx, KeyToken)
	if err != nil {
		return nil, err
	}
	if !hasUser && !hasToken {
		return nil, nil
	}

	discard := func(reason string) (*Credentials, error) {
		slog.WarnContext(ctx, "discarding stored session", "reason", reason)
		return nil, slot.Delete(ctx, KeyUser, KeyToken)
	}

	if !hasUser || !hasToken || token == "" {
		return discard("incomplete identity/token pair")
	}

	var identity model.Identity
	if err := json.Unmarshal([]byte(rawUser), &identity); err != nil {
		return discard("malformed identity")
	}
	if identity.ID == "" || !identity.Role.Valid() {
		return discard("identity without id or role")
	}
	if crypto.TokenExpired(token, s.now()) {
		return discard("token expired")
	}

	return &Credentials{Identity: identity, Token: token}, nil
}

// Clear removes the session and every derived cache from both slots.
func (s *CredentialStore) Clear(ctx context.Context) error {
	return errors.Join(
		s.durable.Delete(ctx, sessionKeys...),
		s.ephemeral.Delete(ctx, sessionKeys...),
	)
}

// ClearToken clears like Clear, but only while neither slot holds a token other than
// token. It reports whether anything was cleared.
func (s *CredentialStore) ClearToken(ctx context.Context, token string) (bool, error) {
	for _, slot := range []Slot{s.durable, s.ephemeral} {
		stored, ok, err := slot.Get(ctx, KeyToken)
		if err != nil {
			return false, err
		}
		if ok && stored != token {
			return false, nil
		}
	}
	return true, s.Clear(ctx)
}

// SaveAppliedJobs mirrors the applied-jobs projection to durable storage.
func (s *CredentialStore) SaveAppliedJobs(ctx context.Context, jobs []model.AppliedJob) error {
	return s.saveJSON(ctx, KeyAppliedJobs, jobs)
}

// LoadAppliedJobs returns the mirrored applied-jobs projection, or nil.
func (s *CredentialStore) LoadAppliedJobs(ctx context.Context) []model.AppliedJob {
	var jobs []model.AppliedJob
	if !s.loadJSON(ctx, KeyAppliedJobs, &jobs) {
		return nil
	}
	return jobs
}

// ClearAppliedJobs drops the applied-jobs mirror.
func (s *CredentialStore) ClearAppliedJobs(ctx context.Context) error {
	return s.durable.Delete(ctx, KeyAppliedJobs)
}

// SaveNotifications mirrors the notifications projection to durable storage.
func (s *CredentialStore) SaveNotifications(ctx context.Context, items []model.Notification) error {
	return s.saveJSON(ctx, KeyNotifications, items)
}

// LoadNotifications returns the mirrored notifications, or nil.
func (s *CredentialStore) LoadNotifications(ctx context.Context) []model.Notification {
	var items []model.Notification
	if !s.loadJSON(ctx, KeyNotifications, &items) {
		return nil
	}
	return items
}

// SaveProfileRefs stores the profile photo and resume references. Empty values are removed.
func (s *CredentialStore) SaveProfileRefs(ctx context.Context, photo, resume string) error {
	for key, value := range map[string]string{KeyProfilePhoto: photo, KeyResume: resume} {
		var err error
		if value == "" {
			err = s.durable.Delete(ctx, key)
		} else {
			err = s.durable.Set(ctx, key, value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *CredentialStore) saveJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.durable.Set(ctx, key, string(data))
}

// loadJSON decodes key into v. Missing, unreadable or malformed values report false.
func (s *CredentialStore) loadJSON(ctx context.Context, key string, v any) bool {
	raw, found, err := s.durable.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "reading cached value failed", "key", key, "error", err)
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		slog.WarnContext(ctx, "discarding malformed cached value", "key", key)
		return false
	}
	return true
}
