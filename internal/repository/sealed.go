package repository

import (
	"context"
	"log/slog"

	"github.com/hireloop/hireloop-web/internal/crypto"
)

// SealedSlot encrypts values before handing them to the wrapped Slot.
// Values that fail to open read as absent.
type SealedSlot struct {
	inner  Slot
	sealer *crypto.Sealer
}

// NewSealedSlot wraps inner so every stored value is sealed with sealer.
func NewSealedSlot(inner Slot, sealer *crypto.Sealer) *SealedSlot {
	return &SealedSlot{inner: inner, sealer: sealer}
}

// Get returns the opened value stored under key.
func (s *SealedSlot) Get(ctx context.Context, key string) (string, bool, error) {
	sealed, found, err := s.inner.Get(ctx, key)
	if err != nil || !found {
		return "", found, err
	}

	value, err := s.sealer.Open(sealed)
	if err != nil {
		slog.WarnContext(ctx, "discarding unreadable stored value", "key", key)
		return "", false, nil
	}
	return value, true, nil
}

// Set seals value and stores it under key.
func (s *SealedSlot) Set(ctx context.Context, key, value string) error {
	sealed, err := s.sealer.Seal(value)
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, key, sealed)
}

// Delete removes keys from the wrapped Slot.
func (s *SealedSlot) Delete(ctx context.Context, keys ...string) error {
	return s.inner.Delete(ctx, keys...)
}
