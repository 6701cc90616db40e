package repository

import (
	"context"
	"errors"
	"sync"
)

// Storage keys shared by every slot.
const (
	KeyUser          = "user"
	KeyToken         = "token"
	KeyAppliedJobs   = "appliedJobs"
	KeyNotifications = "notifications"
	KeyProfilePhoto  = "profilePhoto"
	KeyResume        = "resume"
)

// sessionKeys are every key a logout must remove.
var sessionKeys = []string{KeyUser, KeyToken, KeyAppliedJobs, KeyNotifications, KeyProfilePhoto, KeyResume}

// ErrStorage wraps failures of the underlying slot backend.
var ErrStorage = errors.New("session storage failure")

// Slot is a string key/value storage area with a single lifetime: either durable
// (survives restarts) or ephemeral (gone when the browsing session ends).
type Slot interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// MemorySlot is an in-process Slot. Its contents live as long as the value does.
type MemorySlot struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemorySlot creates an empty MemorySlot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (s *MemorySlot) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *MemorySlot) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

// Delete removes keys. Missing keys are ignored.
func (s *MemorySlot) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

// Len returns the number of stored keys.
func (s *MemorySlot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// MemorySlots hands out one MemorySlot per namespace.
type MemorySlots struct {
	mu    sync.Mutex
	slots map[string]*MemorySlot
}

// NewMemorySlots creates an empty MemorySlots.
func NewMemorySlots() *MemorySlots {
	return &MemorySlots{slots: make(map[string]*MemorySlot)}
}

// Slot returns the slot for namespace, creating it on first use.
func (m *MemorySlots) Slot(namespace string) Slot {
	return m.Get(namespace)
}

// Get returns the concrete slot for namespace, creating it on first use.
func (m *MemorySlots) Get(namespace string) *MemorySlot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[namespace]
	if !ok {
		s = NewMemorySlot()
		m.slots[namespace] = s
	}
	return s
}
