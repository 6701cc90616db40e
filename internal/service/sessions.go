package service

import (
	"context"
	"log/slog"

	"github.com/hireloop/hireloop-web/internal/gateway"
	"github.com/hireloop/hireloop-web/internal/repository"
)

// SlotFactory returns the storage slot for one namespace.
type SlotFactory func(namespace string) repository.Slot

// Sessions opens per-client sessions over namespaced durable and ephemeral storage.
type Sessions struct {
	durable   SlotFactory
	ephemeral SlotFactory
	gateway   gateway.Config
	logger    *slog.Logger
}

// NewSessions creates a Sessions. Every gateway it builds shares cfg, including its
// Actions registry, so a request can supersede one still running for the same client.
func NewSessions(durable, ephemeral SlotFactory, cfg gateway.Config, logger *slog.Logger) *Sessions {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Actions == nil {
		cfg.Actions = gateway.NewActions()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = gateway.NewHTTPClient()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	return &Sessions{durable: durable, ephemeral: ephemeral, gateway: cfg, logger: logger}
}

// Open returns the restored session of the client identified by its durable and
// ephemeral namespaces.
func (f *Sessions) Open(ctx context.Context, clientID, tabID string) (*Session, error) {
	store := repository.NewCredentialStore(f.durable(clientID), f.ephemeral(tabID))
	logger := f.logger.With("client_id", clientID)

	s := NewSession(store, func(tokens gateway.TokenSource, onUnauthorized gateway.UnauthorizedFunc) *gateway.Gateway {
		cfg := f.gateway
		cfg.Scope = clientID + "/" + tabID
		cfg.Logger = logger
		return gateway.New(cfg, tokens, onUnauthorized)
	}, logger)

	if err := s.Restore(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Pinger returns an anonymous gateway for the startup probe.
func (f *Sessions) Pinger() *gateway.Gateway {
	return gateway.New(f.gateway, nil, nil)
}
