package service

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// HealthPath is the backend endpoint probed at startup.
const HealthPath = "/health"

// Pinger checks that the backend answers.
type Pinger interface {
	Ping(ctx context.Context, path string) error
}

// Readiness records the outcome of the one startup connectivity probe. Until the
// probe resolves, protected routes render a loading placeholder.
type Readiness struct {
	resolved  atomic.Bool
	reachable atomic.Bool
	logger    *slog.Logger
}

// NewReadiness creates an unresolved Readiness.
func NewReadiness(logger *slog.Logger) *Readiness {
	if logger == nil {
		logger = slog.Default()
	}
	return &Readiness{logger: logger}
}

// Probe pings the backend once and marks loading complete whatever the outcome.
// Later calls are no-ops.
func (r *Readiness) Probe(ctx context.Context, p Pinger) error {
	if r.resolved.Load() {
		return nil
	}

	err := p.Ping(ctx, HealthPath)
	r.reachable.Store(err == nil)
	r.resolved.Store(true)

	if err != nil {
		r.logger.WarnContext(ctx, "backend unreachable at startup", "error", err)
		return err
	}
	r.logger.InfoContext(ctx, "backend reachable")
	return nil
}

// Resolved reports whether the startup probe has completed.
func (r *Readiness) Resolved() bool {
	return r.resolved.Load()
}

// Reachable reports whether the startup probe got a response.
func (r *Readiness) Reachable() bool {
	return r.reachable.Load()
}
