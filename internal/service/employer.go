package service

import (
	"context"
	"errors"
	"time"

	"github.com/hireloop/hireloop-web/internal/gateway"
	"github.com/hireloop/hireloop-web/internal/model"
)

// Employer is the employer dashboard client.
type Employer struct {
	s *Session
}

// Employer returns the employer dashboard client bound to s.
func (s *Session) Employer() *Employer {
	return &Employer{s: s}
}

// Stats returns the employer's listing and application counters.
func (e *Employer) Stats(ctx context.Context) (model.EmployerStats, error) {
	var stats model.EmployerStats
	err := e.s.api.Do(ctx, gateway.Request{Path: "/employer/stats", Action: "employer-stats"}, &stats)
	return stats, err
}

// Poll fetches the stats immediately and then every interval, handing each result
// to fn. It stops when ctx is done or the session is torn down by a 401, and
// returns the reason.
func (e *Employer) Poll(ctx context.Context, interval time.Duration, fn func(model.EmployerStats, error)) error {
	if interval <= 0 {
		return errors.New("poll interval must be positive")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		stats, err := e.Stats(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fn(stats, err)
		if errors.Is(err, ErrUnauthorized) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
