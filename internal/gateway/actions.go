package gateway

import (
	"context"
	"sync"
)

// Actions tracks one in-flight request per action key. Starting a request for a key
// cancels the request previously started for it, so a late response of a superseded
// call can never overwrite the newer result.
type Actions struct {
	mu       sync.Mutex
	seq      uint64
	inflight map[string]inflightCall
}

type inflightCall struct {
	id     uint64
	cancel context.CancelCauseFunc
}

// NewActions creates an empty registry.
func NewActions() *Actions {
	return &Actions{inflight: make(map[string]inflightCall)}
}

// Begin registers a call for key and returns its context and a release func that
// must be called when the call settles. An empty key is not tracked.
func (a *Actions) Begin(ctx context.Context, key string) (context.Context, func()) {
	if key == "" {
		return ctx, func() {}
	}

	callCtx, cancel := context.WithCancelCause(ctx)

	a.mu.Lock()
	if prev, ok := a.inflight[key]; ok {
		prev.cancel(ErrSuperseded)
	}
	a.seq++
	id := a.seq
	a.inflight[key] = inflightCall{id: id, cancel: cancel}
	a.mu.Unlock()

	return callCtx, func() {
		a.mu.Lock()
		if cur, ok := a.inflight[key]; ok && cur.id == id {
			delete(a.inflight, key)
		}
		a.mu.Unlock()
		cancel(nil)
	}
}

func (a *Actions) inFlight() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.inflight)
}
