package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActions_BeginSupersedesPrevious(t *testing.T) {
	a := NewActions()

	first, releaseFirst := a.Begin(context.Background(), "search")
	second, releaseSecond := a.Begin(context.Background(), "search")

	assert.ErrorIs(t, context.Cause(first), ErrSuperseded)
	assert.NoError(t, second.Err())
	assert.Equal(t, 1, a.inFlight())

	// releasing the stale call must not drop the newer registration
	releaseFirst()
	assert.Equal(t, 1, a.inFlight())

	releaseSecond()
	assert.Equal(t, 0, a.inFlight())
}

func TestActions_DistinctKeysAreIndependent(t *testing.T) {
	a := NewActions()

	search, release1 := a.Begin(context.Background(), "search")
	notif, release2 := a.Begin(context.Background(), "notifications")
	defer release1()
	defer release2()

	assert.NoError(t, search.Err())
	assert.NoError(t, notif.Err())
	assert.Equal(t, 2, a.inFlight())
}

func TestActions_EmptyKeyIsUntracked(t *testing.T) {
	a := NewActions()
	parent := context.Background()

	ctx, release := a.Begin(parent, "")
	defer release()

	assert.Equal(t, parent, ctx)
	assert.Equal(t, 0, a.inFlight())
}
