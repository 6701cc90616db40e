package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/hireloop-web/internal/crypto"
)

func newTestSealer(t *testing.T, secret string) *crypto.Sealer {
	t.Helper()
	s, err := crypto.NewSealerWithParams(secret, crypto.KeyParams{Memory: 1024, Iterations: 1, Parallelism: 1, Salt: "t"})
	require.NoError(t, err)
	return s
}

func TestSealedSlot_StoresCiphertext(t *testing.T) {
	ctx := context.Background()
	inner := NewMemorySlot()
	slot := NewSealedSlot(inner, newTestSealer(t, "s3cret"))

	require.NoError(t, slot.Set(ctx, KeyToken, "bearer-token"))

	raw, found, _ := inner.Get(ctx, KeyToken)
	require.True(t, found)
	assert.NotContains(t, raw, "bearer-token")

	v, found, err := slot.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "bearer-token", v)

	require.NoError(t, slot.Delete(ctx, KeyToken))
	assert.Equal(t, 0, inner.Len())
}

func TestSealedSlot_ForeignValueReadsAbsent(t *testing.T) {
	ctx := context.Background()
	inner := NewMemorySlot()
	require.NoError(t, NewSealedSlot(inner, newTestSealer(t, "old-secret")).Set(ctx, KeyToken, "tok"))
	require.NoError(t, inner.Set(ctx, KeyUser, "plaintext"))

	slot := NewSealedSlot(inner, newTestSealer(t, "new-secret"))
	for _, key := range []string{KeyToken, KeyUser} {
		_, found, err := slot.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, found, key)
	}
}

func TestSealedSlot_WithCredentialStore(t *testing.T) {
	ctx := context.Background()
	sealer := newTestSealer(t, "s3cret")
	inner := NewMemorySlot()

	store := NewCredentialStore(NewSealedSlot(inner, sealer), NewMemorySlot())
	require.NoError(t, store.Save(ctx, testIdentity(), "tok", true))

	creds, err := NewCredentialStore(NewSealedSlot(inner, sealer), NewMemorySlot()).Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "tok", creds.Token)
}
