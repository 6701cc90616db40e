package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSlot_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	slot := NewFileSlot(path)

	_, found, err := slot.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, slot.Set(ctx, KeyToken, "tok"))
	require.NoError(t, slot.Set(ctx, KeyUser, `{"_id":"u-1"}`))

	v, found, err := NewFileSlot(path).Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "tok", v)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, slot.Delete(ctx, KeyToken))
	_, found, _ = slot.Get(ctx, KeyToken)
	assert.False(t, found)

	require.NoError(t, slot.Delete(ctx, KeyUser))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty slot should remove its file")
}

func TestFileSlot_CorruptFileReadsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o600))

	slot := NewFileSlot(path)
	_, found, err := slot.Get(ctx, KeyUser)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, slot.Set(ctx, KeyUser, "fresh"))
	v, _, _ := slot.Get(ctx, KeyUser)
	assert.Equal(t, "fresh", v)
}

func TestFileSlot_DeleteMissingIsNoop(t *testing.T) {
	slot := NewFileSlot(filepath.Join(t.TempDir(), "state.json"))
	assert.NoError(t, slot.Delete(context.Background(), KeyUser, KeyToken))
}
