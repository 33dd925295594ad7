package prefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-list/internal/logging"
	"todo-list/internal/storage"
)

func TestStore_DarkMode(t *testing.T) {
	kv := storage.NewMemoryKV()

	s, err := NewStore(kv, logging.Discard())
	require.NoError(t, err)
	assert.False(t, s.Get().DarkMode)

	on, err := s.ToggleDarkMode()
	require.NoError(t, err)
	assert.True(t, on)

	raw, _, _ := kv.Get(DarkModeKey)
	assert.Equal(t, "true", raw)

	reloaded, err := NewStore(kv, logging.Discard())
	require.NoError(t, err)
	assert.True(t, reloaded.Get().DarkMode)

	require.NoError(t, reloaded.SetDarkMode(false))
	assert.False(t, reloaded.Get().DarkMode)
}

func TestStore_CorruptFlag(t *testing.T) {
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(DarkModeKey, "maybe"))

	s, err := NewStore(kv, logging.Discard())
	require.NoError(t, err)
	assert.False(t, s.Get().DarkMode)
}
