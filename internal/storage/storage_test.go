package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKV_SetGetRemove(t *testing.T) {
	kv := NewMemoryKV()

	_, ok, err := kv.Get("tasks")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set("tasks", "[]"))
	v, ok, err := kv.Get("tasks")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)

	require.NoError(t, kv.Remove("tasks"))
	_, ok, err = kv.Get("tasks")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileKV_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "todo.json")

	first := NewFileKV(path)
	require.NoError(t, first.Set("sort", `"dueDate"`))
	require.NoError(t, first.Set("tasks", `[]`))

	second := NewFileKV(path)
	v, ok, err := second.Get("sort")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"dueDate"`, v)

	require.NoError(t, second.Remove("tasks"))
	_, ok, err = first.Get("tasks")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileKV_MissingAndEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.json")
	kv := NewFileKV(path)

	_, ok, err := kv.Get("tasks")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))
	_, ok, err = kv.Get("tasks")
	require.NoError(t, err)
	assert.False(t, ok)

	// Remove по отсутствующему ключу не должен создавать файл заново.
	require.NoError(t, kv.Remove("nope"))
}

func TestFileKV_CorruptFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	kv := NewFileKV(path)
	_, _, err := kv.Get("tasks")
	assert.ErrorIs(t, err, ErrUnreadable)
	assert.NotErrorIs(t, err, ErrCorrupt)

	assert.ErrorIs(t, kv.Set("tasks", "[]"), ErrUnreadable)
}

func TestLoadJSON(t *testing.T) {
	kv := NewMemoryKV()

	var out []int
	found, err := LoadJSON(kv, "nums", &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SaveJSON(kv, "nums", []int{1, 2, 3}))
	found, err = LoadJSON(kv, "nums", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []int{1, 2, 3}, out)

	require.NoError(t, kv.Set("nums", "[1,"))
	found, err = LoadJSON(kv, "nums", &out)
	assert.True(t, found)
	assert.ErrorIs(t, err, ErrCorrupt)
}
