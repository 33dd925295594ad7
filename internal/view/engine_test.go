package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-list/internal/logging"
	"todo-list/internal/storage"
	"todo-list/internal/tasks"
)

func newTestEngine(t *testing.T, kv storage.KV) *Engine {
	t.Helper()
	e, err := NewEngine(kv, logging.Discard())
	require.NoError(t, err)
	return e
}

func TestEngine_Defaults(t *testing.T) {
	e := newTestEngine(t, storage.NewMemoryKV())
	assert.Equal(t, DefaultSelection(), e.Selection())
}

func TestEngine_PersistsSelection(t *testing.T) {
	kv := storage.NewMemoryKV()
	e := newTestEngine(t, kv)

	require.NoError(t, e.SetSortKey(SortByDueDate))
	require.NoError(t, e.SetFilterPriority(ptr(tasks.Low)))
	require.NoError(t, e.SetFilterCompletion(ptr(false)))

	raw, _, _ := kv.Get(SortKeyName)
	assert.Equal(t, `"dueDate"`, raw)
	raw, _, _ = kv.Get(PriorityFilterKey)
	assert.Equal(t, `"Low"`, raw)
	raw, _, _ = kv.Get(CompletionFilterKey)
	assert.Equal(t, `false`, raw)

	reloaded := newTestEngine(t, kv)
	assert.Equal(t, Selection{Sort: SortByDueDate, Priority: ptr(tasks.Low), Completed: ptr(false)}, reloaded.Selection())

	require.NoError(t, reloaded.SetFilterPriority(nil))
	require.NoError(t, reloaded.SetFilterCompletion(nil))
	raw, _, _ = kv.Get(PriorityFilterKey)
	assert.Equal(t, `null`, raw)

	again := newTestEngine(t, kv)
	assert.Equal(t, Selection{Sort: SortByDueDate}, again.Selection())
}

func TestEngine_RejectsInvalidValues(t *testing.T) {
	kv := storage.NewMemoryKV()
	e := newTestEngine(t, kv)

	assert.ErrorIs(t, e.SetSortKey("alphabet"), ErrInvalidSortKey)
	assert.ErrorIs(t, e.SetFilterPriority(ptr(tasks.Priority("Urgent"))), tasks.ErrInvalidPriority)

	_, ok, _ := kv.Get(SortKeyName)
	assert.False(t, ok)
	assert.Equal(t, DefaultSelection(), e.Selection())
}

func TestEngine_LoadTriState(t *testing.T) {
	tests := []struct {
		name string
		data map[string]string
		want Selection
	}{
		{
			name: "legacy empty string means no filter",
			data: map[string]string{PriorityFilterKey: `""`, CompletionFilterKey: `null`},
			want: DefaultSelection(),
		},
		{
			name: "corrupt values fall back to defaults",
			data: map[string]string{SortKeyName: `{`, PriorityFilterKey: `[1`, CompletionFilterKey: `"yes"`},
			want: DefaultSelection(),
		},
		{
			name: "unknown values fall back to defaults",
			data: map[string]string{SortKeyName: `"alphabet"`, PriorityFilterKey: `"Urgent"`},
			want: DefaultSelection(),
		},
		{
			name: "valid values survive",
			data: map[string]string{SortKeyName: `"completion"`, PriorityFilterKey: `"High"`, CompletionFilterKey: `true`},
			want: Selection{Sort: SortByCompletion, Priority: ptr(tasks.High), Completed: ptr(true)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := storage.NewMemoryKV()
			for k, v := range tt.data {
				require.NoError(t, kv.Set(k, v))
			}
			assert.Equal(t, tt.want, newTestEngine(t, kv).Selection())
		})
	}
}

func TestEngine_ClearFilters(t *testing.T) {
	kv := storage.NewMemoryKV()
	e := newTestEngine(t, kv)

	require.NoError(t, e.SetSortKey(SortByCompletion))
	require.NoError(t, e.SetFilterPriority(ptr(tasks.High)))
	require.NoError(t, e.SetFilterCompletion(ptr(true)))

	require.NoError(t, e.ClearFilters())
	assert.Equal(t, DefaultSelection(), e.Selection())

	for _, key := range []string{SortKeyName, PriorityFilterKey, CompletionFilterKey} {
		_, ok, err := kv.Get(key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
}

func TestEngine_SelectionIsACopy(t *testing.T) {
	e := newTestEngine(t, storage.NewMemoryKV())
	require.NoError(t, e.SetFilterPriority(ptr(tasks.High)))

	sel := e.Selection()
	*sel.Priority = tasks.Low

	assert.Equal(t, tasks.High, *e.Selection().Priority)
}

func TestEngine_View(t *testing.T) {
	e := newTestEngine(t, storage.NewMemoryKV())
	require.NoError(t, e.SetFilterCompletion(ptr(true)))

	list := []tasks.Task{{ID: "1", Completed: true}, {ID: "2"}}
	assert.Equal(t, []string{"1"}, ids(e.View(list)))
}
