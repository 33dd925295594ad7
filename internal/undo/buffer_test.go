package undo

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-list/internal/clock"
	"todo-list/internal/logging"
	"todo-list/internal/storage"
	"todo-list/internal/tasks"
)

var start = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func newTestBuffer(t *testing.T, kv storage.KV, clk clock.Clock) *Buffer {
	t.Helper()
	b, err := New(kv, clk, DefaultWindow, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b
}

func TestBuffer_HoldAndTake(t *testing.T) {
	kv := storage.NewMemoryKV()
	clk := clock.NewFakeClock(start)
	b := newTestBuffer(t, kv, clk)

	task := tasks.Task{ID: "a", Text: "write report", Priority: tasks.High}
	require.NoError(t, b.Hold(task))

	rec, ok, err := b.Pending()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, task, rec.Task)
	assert.Equal(t, start.UnixMilli(), rec.Timestamp)

	raw, ok, _ := kv.Get(DeletedTaskKey)
	require.True(t, ok)
	assert.JSONEq(t, `{"task":{"id":"a","text":"write report","completed":false,"priority":"High","dueDate":null},"timestamp":`+
		itoa(start.UnixMilli())+`}`, raw)

	clk.Advance(4 * time.Second)
	got, ok, err := b.Take()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, task, got)

	_, ok, err = b.Take()
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, _ = kv.Get(DeletedTaskKey)
	assert.False(t, ok)
	assert.Zero(t, clk.Pending())
}

func TestBuffer_TimerExpires(t *testing.T) {
	kv := storage.NewMemoryKV()
	clk := clock.NewFakeClock(start)
	b := newTestBuffer(t, kv, clk)

	require.NoError(t, b.Hold(tasks.Task{ID: "a", Text: "x", Priority: tasks.Low}))
	clk.Advance(DefaultWindow)

	_, ok, _ := kv.Get(DeletedTaskKey)
	assert.False(t, ok)

	_, ok, err := b.Take()
	require.NoError(t, err)
	assert.False(t, ok)
}

// lazyClock никогда не вызывает таймеры: проверяем ленивое истечение.
type lazyClock struct {
	*clock.FakeClock
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return false }

func (c lazyClock) AfterFunc(time.Duration, func()) clock.Timer { return noopTimer{} }

func TestBuffer_LazyExpiryWithoutTimer(t *testing.T) {
	kv := storage.NewMemoryKV()
	fake := clock.NewFakeClock(start)
	b := newTestBuffer(t, kv, lazyClock{fake})

	require.NoError(t, b.Hold(tasks.Task{ID: "a", Text: "x", Priority: tasks.Low}))
	fake.Set(start.Add(DefaultWindow))

	_, ok, err := b.Pending()
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, _ = kv.Get(DeletedTaskKey)
	assert.False(t, ok)
}

func TestBuffer_NewDeletionOverwrites(t *testing.T) {
	kv := storage.NewMemoryKV()
	clk := clock.NewFakeClock(start)
	b := newTestBuffer(t, kv, clk)

	first := tasks.Task{ID: "a", Text: "first", Priority: tasks.Low}
	second := tasks.Task{ID: "b", Text: "second", Priority: tasks.Low}

	require.NoError(t, b.Hold(first))
	clk.Advance(3 * time.Second)
	require.NoError(t, b.Hold(second))

	// Таймер первой задачи отменён: через 2.5с вторая всё ещё в буфере.
	clk.Advance(2500 * time.Millisecond)
	rec, ok, err := b.Pending()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second, rec.Task)

	got, ok, err := b.Take()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second, got)

	_, ok, _ = b.Take()
	assert.False(t, ok)
}

func TestBuffer_StaleTimerDoesNotClearNewRecord(t *testing.T) {
	kv := storage.NewMemoryKV()
	clk := clock.NewFakeClock(start)
	b := newTestBuffer(t, kv, clk)

	require.NoError(t, b.Hold(tasks.Task{ID: "a", Text: "x", Priority: tasks.Low}))
	stale := b.gen

	clk.Advance(time.Second)
	require.NoError(t, b.Hold(tasks.Task{ID: "b", Text: "y", Priority: tasks.Low}))

	b.expire(stale)

	rec, ok, err := b.Pending()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", rec.Task.ID)
}

func TestBuffer_SurvivesReloadWithinWindow(t *testing.T) {
	kv := storage.NewMemoryKV()
	clk := clock.NewFakeClock(start)

	first := newTestBuffer(t, kv, clk)
	task := tasks.Task{ID: "a", Text: "x", Priority: tasks.Medium}
	require.NoError(t, first.Hold(task))
	first.Close()

	clk.Advance(3 * time.Second)
	second := newTestBuffer(t, kv, clk)

	rec, ok, err := second.Pending()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, task, rec.Task)

	// Таймер поставлен на оставшиеся 2 секунды.
	clk.Advance(2 * time.Second)
	_, ok, err = second.Pending()
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, _ = kv.Get(DeletedTaskKey)
	assert.False(t, ok)
}

func TestBuffer_ReloadAfterWindowDiscards(t *testing.T) {
	kv := storage.NewMemoryKV()
	require.NoError(t, storage.SaveJSON(kv, DeletedTaskKey, Record{
		Task:      tasks.Task{ID: "a", Text: "x", Priority: tasks.Low},
		Timestamp: start.Add(-DefaultWindow).UnixMilli(),
	}))

	b := newTestBuffer(t, kv, clock.NewFakeClock(start))

	_, ok, err := b.Pending()
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, _ = kv.Get(DeletedTaskKey)
	assert.False(t, ok)
}

func TestBuffer_CorruptRecordDiscarded(t *testing.T) {
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(DeletedTaskKey, `{"task":`))

	b := newTestBuffer(t, kv, clock.NewFakeClock(start))
	_, ok, err := b.Pending()
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, _ = kv.Get(DeletedTaskKey)
	assert.False(t, ok)
}

func TestBuffer_Discard(t *testing.T) {
	kv := storage.NewMemoryKV()
	clk := clock.NewFakeClock(start)
	b := newTestBuffer(t, kv, clk)

	require.NoError(t, b.Hold(tasks.Task{ID: "a", Text: "x", Priority: tasks.Low}))
	require.NoError(t, b.Discard())

	_, ok, err := b.Take()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, clk.Pending())
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
