// Package undo — одноместный буфер последней удалённой задачи.
//
// Буфер либо пуст, либо держит одну задачу вместе с моментом удаления.
// Через Window после удаления задача пропадает навсегда. Новое удаление
// вытесняет предыдущее: многоуровневой отмены нет.
package undo

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"todo-list/internal/clock"
	"todo-list/internal/storage"
	"todo-list/internal/tasks"
)

// DeletedTaskKey — ключ записи буфера в хранилище.
const DeletedTaskKey = "deletedTask"

// DefaultWindow — сколько удалённая задача доступна для отмены.
const DefaultWindow = 5 * time.Second

// Record — содержимое буфера. Timestamp в миллисекундах Unix.
type Record struct {
	Task      tasks.Task `json:"task"`
	Timestamp int64      `json:"timestamp"`
}

// DeletedAt возвращает момент удаления.
func (r Record) DeletedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// ExpiresAt возвращает момент, после которого отмена невозможна.
func (r Record) ExpiresAt(window time.Duration) time.Time {
	return r.DeletedAt().Add(window)
}

type Buffer struct {
	kv     storage.KV
	clock  clock.Clock
	window time.Duration
	logger *log.Logger

	mu    sync.Mutex
	held  *Record
	timer clock.Timer
	// gen растёт на каждое изменение состояния; таймер с устаревшим gen
	// ничего не трогает.
	gen uint64
}

// New создаёт буфер и поднимает сохранённую запись.
//
// Если запись моложе window, буфер снова держит задачу, а таймер
// ставится на оставшееся время. Иначе запись сразу удаляется.
func New(kv storage.KV, clk clock.Clock, window time.Duration, logger *log.Logger) (*Buffer, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	b := &Buffer{kv: kv, clock: clk, window: window, logger: logger}

	var rec Record
	found, err := storage.LoadJSON(kv, DeletedTaskKey, &rec)
	if err != nil {
		if !errors.Is(err, storage.ErrCorrupt) {
			return nil, err
		}
		logger.Warn("stored deleted task is corrupt, discarding", "err", err)
		return b, b.removeRecord()
	}
	if !found {
		return b, nil
	}
	if rec.Task.ID == "" {
		logger.Warn("stored deleted task has no id, discarding")
		return b, b.removeRecord()
	}

	remaining := rec.ExpiresAt(window).Sub(clk.Now())
	if remaining <= 0 {
		return b, b.removeRecord()
	}

	b.mu.Lock()
	b.held = &rec
	b.scheduleLocked(remaining)
	b.mu.Unlock()

	logger.Debug("restored pending undo", "id", rec.Task.ID, "remaining", remaining)
	return b, nil
}

// Window возвращает длительность окна отмены.
func (b *Buffer) Window() time.Duration {
	return b.window
}

// Hold кладёт задачу в буфер, вытесняя предыдущую.
func (b *Buffer) Hold(task tasks.Task) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := Record{Task: task, Timestamp: b.clock.Now().UnixMilli()}
	if err := storage.SaveJSON(b.kv, DeletedTaskKey, rec); err != nil {
		return err
	}

	if b.held != nil {
		b.logger.Debug("undo slot overwritten", "lost", b.held.Task.ID, "held", task.ID)
	}
	b.stopLocked()
	b.held = &rec
	b.scheduleLocked(b.window)
	return nil
}

// Take забирает задачу для отмены удаления.
//
// Вне окна или при пустом буфере возвращает ok=false. Буфер после Take пуст.
func (b *Buffer) Take() (tasks.Task, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.expireIfDueLocked(); err != nil {
		return tasks.Task{}, false, err
	}
	if b.held == nil {
		return tasks.Task{}, false, nil
	}

	task := b.held.Task
	if err := b.clearLocked(); err != nil {
		return tasks.Task{}, false, err
	}
	return task, true, nil
}

// Pending возвращает текущую запись, если окно ещё открыто.
func (b *Buffer) Pending() (Record, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.expireIfDueLocked(); err != nil {
		return Record{}, false, err
	}
	if b.held == nil {
		return Record{}, false, nil
	}
	return *b.held, true, nil
}

// Discard уничтожает удержанную задачу без возможности отмены.
func (b *Buffer) Discard() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.clearLocked()
}

// Close останавливает таймер. Сохранённая запись остаётся: после
// перезапуска в пределах окна отмена всё ещё возможна.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopLocked()
}

func (b *Buffer) scheduleLocked(d time.Duration) {
	b.gen++
	gen := b.gen
	b.timer = b.clock.AfterFunc(d, func() { b.expire(gen) })
}

func (b *Buffer) stopLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.gen++
}

// expire вызывается таймером.
func (b *Buffer) expire(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.gen || b.held == nil {
		return
	}
	id := b.held.Task.ID
	if err := b.clearLocked(); err != nil {
		b.logger.Error("failed to clear expired deleted task", "id", id, "err", err)
		return
	}
	b.logger.Debug("deleted task expired", "id", id)
}

// expireIfDueLocked — ленивая проверка срока на случай, если таймер
// ещё не успел сработать.
func (b *Buffer) expireIfDueLocked() error {
	if b.held == nil {
		return nil
	}
	if b.clock.Now().Before(b.held.ExpiresAt(b.window)) {
		return nil
	}
	return b.clearLocked()
}

func (b *Buffer) clearLocked() error {
	b.stopLocked()
	if err := b.removeRecord(); err != nil {
		return err
	}
	b.held = nil
	return nil
}

func (b *Buffer) removeRecord() error {
	if err := b.kv.Remove(DeletedTaskKey); err != nil {
		return fmt.Errorf("remove %q: %w", DeletedTaskKey, err)
	}
	return nil
}
