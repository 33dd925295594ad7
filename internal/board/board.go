// Package board — точка входа для намерений пользователя.
//
// Board связывает список задач, сортировку/фильтры, буфер отмены и
// предпочтения. Все намерения выполняются последовательно под одним
// мьютексом, как события в однопоточном цикле.
package board

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"todo-list/internal/clock"
	"todo-list/internal/prefs"
	"todo-list/internal/storage"
	"todo-list/internal/tasks"
	"todo-list/internal/undo"
	"todo-list/internal/view"
)

// ErrNotConfirmed — очистка всего списка без подтверждения.
var ErrNotConfirmed = errors.New("clearing all tasks requires confirmation")

type Options struct {
	UndoWindow time.Duration
	Clock      clock.Clock
	Logger     *log.Logger
}

type Board struct {
	tasks  *tasks.Service
	view   *view.Engine
	undo   *undo.Buffer
	prefs  *prefs.Store
	clock  clock.Clock
	logger *log.Logger

	mu sync.Mutex
}

// Snapshot — всё, что нужно слою отображения для одного рендера.
type Snapshot struct {
	Tasks          []tasks.Task   `json:"tasks"`
	TotalTasks     int            `json:"totalTasks"`
	CompletedTasks int            `json:"completedTasks"`
	OverdueTasks   int            `json:"overdueTasks"`
	Selection      view.Selection `json:"selection"`
	Pending        *PendingUndo   `json:"pendingUndo"`
	DarkMode       bool           `json:"darkMode"`
}

// PendingUndo описывает задачу, удаление которой ещё можно отменить.
type PendingUndo struct {
	Task      tasks.Task `json:"task"`
	DeletedAt time.Time  `json:"deletedAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// Open поднимает все компоненты поверх одного хранилища.
func Open(ctx context.Context, kv storage.KV, opts Options) (*Board, error) {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	svc, err := tasks.NewService(ctx, kv, opts.Clock, opts.Logger)
	if err != nil {
		return nil, err
	}
	engine, err := view.NewEngine(kv, opts.Logger)
	if err != nil {
		return nil, err
	}
	buf, err := undo.New(kv, opts.Clock, opts.UndoWindow, opts.Logger)
	if err != nil {
		return nil, err
	}
	prefStore, err := prefs.NewStore(kv, opts.Logger)
	if err != nil {
		buf.Close()
		return nil, err
	}

	return &Board{
		tasks:  svc,
		view:   engine,
		undo:   buf,
		prefs:  prefStore,
		clock:  opts.Clock,
		logger: opts.Logger,
	}, nil
}

// Close останавливает таймер буфера отмены.
func (b *Board) Close() {
	b.undo.Close()
}

func (b *Board) AddTask(ctx context.Context, req tasks.CreateTaskRequest) (tasks.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	created, err := b.tasks.CreateTask(ctx, req)
	if err != nil {
		return tasks.Task{}, err
	}
	b.logger.Info("task added", "id", created.ID)
	return created, nil
}

func (b *Board) ToggleCompletion(ctx context.Context, id string) (tasks.Task, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.tasks.ToggleTask(ctx, id)
}

func (b *Board) EditTask(ctx context.Context, id string, req tasks.UpdateTaskRequest) (tasks.Task, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.tasks.UpdateTask(ctx, id, req)
}

func (b *Board) MoveTask(ctx context.Context, id string, index int) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.tasks.MoveTask(ctx, id, index)
}

// DeleteTask удаляет задачу и кладёт её в буфер отмены.
//
// Если буфер не удалось записать, задача возвращается на прежнее место.
func (b *Board) DeleteTask(ctx context.Context, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list, err := b.tasks.ListTasks(ctx)
	if err != nil {
		return false, err
	}
	index := slices.IndexFunc(list, func(t tasks.Task) bool { return t.ID == id })

	removed, ok, err := b.tasks.DeleteTask(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	if err := b.undo.Hold(removed); err != nil {
		if _, putErr := b.tasks.InsertTask(ctx, removed, index); putErr != nil {
			b.logger.Error("task lost after failed delete", "id", id, "err", putErr)
			return false, errors.Join(err, fmt.Errorf("put task back: %w", putErr))
		}
		return false, err
	}
	b.logger.Info("task deleted", "id", id, "undo_window", b.undo.Window())
	return true, nil
}

// GetTask возвращает задачу по id из канонического списка.
func (b *Board) GetTask(ctx context.Context, id string) (tasks.Task, bool, error) {
	return b.tasks.GetTask(ctx, id)
}

// Undo возвращает последнюю удалённую задачу, если окно отмены открыто.
// Повторный вызов ничего не делает.
//
// Буфер очищается только после того, как задача сохранена в списке.
func (b *Board) Undo(ctx context.Context) (tasks.Task, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return tasks.Task{}, false, err
	}

	rec, ok, err := b.undo.Pending()
	if err != nil || !ok {
		return tasks.Task{}, false, err
	}
	task := rec.Task

	restored, err := b.tasks.RestoreTask(ctx, task)
	if err != nil {
		return tasks.Task{}, false, err
	}
	if err := b.undo.Discard(); err != nil {
		// Задача уже в списке, запись истечёт по таймеру.
		b.logger.Warn("failed to clear undo record", "id", task.ID, "err", err)
	}
	if !restored {
		b.logger.Warn("undo skipped, task already present", "id", task.ID)
		return tasks.Task{}, false, nil
	}
	b.logger.Info("task restored", "id", task.ID)
	return task, true, nil
}

// ClearAll очищает список. confirmed — результат подтверждения
// пользователем; без него ничего не происходит.
func (b *Board) ClearAll(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.tasks.ClearTasks(ctx); err != nil {
		return err
	}
	if err := b.undo.Discard(); err != nil {
		return err
	}
	b.logger.Info("all tasks cleared")
	return nil
}

func (b *Board) SetSortKey(key view.SortKey) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.view.SetSortKey(key)
}

func (b *Board) SetFilterPriority(p *tasks.Priority) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.view.SetFilterPriority(p)
}

func (b *Board) SetFilterCompletion(completed *bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.view.SetFilterCompletion(completed)
}

func (b *Board) ClearFilters() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.view.ClearFilters()
}

func (b *Board) Selection() view.Selection {
	return b.view.Selection()
}

func (b *Board) Preferences() prefs.Preferences {
	return b.prefs.Get()
}

func (b *Board) SetDarkMode(on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.prefs.SetDarkMode(on)
}

func (b *Board) ToggleDarkMode() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.prefs.ToggleDarkMode()
}

// Tasks возвращает канонический список в исходном порядке (без фильтров).
func (b *Board) Tasks(ctx context.Context) ([]tasks.Task, error) {
	return b.tasks.ListTasks(ctx)
}

// Snapshot собирает производный список, счётчики и состояние буфера.
func (b *Board) Snapshot(ctx context.Context) (Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list, err := b.tasks.ListTasks(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	counts := b.tasks.Counts()
	today := b.Today()
	snap := Snapshot{
		Tasks:          b.view.View(list),
		TotalTasks:     counts.Total,
		CompletedTasks: counts.Completed,
		Selection:      b.view.Selection(),
		DarkMode:       b.prefs.Get().DarkMode,
	}
	for _, t := range list {
		if t.IsOverdue(today) {
			snap.OverdueTasks++
		}
	}

	rec, ok, err := b.undo.Pending()
	if err != nil {
		return Snapshot{}, err
	}
	if ok {
		snap.Pending = &PendingUndo{
			Task:      rec.Task,
			DeletedAt: rec.DeletedAt(),
			ExpiresAt: rec.ExpiresAt(b.undo.Window()),
		}
	}
	return snap, nil
}

// Today — сегодняшняя дата по часам доски.
func (b *Board) Today() tasks.Date {
	return tasks.DateOf(b.clock.Now())
}
