// Package tasks — канонический список задач и операции над ним.
package tasks

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"todo-list/internal/clock"
	"todo-list/internal/storage"
)

// Service владеет каноническим списком задач.
//
// Каждая мутация сначала готовит новый список, сохраняет его и только
// потом коммитит в память. Если запись не удалась, состояние в памяти
// не меняется, а ошибка уходит вызывающему.
type Service struct {
	store    *taskStore
	clock    clock.Clock
	validate *validator.Validate
	logger   *log.Logger

	mu    sync.RWMutex
	tasks []Task
}

// NewService создаёт сервис и загружает задачи из хранилища.
func NewService(ctx context.Context, kv storage.KV, clk clock.Clock, logger *log.Logger) (*Service, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store := newTaskStore(kv, logger)
	loaded, err := store.LoadTasks()
	if err != nil {
		return nil, err
	}

	return &Service{
		store:    store,
		clock:    clk,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		tasks:    loaded,
	}, nil
}

// ListTasks возвращает копию канонического списка в его порядке.
func (s *Service) ListTasks(ctx context.Context) ([]Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out, nil
}

// GetTask возвращает задачу по id.
func (s *Service) GetTask(ctx context.Context, id string) (Task, bool, error) {
	if err := ctx.Err(); err != nil {
		return Task{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexLocked(id); idx >= 0 {
		return s.tasks[idx], true, nil
	}
	return Task{}, false, nil
}

// Counts считает всего задач и выполненных.
func (s *Service) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := Counts{Total: len(s.tasks)}
	for _, t := range s.tasks {
		if t.Completed {
			c.Completed++
		}
	}
	return c
}

// Today — сегодняшняя дата по часам сервиса.
func (s *Service) Today() Date {
	return DateOf(s.clock.Now())
}

// CreateTask валидирует запрос, выдаёт новый id и добавляет задачу в конец.
func (s *Service) CreateTask(ctx context.Context, req CreateTaskRequest) (Task, error) {
	if err := ctx.Err(); err != nil {
		return Task{}, err
	}

	check := req
	check.Text = strings.TrimSpace(req.Text)
	if err := s.validateRequest(check); err != nil {
		return Task{}, err
	}
	if req.DueDate != nil && req.DueDate.Before(s.Today()) {
		return Task{}, ErrDueDateInPast
	}

	priority := req.Priority
	if priority == "" {
		priority = Medium
	}

	created := Task{
		ID:       uuid.NewString(),
		Text:     req.Text,
		Priority: priority,
	}
	if req.DueDate != nil {
		due := *req.DueDate
		created.DueDate = &due
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	candidate := make([]Task, 0, len(s.tasks)+1)
	candidate = append(candidate, s.tasks...)
	candidate = append(candidate, created)

	if err := s.store.SaveTasks(candidate); err != nil {
		return Task{}, err
	}

	s.tasks = candidate
	s.logger.Debug("task created", "id", created.ID, "priority", created.Priority)
	return created, nil
}

// ToggleTask переключает completed. Неизвестный id — не ошибка, ok=false.
func (s *Service) ToggleTask(ctx context.Context, id string) (Task, bool, error) {
	return s.mutate(ctx, id, func(t *Task) {
		t.Completed = !t.Completed
	})
}

// UpdateTask меняет текст и приоритет задачи.
//
// Пустой текст отклоняется целиком: старые текст и приоритет остаются.
func (s *Service) UpdateTask(ctx context.Context, id string, req UpdateTaskRequest) (Task, bool, error) {
	if err := ctx.Err(); err != nil {
		return Task{}, false, err
	}

	check := req
	check.Text = strings.TrimSpace(req.Text)
	if err := s.validateRequest(check); err != nil {
		return Task{}, false, err
	}

	return s.mutate(ctx, id, func(t *Task) {
		t.Text = req.Text
		t.Priority = req.Priority
	})
}

// DeleteTask удаляет задачу и сразу сохраняет список.
// Возвращает удалённое значение, чтобы его можно было отдать в буфер отмены.
func (s *Service) DeleteTask(ctx context.Context, id string) (Task, bool, error) {
	if err := ctx.Err(); err != nil {
		return Task{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx == -1 {
		return Task{}, false, nil
	}
	removed := s.tasks[idx]

	candidate := make([]Task, 0, len(s.tasks)-1)
	candidate = append(candidate, s.tasks[:idx]...)
	candidate = append(candidate, s.tasks[idx+1:]...)

	if err := s.store.SaveTasks(candidate); err != nil {
		return Task{}, false, err
	}

	s.tasks = candidate
	return removed, true, nil
}

// RestoreTask возвращает ранее удалённую задачу в конец списка.
// Если задача с таким id уже есть, ничего не делает (ok=false).
func (s *Service) RestoreTask(ctx context.Context, task Task) (bool, error) {
	return s.InsertTask(ctx, task, -1)
}

// InsertTask вставляет задачу на позицию index. Отрицательный или
// слишком большой index означает конец списка. Повторный id — ok=false.
func (s *Service) InsertTask(ctx context.Context, task Task, index int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(task.ID) >= 0 {
		return false, nil
	}
	if index < 0 || index > len(s.tasks) {
		index = len(s.tasks)
	}

	candidate := make([]Task, 0, len(s.tasks)+1)
	candidate = append(candidate, s.tasks...)
	candidate = slices.Insert(candidate, index, task)

	if err := s.store.SaveTasks(candidate); err != nil {
		return false, err
	}

	s.tasks = candidate
	return true, nil
}

// MoveTask переставляет задачу на позицию index в каноническом порядке.
// index вне диапазона прижимается к краю.
func (s *Service) MoveTask(ctx context.Context, id string, index int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.indexLocked(id)
	if from == -1 {
		return false, nil
	}
	index = max(0, min(index, len(s.tasks)-1))
	if index == from {
		return true, nil
	}

	moved := s.tasks[from]
	candidate := make([]Task, 0, len(s.tasks))
	candidate = append(candidate, s.tasks[:from]...)
	candidate = append(candidate, s.tasks[from+1:]...)
	candidate = slices.Insert(candidate, index, moved)

	if err := s.store.SaveTasks(candidate); err != nil {
		return false, err
	}

	s.tasks = candidate
	return true, nil
}

// ClearTasks очищает список и удаляет ключ из хранилища целиком.
//
// Подтверждение пользователя — забота вызывающего кода.
func (s *Service) ClearTasks(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.RemoveTasks(); err != nil {
		return err
	}

	s.tasks = []Task{}
	return nil
}

// mutate применяет fn к копии задачи id и сохраняет новый список.
func (s *Service) mutate(ctx context.Context, id string, fn func(t *Task)) (Task, bool, error) {
	if err := ctx.Err(); err != nil {
		return Task{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx == -1 {
		return Task{}, false, nil
	}

	updated := s.tasks[idx]
	fn(&updated)

	candidate := make([]Task, len(s.tasks))
	copy(candidate, s.tasks)
	candidate[idx] = updated

	if err := s.store.SaveTasks(candidate); err != nil {
		return Task{}, false, err
	}

	s.tasks = candidate
	return updated, true, nil
}

func (s *Service) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// validateRequest прогоняет теги validate и переводит ошибки валидатора
// в наши сентинелы, чтобы HTTP и CLI могли их различать через errors.Is.
func (s *Service) validateRequest(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		switch fe.Field() {
		case "Text":
			return ErrEmptyText
		case "Priority":
			return ErrInvalidPriority
		}
	}
	return err
}
