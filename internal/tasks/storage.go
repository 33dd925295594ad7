package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"todo-list/internal/storage"
)

// TasksKey — ключ канонического списка в KV-хранилище.
const TasksKey = "tasks"

// taskStore отвечает за чтение и запись списка задач под ключом "tasks".
type taskStore struct {
	kv     storage.KV
	logger *log.Logger
}

func newTaskStore(kv storage.KV, logger *log.Logger) *taskStore {
	return &taskStore{kv: kv, logger: logger}
}

// SaveTasks сохраняет весь список целиком.
func (ts *taskStore) SaveTasks(list []Task) error {
	if list == nil {
		list = []Task{}
	}
	return storage.SaveJSON(ts.kv, TasksKey, list)
}

// RemoveTasks удаляет ключ совсем (а не пишет пустой список).
func (ts *taskStore) RemoveTasks() error {
	return ts.kv.Remove(TasksKey)
}

// LoadTasks загружает задачи.
//
// Нет ключа — пустой список. Битый JSON — тоже пустой список и warning в лог:
// испорченные данные не должны ронять приложение. Записи разбираются по
// одной, поэтому одна нечитаемая запись не уносит с собой весь список.
// Ошибка чтения самого хранилища пробрасывается наверх.
func (ts *taskStore) LoadTasks() ([]Task, error) {
	var records []json.RawMessage
	found, err := storage.LoadJSON(ts.kv, TasksKey, &records)
	if err != nil {
		if errors.Is(err, storage.ErrCorrupt) {
			ts.logger.Warn("stored tasks are corrupt, starting with an empty list", "err", err)
			return []Task{}, nil
		}
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	if !found {
		return []Task{}, nil
	}

	raw := make([]Task, 0, len(records))
	for i, rec := range records {
		var t Task
		if err := json.Unmarshal(rec, &t); err != nil {
			ts.logger.Warn("dropping unreadable stored task", "index", i, "err", err)
			continue
		}
		raw = append(raw, t)
	}
	return ts.normalize(raw), nil
}

// normalize чинит то, что можно починить, и выбрасывает остальное:
// записи без id или текста, повторные id. Неизвестный приоритет -> Medium.
func (ts *taskStore) normalize(raw []Task) []Task {
	out := make([]Task, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, t := range raw {
		if t.ID == "" || strings.TrimSpace(t.Text) == "" || seen[t.ID] {
			ts.logger.Warn("dropping invalid stored task", "id", t.ID)
			continue
		}
		if !t.Priority.Valid() {
			t.Priority = Medium
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}
