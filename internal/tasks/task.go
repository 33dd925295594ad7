package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Ошибки валидации. Операция с такой ошибкой ничего не меняет.
var (
	ErrEmptyText       = errors.New("task text cannot be empty")
	ErrInvalidPriority = errors.New("priority must be one of Low, Medium, High")
	ErrDueDateInPast   = errors.New("due date cannot be earlier than today")
)

// Priority — важность задачи. Сохраняется строкой "Low", "Medium" или "High".
type Priority string

const (
	Low    Priority = "Low"
	Medium Priority = "Medium"
	High   Priority = "High"
)

// Priorities в порядке возрастания ранга.
var Priorities = []Priority{Low, Medium, High}

// Rank: Low=1 < Medium=2 < High=3. Для неизвестного значения — 0.
func (p Priority) Rank() int {
	switch p {
	case Low:
		return 1
	case Medium:
		return 2
	case High:
		return 3
	default:
		return 0
	}
}

// Valid сообщает, что p — один из трёх известных приоритетов.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// ParsePriority принимает значение без учёта регистра ("high" -> High).
func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

// Task — модель задачи.
//
// Хранится в памяти и сериализуется в JSON под ключом "tasks".
type Task struct {
	ID        string   `json:"id" yaml:"id"`
	Text      string   `json:"text" yaml:"text"`
	Completed bool     `json:"completed" yaml:"completed"`
	Priority  Priority `json:"priority" yaml:"priority"`
	DueDate   *Date    `json:"dueDate" yaml:"dueDate,omitempty"`
}

// UnmarshalJSON читает задачу, в которой срок может быть null или
// пустой строкой (пустое поле даты). Оба варианта означают "без срока".
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	var raw struct {
		plain
		DueDate json.RawMessage `json:"dueDate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*t = Task(raw.plain)
	t.DueDate = nil
	switch string(raw.DueDate) {
	case "", "null", `""`:
		return nil
	}
	var due Date
	if err := json.Unmarshal(raw.DueDate, &due); err != nil {
		return err
	}
	t.DueDate = &due
	return nil
}

// IsOverdue: срок раньше today, а задача ещё не выполнена.
func (t Task) IsOverdue(today Date) bool {
	return t.DueDate != nil && !t.Completed && t.DueDate.Before(today)
}

// CreateTaskRequest описывает вход для создания задачи.
//
// Text проверяется после TrimSpace, но сохраняется как есть.
type CreateTaskRequest struct {
	Text string `json:"text" validate:"required"`
	// Пустой приоритет означает Medium.
	Priority Priority `json:"priority" validate:"omitempty,oneof=Low Medium High"`
	DueDate  *Date    `json:"dueDate,omitempty"`
}

// UpdateTaskRequest — редактирование текста и приоритета.
type UpdateTaskRequest struct {
	Text     string   `json:"text" validate:"required"`
	Priority Priority `json:"priority" validate:"required,oneof=Low Medium High"`
}

// Counts — агрегаты для счётчика "Completed: n / total".
type Counts struct {
	Total     int `json:"totalTasks"`
	Completed int `json:"completedTasks"`
}
