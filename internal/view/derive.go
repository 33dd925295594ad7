// Package view строит производное представление списка задач:
// фильтр по приоритету и выполненности плюс сортировка.
package view

import (
	"errors"
	"fmt"
	"slices"

	"todo-list/internal/tasks"
)

// ErrInvalidSortKey — ключ сортировки вне допустимого набора.
var ErrInvalidSortKey = errors.New("sort key must be one of priority, dueDate, completion")

// SortKey выбирает компаратор производного списка.
type SortKey string

const (
	SortByPriority   SortKey = "priority"
	SortByDueDate    SortKey = "dueDate"
	SortByCompletion SortKey = "completion"
)

// Valid сообщает, что k — один из известных ключей.
func (k SortKey) Valid() bool {
	switch k {
	case SortByPriority, SortByDueDate, SortByCompletion:
		return true
	}
	return false
}

// ParseSortKey проверяет строку и возвращает ключ. Регистр важен: "dueDate".
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSortKey, s)
	}
	return k, nil
}

// Selection — выбранная пользователем сортировка и фильтры.
// nil в фильтре означает "не фильтровать".
type Selection struct {
	Sort      SortKey         `json:"sort" yaml:"sort"`
	Priority  *tasks.Priority `json:"priorityFilter" yaml:"priorityFilter"`
	Completed *bool           `json:"completionFilter" yaml:"completionFilter"`
}

// DefaultSelection: сортировка по приоритету, без фильтров.
func DefaultSelection() Selection {
	return Selection{Sort: SortByPriority}
}

// Match проверяет задачу против обоих фильтров.
func (s Selection) Match(t tasks.Task) bool {
	if s.Priority != nil && t.Priority != *s.Priority {
		return false
	}
	if s.Completed != nil && t.Completed != *s.Completed {
		return false
	}
	return true
}

// Derive фильтрует и сортирует задачи.
//
// Входной срез не меняется: работаем на копии, сортировка стабильная,
// поэтому равные по ключу задачи сохраняют исходный порядок.
func Derive(list []tasks.Task, sel Selection) []tasks.Task {
	out := make([]tasks.Task, 0, len(list))
	for _, t := range list {
		if sel.Match(t) {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, comparator(sel.Sort))
	return out
}

func comparator(key SortKey) func(a, b tasks.Task) int {
	switch key {
	case SortByDueDate:
		return compareDueDate
	case SortByCompletion:
		return compareCompletion
	default:
		return comparePriority
	}
}

func comparePriority(a, b tasks.Task) int {
	return a.Priority.Rank() - b.Priority.Rank()
}

// compareDueDate: по возрастанию даты, задачи без срока — в конце.
func compareDueDate(a, b tasks.Task) int {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return 1
	case b.DueDate == nil:
		return -1
	default:
		return a.DueDate.Compare(*b.DueDate)
	}
}

// compareCompletion: невыполненные раньше выполненных.
func compareCompletion(a, b tasks.Task) int {
	switch {
	case a.Completed == b.Completed:
		return 0
	case !a.Completed:
		return -1
	default:
		return 1
	}
}
