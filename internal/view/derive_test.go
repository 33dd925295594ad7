package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"todo-list/internal/tasks"
)

func date(y, m, d int) *tasks.Date {
	v := tasks.NewDate(y, time.Month(m), d)
	return &v
}

func ids(list []tasks.Task) []string {
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = t.ID
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func TestDerive_PriorityScenario(t *testing.T) {
	list := []tasks.Task{
		{ID: "1", Text: "a", Priority: tasks.High},
		{ID: "2", Text: "b", Priority: tasks.Low},
	}

	assert.Equal(t, []string{"2", "1"}, ids(Derive(list, Selection{Sort: SortByPriority})))

	high := tasks.High
	assert.Equal(t, []string{"1"}, ids(Derive(list, Selection{Sort: SortByPriority, Priority: &high})))
}

func TestDerive_PriorityIsStable(t *testing.T) {
	list := []tasks.Task{
		{ID: "m1", Priority: tasks.Medium},
		{ID: "h", Priority: tasks.High},
		{ID: "m2", Priority: tasks.Medium},
		{ID: "l", Priority: tasks.Low},
	}
	assert.Equal(t, []string{"l", "m1", "m2", "h"}, ids(Derive(list, DefaultSelection())))
}

func TestDerive_DueDateNilsLast(t *testing.T) {
	list := []tasks.Task{
		{ID: "none1"},
		{ID: "late", DueDate: date(2026, 9, 1)},
		{ID: "none2"},
		{ID: "early", DueDate: date(2026, 1, 1)},
	}

	got := ids(Derive(list, Selection{Sort: SortByDueDate}))
	assert.Equal(t, []string{"early", "late", "none1", "none2"}, got)
}

func TestDerive_CompletionIncompleteFirst(t *testing.T) {
	list := []tasks.Task{
		{ID: "done1", Completed: true},
		{ID: "open1"},
		{ID: "done2", Completed: true},
		{ID: "open2"},
	}

	got := ids(Derive(list, Selection{Sort: SortByCompletion}))
	assert.Equal(t, []string{"open1", "open2", "done1", "done2"}, got)
}

func TestDerive_FiltersCompose(t *testing.T) {
	list := []tasks.Task{
		{ID: "1", Priority: tasks.High, Completed: true},
		{ID: "2", Priority: tasks.High},
		{ID: "3", Priority: tasks.Low, Completed: true},
	}

	sel := Selection{Sort: SortByPriority, Priority: ptr(tasks.High), Completed: ptr(true)}
	assert.Equal(t, []string{"1"}, ids(Derive(list, sel)))

	sel = Selection{Sort: SortByPriority, Completed: ptr(false)}
	assert.Equal(t, []string{"2"}, ids(Derive(list, sel)))

	sel = Selection{Sort: SortByPriority, Priority: ptr(tasks.Medium)}
	assert.Empty(t, Derive(list, sel))
}

func TestDerive_DoesNotMutateInput(t *testing.T) {
	list := []tasks.Task{
		{ID: "1", Priority: tasks.High},
		{ID: "2", Priority: tasks.Low},
		{ID: "3", Priority: tasks.Medium},
	}
	before := append([]tasks.Task(nil), list...)

	first := Derive(list, DefaultSelection())
	second := Derive(list, DefaultSelection())

	assert.Equal(t, before, list)
	assert.Equal(t, first, second)
}

func TestParseSortKey(t *testing.T) {
	k, err := ParseSortKey("dueDate")
	assert.NoError(t, err)
	assert.Equal(t, SortByDueDate, k)

	_, err = ParseSortKey("alphabet")
	assert.ErrorIs(t, err, ErrInvalidSortKey)
}
