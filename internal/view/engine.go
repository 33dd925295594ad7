package view

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"todo-list/internal/storage"
	"todo-list/internal/tasks"
)

// Ключи, которыми владеет Engine.
const (
	SortKeyName         = "sort"
	PriorityFilterKey   = "priorityFilter"
	CompletionFilterKey = "completionFilter"
)

// Engine хранит текущую Selection и сохраняет её при каждом изменении.
type Engine struct {
	kv     storage.KV
	logger *log.Logger

	mu  sync.RWMutex
	sel Selection
}

// NewEngine поднимает сохранённую сортировку и фильтры.
//
// Каждый ключ читается независимо: битое значение заменяется дефолтом
// и не мешает остальным.
func NewEngine(kv storage.KV, logger *log.Logger) (*Engine, error) {
	e := &Engine{kv: kv, logger: logger, sel: DefaultSelection()}

	sort, err := e.loadSortKey()
	if err != nil {
		return nil, err
	}
	priority, err := e.loadPriorityFilter()
	if err != nil {
		return nil, err
	}
	completed, err := e.loadCompletionFilter()
	if err != nil {
		return nil, err
	}

	e.sel = Selection{Sort: sort, Priority: priority, Completed: completed}
	return e, nil
}

// Selection возвращает копию текущего выбора.
func (e *Engine) Selection() Selection {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return cloneSelection(e.sel)
}

// View применяет текущий выбор к списку.
func (e *Engine) View(list []tasks.Task) []tasks.Task {
	return Derive(list, e.Selection())
}

func (e *Engine) SetSortKey(key SortKey) error {
	if !key.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSortKey, key)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := storage.SaveJSON(e.kv, SortKeyName, key); err != nil {
		return err
	}
	e.sel.Sort = key
	return nil
}

// SetFilterPriority: nil снимает фильтр (сохраняется как JSON null).
func (e *Engine) SetFilterPriority(p *tasks.Priority) error {
	if p != nil && !p.Valid() {
		return fmt.Errorf("%w: %q", tasks.ErrInvalidPriority, *p)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := storage.SaveJSON(e.kv, PriorityFilterKey, p); err != nil {
		return err
	}
	if p == nil {
		e.sel.Priority = nil
	} else {
		v := *p
		e.sel.Priority = &v
	}
	return nil
}

// SetFilterCompletion: nil снимает фильтр.
func (e *Engine) SetFilterCompletion(completed *bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := storage.SaveJSON(e.kv, CompletionFilterKey, completed); err != nil {
		return err
	}
	if completed == nil {
		e.sel.Completed = nil
	} else {
		v := *completed
		e.sel.Completed = &v
	}
	return nil
}

// ClearFilters удаляет все три ключа и возвращает выбор к дефолту.
func (e *Engine) ClearFilters() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, key := range []string{PriorityFilterKey, CompletionFilterKey, SortKeyName} {
		if err := e.kv.Remove(key); err != nil {
			return fmt.Errorf("remove %q: %w", key, err)
		}
	}
	e.sel = DefaultSelection()
	return nil
}

func (e *Engine) loadSortKey() (SortKey, error) {
	var raw string
	found, err := storage.LoadJSON(e.kv, SortKeyName, &raw)
	if err != nil {
		if errors.Is(err, storage.ErrCorrupt) {
			e.logger.Warn("stored sort key is corrupt, using default", "err", err)
			return SortByPriority, nil
		}
		return "", err
	}
	if !found {
		return SortByPriority, nil
	}
	key, err := ParseSortKey(raw)
	if err != nil {
		e.logger.Warn("stored sort key is unknown, using default", "value", raw)
		return SortByPriority, nil
	}
	return key, nil
}

// loadPriorityFilter различает три состояния: ключа нет, null и значение.
// Пустая строка из старых версий тоже означает "без фильтра".
func (e *Engine) loadPriorityFilter() (*tasks.Priority, error) {
	var raw json.RawMessage
	found, err := storage.LoadJSON(e.kv, PriorityFilterKey, &raw)
	if err != nil {
		if errors.Is(err, storage.ErrCorrupt) {
			e.logger.Warn("stored priority filter is corrupt, ignoring", "err", err)
			return nil, nil
		}
		return nil, err
	}
	if !found || string(raw) == "null" {
		return nil, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		e.logger.Warn("stored priority filter is not a string, ignoring", "value", string(raw))
		return nil, nil
	}
	if s == "" {
		return nil, nil
	}
	p := tasks.Priority(s)
	if !p.Valid() {
		e.logger.Warn("stored priority filter is unknown, ignoring", "value", s)
		return nil, nil
	}
	return &p, nil
}

func (e *Engine) loadCompletionFilter() (*bool, error) {
	var raw *bool
	_, err := storage.LoadJSON(e.kv, CompletionFilterKey, &raw)
	if err != nil {
		if errors.Is(err, storage.ErrCorrupt) {
			e.logger.Warn("stored completion filter is corrupt, ignoring", "err", err)
			return nil, nil
		}
		return nil, err
	}
	return raw, nil
}

func cloneSelection(s Selection) Selection {
	out := Selection{Sort: s.Sort}
	if s.Priority != nil {
		p := *s.Priority
		out.Priority = &p
	}
	if s.Completed != nil {
		c := *s.Completed
		out.Completed = &c
	}
	return out
}
