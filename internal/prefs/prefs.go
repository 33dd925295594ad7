// Package prefs хранит отображаемые предпочтения пользователя.
// Сейчас это только тёмная тема.
package prefs

import (
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"todo-list/internal/storage"
)

const DarkModeKey = "darkMode"

type Preferences struct {
	DarkMode bool `json:"darkMode" yaml:"darkMode"`
}

type Store struct {
	kv     storage.KV
	logger *log.Logger

	mu    sync.RWMutex
	prefs Preferences
}

func NewStore(kv storage.KV, logger *log.Logger) (*Store, error) {
	s := &Store{kv: kv, logger: logger}

	var dark bool
	_, err := storage.LoadJSON(kv, DarkModeKey, &dark)
	if err != nil {
		if !errors.Is(err, storage.ErrCorrupt) {
			return nil, err
		}
		logger.Warn("stored dark mode flag is corrupt, using light", "err", err)
		dark = false
	}
	s.prefs.DarkMode = dark
	return s, nil
}

func (s *Store) Get() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

func (s *Store) SetDarkMode(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := storage.SaveJSON(s.kv, DarkModeKey, on); err != nil {
		return err
	}
	s.prefs.DarkMode = on
	return nil
}

// ToggleDarkMode переключает тему и возвращает новое значение.
func (s *Store) ToggleDarkMode() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := !s.prefs.DarkMode
	if err := storage.SaveJSON(s.kv, DarkModeKey, next); err != nil {
		return s.prefs.DarkMode, err
	}
	s.prefs.DarkMode = next
	return next, nil
}
