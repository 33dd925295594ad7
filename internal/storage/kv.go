// Package storage — слой персистентности: key-value хранилище строк
// (аналог localStorage) и хелперы для JSON-блобов поверх него.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorrupt возвращается, когда значение по ключу есть, но это не валидный JSON
// нужной формы. Вызывающий код сам решает, чем его заменить (обычно дефолтом).
var ErrCorrupt = errors.New("stored value is corrupt")

// KV — минимальный контракт хранилища: строка по строковому ключу.
//
// Каждый компонент владеет своим набором ключей и не трогает чужие.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// LoadJSON читает ключ и раскладывает JSON в v.
//
// Отсутствующий ключ — не ошибка: found=false.
// Битый JSON — ошибка, обёрнутая в ErrCorrupt.
func LoadJSON(kv KV, key string, v any) (bool, error) {
	raw, ok, err := kv.Get(key)
	if err != nil {
		return false, fmt.Errorf("read %q: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("decode %q: %w: %v", key, ErrCorrupt, err)
	}
	return true, nil
}

// SaveJSON сериализует v и пишет под ключом key.
func SaveJSON(kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if err := kv.Set(key, string(data)); err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}
