package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrUnreadable — файл хранилища целиком не является JSON-объектом.
// Такой файл не перезаписывается, пока его не починят.
var ErrUnreadable = errors.New("storage file is not a valid JSON object")

// FileKV хранит всё пространство ключей одним JSON-объектом в файле.
//
// Файл перечитывается на каждый Get и переписывается на каждый Set/Remove,
// поэтому запись по ключу всегда видна следующему чтению этого ключа.
// Операции защищены RWMutex.
type FileKV struct {
	mu       sync.RWMutex
	filename string
}

// NewFileKV создаёт файловое хранилище. Сам файл появится при первой записи.
func NewFileKV(filename string) *FileKV {
	return &FileKV{filename: filename}
}

// Path возвращает путь к файлу хранилища.
func (f *FileKV) Path() string {
	return f.filename
}

func (f *FileKV) Get(key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := f.readLocked()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

func (f *FileKV) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.readLocked()
	if err != nil {
		return err
	}
	data[key] = value
	return f.writeLocked(data)
}

func (f *FileKV) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.readLocked()
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return f.writeLocked(data)
}

func (f *FileKV) readLocked() (map[string]string, error) {
	raw, err := os.ReadFile(f.filename)
	if err != nil {
		if os.IsNotExist(err) {
			// Нет файла — нормальная ситуация для первого запуска.
			return map[string]string{}, nil
		}
		return nil, err
	}

	// Пустой файл — не ошибка, просто пустое хранилище.
	if len(strings.TrimSpace(string(raw))) == 0 {
		return map[string]string{}, nil
	}

	data := map[string]string{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("read %s: %w: %v", f.filename, ErrUnreadable, err)
	}
	return data, nil
}

func (f *FileKV) writeLocked(data map[string]string) error {
	raw, err := json.MarshalIndent(data, "", "   ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(f.filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	// Пишем во временный файл и переименовываем, чтобы не оставить
	// наполовину записанный JSON при падении.
	tmp := f.filename + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.filename)
}
