// Package config загружает настройки: дефолты, затем TOML-файл,
// затем переменные окружения. Флаги CLI применяются поверх в cmd.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	EnvDataFile   = "TODO_DATA_FILE"
	EnvListen     = "TODO_LISTEN"
	EnvLogLevel   = "TODO_LOG_LEVEL"
	EnvUndoWindow = "TODO_UNDO_WINDOW"
)

// Duration — time.Duration, которую можно писать в TOML строкой ("5s").
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if parsed < 0 {
		return errors.New("duration must be >= 0")
	}
	d.Duration = parsed
	return nil
}

type Admin struct {
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type Config struct {
	DataFile       string   `toml:"data_file"`
	Listen         string   `toml:"listen"`
	LogLevel       string   `toml:"log_level"`
	UndoWindow     Duration `toml:"undo_window"`
	RequestTimeout Duration `toml:"request_timeout"`
	Admin          Admin    `toml:"admin"`
}

func Default() Config {
	return Config{
		DataFile:       "todo.json",
		Listen:         ":8080",
		LogLevel:       "info",
		UndoWindow:     Duration{5 * time.Second},
		RequestTimeout: Duration{2 * time.Second},
	}
}

// Load читает TOML-файл поверх дефолтов. Пустой path или отсутствующий
// файл — просто дефолты. Неизвестные ключи считаются ошибкой.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv переопределяет поля из переменных окружения.
func (c *Config) ApplyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvDataFile)); v != "" {
		c.DataFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvListen)); v != "" {
		c.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvUndoWindow)); v != "" {
		if err := c.UndoWindow.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s: %w", EnvUndoWindow, err)
		}
	}
	return nil
}

// Encode отдаёт конфиг в виде TOML (для `todo config`).
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
