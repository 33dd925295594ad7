// Package logging собирает общий логгер приложения на charmbracelet/log.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// ParseLevel переводит строку из конфига в уровень логирования.
// Неизвестное значение — info.
func ParseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// New создаёт логгер с меткой времени и заданным уровнем.
// Если w == nil, пишем в stderr.
func New(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(level),
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "todo",
	})
}

// Discard — логгер для тестов, который никуда не пишет.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
