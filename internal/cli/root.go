// Package cli — командная строка поверх Board.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"todo-list/internal/board"
	"todo-list/internal/clock"
	"todo-list/internal/config"
	"todo-list/internal/logging"
	"todo-list/internal/storage"
)

// newClock подменяется в тестах.
var newClock = func() clock.Clock { return clock.RealClock{} }

type globalOptions struct {
	ConfigPath string
	DataFile   string
	LogLevel   string
}

// app — то, что нужно каждой команде: итоговый конфиг и логгер.
type app struct {
	cfg    config.Config
	logger *log.Logger
}

func NewRootCommand(version string) *cobra.Command {
	var opts globalOptions
	a := &app{}

	root := &cobra.Command{
		Use:           "todo",
		Short:         "Keep a prioritized to-do list",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if err := cfg.ApplyEnv(); err != nil {
				return err
			}
			if opts.DataFile != "" {
				cfg.DataFile = opts.DataFile
			}
			if opts.LogLevel != "" {
				cfg.LogLevel = opts.LogLevel
			}
			a.cfg = cfg
			a.logger = logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "todo.toml", "config file (TOML)")
	root.PersistentFlags().StringVar(&opts.DataFile, "data", "", "data file (overrides config)")
	root.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newAddCommand(a),
		newListCommand(a),
		newToggleCommand(a),
		newEditCommand(a),
		newRemoveCommand(a),
		newUndoCommand(a),
		newClearCommand(a),
		newMoveCommand(a),
		newSortCommand(a),
		newFilterCommand(a),
		newThemeCommand(a),
		newExportCommand(a),
		newConfigCommand(a),
		newServeCommand(a),
	)
	return root
}

// openBoard открывает доску поверх файла данных из конфига.
func (a *app) openBoard(ctx context.Context) (*board.Board, error) {
	kv := storage.NewFileKV(a.cfg.DataFile)
	b, err := board.Open(ctx, kv, board.Options{
		UndoWindow: a.cfg.UndoWindow.Duration,
		Clock:      newClock(),
		Logger:     a.logger,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUnreadable) {
			a.logger.Error("data file is not valid JSON, fix or move it away", "file", kv.Path())
		}
		return nil, fmt.Errorf("open %s: %w", a.cfg.DataFile, err)
	}
	return b, nil
}

// withBoard открывает доску, выполняет fn и закрывает её.
func (a *app) withBoard(cmd *cobra.Command, fn func(ctx context.Context, b *board.Board, out io.Writer) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := a.openBoard(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	return fn(ctx, b, cmd.OutOrStdout())
}
