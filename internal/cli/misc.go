package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"todo-list/internal/board"
	"todo-list/internal/prefs"
	"todo-list/internal/tasks"
	"todo-list/internal/view"
)

func newThemeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [dark|light|toggle]",
		Short:     "Show or change the display theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"dark", "light", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBoard(cmd, func(_ context.Context, b *board.Board, out io.Writer) error {
				if len(args) == 1 {
					var err error
					switch args[0] {
					case "dark":
						err = b.SetDarkMode(true)
					case "light":
						err = b.SetDarkMode(false)
					case "toggle":
						_, err = b.ToggleDarkMode()
					default:
						return fmt.Errorf("unknown theme %q, want dark, light or toggle", args[0])
					}
					if err != nil {
						return err
					}
				}

				theme := "light"
				if b.Preferences().DarkMode {
					theme = "dark"
				}
				_, _ = fmt.Fprintf(out, "Theme: %s\n", theme)
				return nil
			})
		},
	}
}

// exportDoc — всё сохранённое состояние в одном документе.
type exportDoc struct {
	Tasks       []tasks.Task      `json:"tasks" yaml:"tasks"`
	Selection   view.Selection    `json:"selection" yaml:"selection"`
	Preferences prefs.Preferences `json:"preferences" yaml:"preferences"`
}

func newExportCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print all tasks and settings as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withBoard(cmd, func(ctx context.Context, b *board.Board, out io.Writer) error {
				list, err := b.Tasks(ctx)
				if err != nil {
					return err
				}
				doc := exportDoc{Tasks: list, Selection: b.Selection(), Preferences: b.Preferences()}

				switch format {
				case "json":
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(doc)
				case "yaml", "yml":
					enc := yaml.NewEncoder(out)
					enc.SetIndent(2)
					if err := enc.Encode(doc); err != nil {
						return err
					}
					return enc.Close()
				default:
					return fmt.Errorf("unknown format %q, want json or yaml", format)
				}
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "json or yaml")
	return cmd
}

func newConfigCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := a.cfg.Encode()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	}
}
