package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"todo-list/internal/board"
	"todo-list/internal/tasks"
	"todo-list/internal/view"
)

func newSortCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "sort KEY",
		Short:     "Sort the list by priority, dueDate or completion",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(view.SortByPriority), string(view.SortByDueDate), string(view.SortByCompletion)},
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := view.ParseSortKey(args[0])
			if err != nil {
				return err
			}
			return a.withBoard(cmd, func(_ context.Context, b *board.Board, out io.Writer) error {
				if err := b.SetSortKey(key); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "Sorting by %s\n", key)
				return nil
			})
		},
	}
}

// anyValue снимает фильтр.
const anyValue = "any"

func newFilterCommand(a *app) *cobra.Command {
	var opts struct {
		Priority  string
		Completed string
	}

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Filter the list by priority and completion",
		Long: `Filter the list by priority and completion.

Only the flags you pass are changed. Use "any" to drop a filter.

Examples:
  todo filter --priority high
  todo filter --completed false
  todo filter --priority any --completed any
  todo filter clear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			setPriority := cmd.Flags().Changed("priority")
			setCompleted := cmd.Flags().Changed("completed")
			if !setPriority && !setCompleted {
				return a.withBoard(cmd, func(_ context.Context, b *board.Board, out io.Writer) error {
					printSelection(out, b.Selection())
					return nil
				})
			}

			var priority *tasks.Priority
			if setPriority && !strings.EqualFold(opts.Priority, anyValue) {
				p, err := tasks.ParsePriority(opts.Priority)
				if err != nil {
					return err
				}
				priority = &p
			}
			var completed *bool
			if setCompleted && !strings.EqualFold(opts.Completed, anyValue) {
				v, err := strconv.ParseBool(opts.Completed)
				if err != nil {
					return fmt.Errorf("invalid --completed %q, want true, false or any", opts.Completed)
				}
				completed = &v
			}

			return a.withBoard(cmd, func(_ context.Context, b *board.Board, out io.Writer) error {
				if setPriority {
					if err := b.SetFilterPriority(priority); err != nil {
						return err
					}
				}
				if setCompleted {
					if err := b.SetFilterCompletion(completed); err != nil {
						return err
					}
				}
				printSelection(out, b.Selection())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Priority, "priority", "", "Low, Medium, High or any")
	cmd.Flags().StringVar(&opts.Completed, "completed", "", "true, false or any")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop all filters and reset sorting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withBoard(cmd, func(_ context.Context, b *board.Board, out io.Writer) error {
				if err := b.ClearFilters(); err != nil {
					return err
				}
				printSelection(out, b.Selection())
				return nil
			})
		},
	})
	return cmd
}

func printSelection(out io.Writer, sel view.Selection) {
	priority := anyValue
	if sel.Priority != nil {
		priority = string(*sel.Priority)
	}
	completed := anyValue
	if sel.Completed != nil {
		completed = strconv.FormatBool(*sel.Completed)
	}
	_, _ = fmt.Fprintf(out, "sort=%s priority=%s completed=%s\n", sel.Sort, priority, completed)
}
