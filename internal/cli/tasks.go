package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"todo-list/internal/board"
	"todo-list/internal/tasks"
)

var errAmbiguousID = errors.New("ambiguous task id")

func newAddCommand(a *app) *cobra.Command {
	var opts struct {
		Priority string
		Due      string
	}

	cmd := &cobra.Command{
		Use:   "add TEXT...",
		Short: "Add a task",
		Long: `Add a task to the end of the list.

Examples:
  todo add "Buy milk"
  todo add -p high --due 2026-12-24 "Wrap presents"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := tasks.CreateTaskRequest{Text: strings.Join(args, " ")}
			if opts.Priority != "" {
				p, err := tasks.ParsePriority(opts.Priority)
				if err != nil {
					return err
				}
				req.Priority = p
			}
			if opts.Due != "" {
				d, err := tasks.ParseDate(opts.Due)
				if err != nil {
					return err
				}
				req.DueDate = &d
			}

			return a.withBoard(cmd, func(ctx context.Context, b *board.Board, out io.Writer) error {
				created, err := b.AddTask(ctx, req)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "Added %s %q [%s]\n", shortID(created.ID), created.Text, created.Priority)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Priority, "priority", "p", "", "Low, Medium (default) or High")
	cmd.Flags().StringVar(&opts.Due, "due", "", "due date, YYYY-MM-DD")
	return cmd
}

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show tasks with the current sort and filters",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withBoard(cmd, func(ctx context.Context, b *board.Board, out io.Writer) error {
				snap, err := b.Snapshot(ctx)
				if err != nil {
					return err
				}
				renderSnapshot(out, snap, b.Today())
				return nil
			})
		},
	}
}

func newToggleCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "toggle ID",
		Aliases: []string{"done"},
		Short:   "Mark a task completed or not completed",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBoard(cmd, func(ctx context.Context, b *board.Board, out io.Writer) error {
				id, err := resolveID(ctx, b, args[0])
				if err != nil {
					return err
				}
				t, ok, err := b.ToggleCompletion(ctx, id)
				if err != nil {
					return err
				}
				if !ok {
					return notFound(args[0])
				}
				state := "not completed"
				if t.Completed {
					state = "completed"
				}
				_, _ = fmt.Fprintf(out, "%s is %s\n", shortID(t.ID), state)
				return nil
			})
		},
	}
}

func newEditCommand(a *app) *cobra.Command {
	var priority string

	cmd := &cobra.Command{
		Use:   "edit ID TEXT...",
		Short: "Change the text and priority of a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBoard(cmd, func(ctx context.Context, b *board.Board, out io.Writer) error {
				id, err := resolveID(ctx, b, args[0])
				if err != nil {
					return err
				}
				current, ok, err := b.GetTask(ctx, id)
				if err != nil {
					return err
				}
				if !ok {
					return notFound(args[0])
				}

				req := tasks.UpdateTaskRequest{Text: strings.Join(args[1:], " "), Priority: current.Priority}
				if priority != "" {
					if req.Priority, err = tasks.ParsePriority(priority); err != nil {
						return err
					}
				}

				updated, ok, err := b.EditTask(ctx, id, req)
				if err != nil {
					return err
				}
				if !ok {
					return notFound(args[0])
				}
				_, _ = fmt.Fprintf(out, "Updated %s %q [%s]\n", shortID(updated.ID), updated.Text, updated.Priority)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&priority, "priority", "p", "", "new priority (default: keep)")
	return cmd
}

func newRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a task (can be undone for a few seconds)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBoard(cmd, func(ctx context.Context, b *board.Board, out io.Writer) error {
				id, err := resolveID(ctx, b, args[0])
				if err != nil {
					return err
				}
				ok, err := b.DeleteTask(ctx, id)
				if err != nil {
					return err
				}
				if !ok {
					return notFound(args[0])
				}
				_, _ = fmt.Fprintf(out, "Deleted %s. Run `todo undo` within %s to restore it.\n",
					shortID(id), a.cfg.UndoWindow.Duration)
				return nil
			})
		},
	}
}

func newUndoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Restore the most recently deleted task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withBoard(cmd, func(ctx context.Context, b *board.Board, out io.Writer) error {
				t, ok, err := b.Undo(ctx)
				if err != nil {
					return err
				}
				if !ok {
					_, _ = fmt.Fprintln(out, "Nothing to undo.")
					return nil
				}
				_, _ = fmt.Fprintf(out, "Restored %s %q\n", shortID(t.ID), t.Text)
				return nil
			})
		},
	}
}

func newClearCommand(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all tasks (requires --yes)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withBoard(cmd, func(ctx context.Context, b *board.Board, out io.Writer) error {
				if err := b.ClearAll(ctx, yes); err != nil {
					if errors.Is(err, board.ErrNotConfirmed) {
						return fmt.Errorf("%w: pass --yes", err)
					}
					return err
				}
				_, _ = fmt.Fprintln(out, "All tasks cleared.")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deleting every task")
	return cmd
}

func newMoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move ID INDEX",
		Short: "Move a task to a position in the list (0 is first)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[1])
			}
			return a.withBoard(cmd, func(ctx context.Context, b *board.Board, out io.Writer) error {
				id, err := resolveID(ctx, b, args[0])
				if err != nil {
					return err
				}
				ok, err := b.MoveTask(ctx, id, index)
				if err != nil {
					return err
				}
				if !ok {
					return notFound(args[0])
				}
				_, _ = fmt.Fprintf(out, "Moved %s\n", shortID(id))
				return nil
			})
		},
	}
}

// resolveID принимает полный id или его однозначный префикс.
func resolveID(ctx context.Context, b *board.Board, arg string) (string, error) {
	if arg == "" {
		return "", notFound(arg)
	}
	list, err := b.Tasks(ctx)
	if err != nil {
		return "", err
	}

	var match string
	for _, t := range list {
		if t.ID == arg {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, arg) {
			if match != "" {
				return "", fmt.Errorf("%w: %q", errAmbiguousID, arg)
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", notFound(arg)
	}
	return match, nil
}

func notFound(id string) error {
	return fmt.Errorf("task %q not found", id)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
