package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"todo-list/internal/board"
	"todo-list/internal/tasks"
)

type listStyles struct {
	badge     map[tasks.Priority]lipgloss.Style
	id        lipgloss.Style
	done      lipgloss.Style
	overdue   lipgloss.Style
	due       lipgloss.Style
	counter   lipgloss.Style
	undo      lipgloss.Style
	emptyHint lipgloss.Style
}

func newListStyles(r *lipgloss.Renderer) listStyles {
	badge := r.NewStyle().Bold(true).Padding(0, 1)
	return listStyles{
		badge: map[tasks.Priority]lipgloss.Style{
			tasks.Low:    badge.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("2")),
			tasks.Medium: badge.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3")),
			tasks.High:   badge.Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1")),
		},
		id:        r.NewStyle().Faint(true),
		done:      r.NewStyle().Strikethrough(true).Faint(true),
		overdue:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		due:       r.NewStyle().Faint(true),
		counter:   r.NewStyle().Foreground(lipgloss.Color("2")),
		undo:      r.NewStyle().Italic(true),
		emptyHint: r.NewStyle().Faint(true),
	}
}

// renderSnapshot печатает список так же, как его видит пользователь:
// бейдж приоритета, текст, срок, просрочка и счётчик выполненных.
func renderSnapshot(out io.Writer, snap board.Snapshot, today tasks.Date) {
	st := newListStyles(lipgloss.NewRenderer(out))

	if snap.TotalTasks == 0 {
		_, _ = fmt.Fprintln(out, st.emptyHint.Render("No tasks yet. Add one!"))
	} else {
		_, _ = fmt.Fprintf(out, "Completed: %s / %d\n", st.counter.Render(fmt.Sprint(snap.CompletedTasks)), snap.TotalTasks)
	}

	for _, t := range snap.Tasks {
		var line strings.Builder
		line.WriteString(st.id.Render(shortID(t.ID)))
		line.WriteString(" ")
		line.WriteString(st.badge[t.Priority].Render(string(t.Priority)))
		line.WriteString(" ")

		switch {
		case t.Completed:
			line.WriteString(st.done.Render("[x] " + t.Text))
		case t.IsOverdue(today):
			line.WriteString(st.overdue.Render("[ ] " + t.Text))
		default:
			line.WriteString("[ ] " + t.Text)
		}

		if t.DueDate != nil {
			label := "due " + t.DueDate.String()
			if t.IsOverdue(today) {
				line.WriteString(" " + st.overdue.Render(label+" (overdue)"))
			} else {
				line.WriteString(" " + st.due.Render(label))
			}
		}
		_, _ = fmt.Fprintln(out, line.String())
	}

	if snap.TotalTasks > 0 && len(snap.Tasks) == 0 {
		_, _ = fmt.Fprintln(out, st.emptyHint.Render("No tasks match the current filters."))
	}

	if snap.Pending != nil {
		_, _ = fmt.Fprintln(out, st.undo.Render(fmt.Sprintf("Deleted %q, run `todo undo` before %s to restore.",
			snap.Pending.Task.Text, snap.Pending.ExpiresAt.Format("15:04:05"))))
	}
}
