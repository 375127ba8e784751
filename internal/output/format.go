// Package output provides the text and HTML renderers for task lists.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"taskboard/internal/service"
)

// Empty-state text shown when a list has no tasks.
const (
	EmptyTitle = "No tasks found"
	EmptyHint  = "Add a new task to get started!"
)

// Action labels for the per-task controls.
const (
	CompleteLabel = "✅ Complete"
	UndoLabel     = "↩️ Undo"
	DeleteLabel   = "🗑️ Delete"
)

// TimeLayout is used for created/deadline timestamps.
const TimeLayout = "2006-01-02 15:04"

// Options control how timestamps are displayed.
type Options struct {
	// Location converts timestamps before display. Nil means time.Local.
	Location *time.Location
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

// FormatTasks writes the whole list, or the empty-state message for an empty list.
func FormatTasks(w io.Writer, tasks []service.Task, opts Options) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, EmptyTitle)
		fmt.Fprintln(w, EmptyHint)
		return
	}
	for _, task := range tasks {
		FormatTask(w, task, opts)
	}
}

// FormatTask formats one task card for a terminal.
// Format: "{ID:>4}  [x] {TITLE}  {BADGE}\n", then indented description and meta lines.
func FormatTask(w io.Writer, task service.Task, opts Options) {
	mark := "[ ]"
	if task.Completed {
		mark = "[x]"
	}
	fmt.Fprintf(w, "%4d  %s %s  %s\n", task.ID, mark, normalizeTitle(task.Title), Badge(task.Priority))

	if desc := normalizeText(task.Description); desc != "" {
		fmt.Fprintf(w, "          %s\n", desc)
	}

	meta := "Created: " + FormatTime(task.CreatedAt, opts)
	if task.Deadline != nil && !task.Deadline.IsZero() {
		meta += "  Deadline: " + FormatTime(*task.Deadline, opts)
	}
	fmt.Fprintf(w, "          %s\n", meta)
}

// Badge returns the priority badge text.
func Badge(p service.Priority) string {
	if strings.TrimSpace(string(p)) == "" {
		return "-"
	}
	return strings.ToUpper(string(p))
}

// ToggleLabel returns the label of the toggle control for a task.
func ToggleLabel(task service.Task) string {
	if task.Completed {
		return UndoLabel
	}
	return CompleteLabel
}

// FormatTime renders a timestamp for display.
// Zone-less values keep their wall clock; unparseable values are shown as received; missing ones as "-".
func FormatTime(ts service.Timestamp, opts Options) string {
	if ts.Time.IsZero() {
		if ts.Raw == "" {
			return "-"
		}
		return ts.Raw
	}
	if ts.Wall {
		return ts.Time.Format(TimeLayout)
	}
	return ts.Time.In(opts.location()).Format(TimeLayout)
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = normalizeText(title)
	if title == "" {
		return "(untitled)"
	}
	return title
}

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
