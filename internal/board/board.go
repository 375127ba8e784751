// Package board implements the task list client: it reads the filter controls,
// fetches the list, hands it to the view, and runs the create, toggle and
// delete actions, each followed by a full re-fetch.
package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"taskboard/internal/service"
)

// DeletePrompt is the question asked before a task is deleted.
const DeletePrompt = "Are you sure you want to delete this task?"

// ErrDeclined is returned by DeleteTask when the confirmation was declined.
var ErrDeclined = errors.New("delete cancelled")

// ErrTitleRequired is returned by AddTask when the title field is blank.
var ErrTitleRequired = errors.New("title required")

// ErrRefresh wraps a failed reload after a successful create, toggle or delete.
// The change itself was applied on the server.
var ErrRefresh = errors.New("refresh failed")

// FilterSource reads the status, priority and search controls.
type FilterSource interface {
	Filter() service.Filter
}

// View is the list container. The board is its only writer.
type View interface {
	ShowTasks(tasks []service.Task)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Form is the add-task form.
type Form interface {
	// Fields returns the current title, description, priority and deadline values.
	Fields() FormFields

	// Reset clears the form after a successful submit.
	Reset()
}

// FormFields holds the raw values of the add-task form.
type FormFields struct {
	Title       string
	Description string
	Priority    string
	Deadline    string
}

// NewTask converts the form values into a create request.
// An empty deadline becomes nil so it is sent as null, never as "".
func (f FormFields) NewTask() service.NewTask {
	input := service.NewTask{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Priority:    service.Priority(strings.TrimSpace(f.Priority)),
	}
	if deadline := strings.TrimSpace(f.Deadline); deadline != "" {
		input.Deadline = &deadline
	}
	return input
}

// FilterFunc adapts a function to FilterSource.
type FilterFunc func() service.Filter

// Filter implements FilterSource.
func (f FilterFunc) Filter() service.Filter { return f() }

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Board is the task list client.
type Board struct {
	svc     service.Service
	filters FilterSource
	view    View
	confirm Confirmer
	log     *log.Logger

	// seq is the token of the most recently issued list request.
	seq atomic.Uint64

	// mu serializes writes to the view.
	mu sync.Mutex
}

// Option configures a Board.
type Option func(*Board)

// WithLogger sets the diagnostic logger. The default discards.
func WithLogger(l *log.Logger) Option {
	return func(b *Board) { b.log = l }
}

// WithConfirmer sets the confirmer used by DeleteTask.
// Without one every delete is declined.
func WithConfirmer(c Confirmer) Option {
	return func(b *Board) { b.confirm = c }
}

// New creates a Board over svc that reads filters and writes to view.
func New(svc service.Service, filters FilterSource, view View, opts ...Option) *Board {
	b := &Board{
		svc:     svc,
		filters: filters,
		view:    view,
		log:     log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// LoadTasks fetches the list for the current filter state and replaces the view.
// On failure the error is logged, the view keeps its previous content, and the
// error is returned. A response that arrives after a newer request was issued
// is discarded.
func (b *Board) LoadTasks(ctx context.Context) error {
	filter := service.Filter{}
	if b.filters != nil {
		filter = b.filters.Filter()
	}
	token := b.seq.Add(1)

	tasks, err := b.svc.ListTasks(ctx, filter)
	if err != nil {
		b.log.Printf("error loading tasks: %v", err)
		return fmt.Errorf("load tasks: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if token != b.seq.Load() {
		b.log.Printf("discarding stale task list (request %d, latest %d)", token, b.seq.Load())
		return nil
	}
	b.display(tasks)
	return nil
}

// Display replaces the view content with tasks.
func (b *Board) Display(tasks []service.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.display(tasks)
}

func (b *Board) display(tasks []service.Task) {
	if b.view == nil {
		return
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	b.view.ShowTasks(tasks)
}

// AddTask submits the form. On success the form is reset and the list reloaded;
// on failure the form keeps its values and the error is returned.
// A reload failure after the task was created wraps ErrRefresh.
// The returned task is the server's copy, or zero if the server sent none.
func (b *Board) AddTask(ctx context.Context, form Form) (service.Task, error) {
	input := form.Fields().NewTask()
	if input.Title == "" {
		return service.Task{}, ErrTitleRequired
	}

	created, err := b.svc.CreateTask(ctx, input)
	if errors.Is(err, service.ErrBadResponse) {
		b.log.Printf("task created, but the response was not understood: %v", err)
		created, err = service.Task{}, nil
	}
	if err != nil {
		b.log.Printf("error adding task: %v", err)
		return service.Task{}, fmt.Errorf("add task: %w", err)
	}

	form.Reset()
	return created, b.refresh(ctx)
}

// ToggleTask flips the completed flag of task id and reloads the list.
// The list is reloaded even when the toggle failed, so the view shows the
// server's state; the toggle error is returned in preference to a reload error,
// and a reload error after a successful toggle wraps ErrRefresh.
func (b *Board) ToggleTask(ctx context.Context, id int64) error {
	if err := b.svc.ToggleTask(ctx, id); err != nil {
		b.log.Printf("error toggling task %d: %v", id, err)
		_ = b.LoadTasks(ctx)
		return fmt.Errorf("toggle task %d: %w", id, err)
	}
	return b.refresh(ctx)
}

// DeleteTask asks for confirmation, then deletes task id and reloads the list.
// A declined confirmation makes no backend call and returns ErrDeclined.
func (b *Board) DeleteTask(ctx context.Context, id int64) error {
	return b.DeleteTaskWith(ctx, id, b.confirm)
}

// DeleteTaskWith is DeleteTask asking confirm instead of the board's confirmer.
func (b *Board) DeleteTaskWith(ctx context.Context, id int64, confirm Confirmer) error {
	if confirm == nil || !confirm.Confirm(DeletePrompt) {
		return ErrDeclined
	}

	if err := b.svc.DeleteTask(ctx, id); err != nil {
		b.log.Printf("error deleting task %d: %v", id, err)
		_ = b.LoadTasks(ctx)
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return b.refresh(ctx)
}

// refresh reloads the list after a successful change.
func (b *Board) refresh(ctx context.Context) error {
	if err := b.LoadTasks(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRefresh, err)
	}
	return nil
}
