package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskboard/internal/board"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
	priority    string
	deadline    string
}

// SetFields sets the non-title form fields (for testing).
func (c *AddCmd) SetFields(description, priority, deadline string) {
	c.description = description
	c.priority = priority
	c.deadline = deadline
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "taskboard add [--description <text>] [--priority <low|medium|high>] [--deadline <YYYY-MM-DDTHH:MM>] <title...>"
}
func (c *AddCmd) NeedsService() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.description, "description", "", "")
	fs.StringVar(&c.description, "d", "", "")
	fs.StringVar(&c.priority, "priority", string(service.PriorityMedium), "")
	fs.StringVar(&c.priority, "p", string(service.PriorityMedium), "")
	fs.StringVar(&c.deadline, "deadline", "", "")
}

// argsForm is the add form filled from command-line arguments.
type argsForm struct {
	fields board.FormFields
}

func (f *argsForm) Fields() board.FormFields { return f.fields }
func (f *argsForm) Reset()                   { f.fields = board.FormFields{} }

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	priority := c.priority
	if priority == "" {
		priority = string(service.PriorityMedium)
	}
	form := &argsForm{fields: board.FormFields{
		Title:       strings.Join(args, " "),
		Description: c.description,
		Priority:    priority,
		Deadline:    c.deadline,
	}}

	view := &textView{}
	b := newBoard(cfg, svc, service.Filter{}, view, errOut)
	created, err := b.AddTask(ctx, form)
	if err != nil && !refreshWarning(errOut, err) {
		if errors.Is(err, board.ErrTitleRequired) {
			fmt.Fprintln(errOut, "error: title required")
			return exitcode.UserError
		}
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		if created.ID != 0 {
			fmt.Fprintf(out, "ok: created task %d\n", created.ID)
		} else {
			fmt.Fprintln(out, "ok")
		}
		view.flush(out)
	}
	return exitcode.Success
}
