package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"taskboard/internal/board"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct {
	yes bool
}

// SetYes skips the confirmation prompt (for testing).
func (c *RmCmd) SetYes(yes bool) {
	c.yes = yes
}

func (c *RmCmd) Name() string       { return "rm" }
func (c *RmCmd) Aliases() []string  { return []string{"delete"} }
func (c *RmCmd) Synopsis() string   { return "Delete a task" }
func (c *RmCmd) Usage() string      { return "taskboard rm [--yes] <id>" }
func (c *RmCmd) NeedsService() bool { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	var confirm board.Confirmer = promptConfirmer{in: cfg.In, out: out}
	if c.yes {
		confirm = board.ConfirmFunc(func(string) bool { return true })
	}

	view := &textView{}
	b := newBoard(cfg, svc, service.Filter{}, view, errOut, board.WithConfirmer(confirm))
	if err := b.DeleteTask(ctx, id); err != nil && !refreshWarning(errOut, err) {
		if errors.Is(err, board.ErrDeclined) {
			if !cfg.Quiet {
				fmt.Fprintln(out, "cancelled")
			}
			return exitcode.Success
		}
		return backendFailure(errOut, id, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
		view.flush(out)
	}
	return exitcode.Success
}
