package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `taskboard` (no args) and `taskboard list [filters]`.
type ListCmd struct {
	filter service.Filter
}

// SetFilter sets the filter (for testing).
func (c *ListCmd) SetFilter(f service.Filter) {
	c.filter = f
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string {
	return "taskboard list [--status <all|pending|completed>] [--priority <all|low|medium|high>] [--search <text>]"
}
func (c *ListCmd) NeedsService() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	registerFilterFlags(fs, &c.filter)
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if err := validateFilter(c.filter); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	view := &textView{}
	b := newBoard(cfg, svc, c.filter, view, errOut)
	if err := b.LoadTasks(ctx); err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	view.flush(out)
	return exitcode.Success
}
