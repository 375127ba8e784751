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
	Register(&ToggleCmd{})
}

// ToggleCmd implements the toggle command.
type ToggleCmd struct{}

func (c *ToggleCmd) Name() string       { return "toggle" }
func (c *ToggleCmd) Aliases() []string  { return []string{"done"} }
func (c *ToggleCmd) Synopsis() string   { return "Mark a task completed, or pending again" }
func (c *ToggleCmd) Usage() string      { return "taskboard toggle <id>" }
func (c *ToggleCmd) NeedsService() bool { return true }

func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ToggleCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	view := &textView{}
	b := newBoard(cfg, svc, service.Filter{}, view, errOut)
	if err := b.ToggleTask(ctx, id); err != nil && !refreshWarning(errOut, err) {
		return backendFailure(errOut, id, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
		view.flush(out)
	}
	return exitcode.Success
}
