package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
	"taskboard/internal/tui"
)

func init() {
	Register(&UICmd{})
}

// UICmd implements the ui command.
type UICmd struct{}

func (c *UICmd) Name() string       { return "ui" }
func (c *UICmd) Aliases() []string  { return nil }
func (c *UICmd) Synopsis() string   { return "Open the interactive task page" }
func (c *UICmd) Usage() string      { return "taskboard ui" }
func (c *UICmd) NeedsService() bool { return true }

func (c *UICmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UICmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if err := tui.Run(ctx, cfg, svc); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}
