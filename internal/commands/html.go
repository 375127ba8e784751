package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/output"
	"taskboard/internal/service"
)

func init() {
	Register(&HTMLCmd{})
}

// HTMLCmd implements the html command.
type HTMLCmd struct {
	filter service.Filter
	out    string
}

// SetFilter sets the filter (for testing).
func (c *HTMLCmd) SetFilter(f service.Filter) {
	c.filter = f
}

// SetOut sets the output file (for testing).
func (c *HTMLCmd) SetOut(path string) {
	c.out = path
}

func (c *HTMLCmd) Name() string      { return "html" }
func (c *HTMLCmd) Aliases() []string { return nil }
func (c *HTMLCmd) Synopsis() string  { return "Write the task page as HTML" }
func (c *HTMLCmd) Usage() string {
	return "taskboard html [--out <file>] [--status <s>] [--priority <p>] [--search <text>]"
}
func (c *HTMLCmd) NeedsService() bool { return true }

func (c *HTMLCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.out, "out", "", "")
	fs.StringVar(&c.out, "o", "", "")
	registerFilterFlags(fs, &c.filter)
}

// pageView keeps the last list the board displayed.
type pageView struct {
	tasks []service.Task
}

func (v *pageView) ShowTasks(tasks []service.Task) { v.tasks = tasks }

func (c *HTMLCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if err := validateFilter(c.filter); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	view := &pageView{}
	b := newBoard(cfg, svc, c.filter, view, errOut)
	if err := b.LoadTasks(ctx); err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	if c.out == "" {
		if err := output.RenderPage(out, view.tasks, c.filter, output.Options{}); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		return exitcode.Success
	}

	f, err := os.Create(c.out)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if err := output.RenderPage(f, view.tasks, c.filter, output.Options{}); err != nil {
		f.Close()
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "ok: wrote %s\n", c.out)
	}
	return exitcode.Success
}
