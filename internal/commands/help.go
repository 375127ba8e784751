package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "taskboard help" }
func (c *HelpCmd) NeedsService() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	writeHelp(out, DefaultRegistry)
	return exitcode.Success
}

// writeHelp prints the usage of every command in r followed by the shared flags.
func writeHelp(w io.Writer, r *Registry) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  taskboard                    List all tasks")
	for _, cmd := range r.All() {
		fmt.Fprintf(w, "  %s\n", cmd.Usage())
		synopsis := cmd.Synopsis()
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			synopsis += " (alias: " + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintf(w, "      %s\n", synopsis)
	}
	fmt.Fprint(w, flagsHelp)
}

const flagsHelp = `
Filters:
  --status <all|pending|completed>
  --priority <all|low|medium|high>
  --search, -s <text>

Common flags:
  --config <dir>   Override config directory
  --api <url>      Task API address (default http://localhost:5001)
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
