package commands

import (
	"bufio"
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"

	"taskboard/internal/board"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/output"
	"taskboard/internal/service"
)

// textView buffers the rendered list so commands can print their own
// status line before it.
type textView struct {
	buf  bytes.Buffer
	opts output.Options
}

func (v *textView) ShowTasks(tasks []service.Task) {
	v.buf.Reset()
	output.FormatTasks(&v.buf, tasks, v.opts)
}

func (v *textView) flush(w io.Writer) {
	_, _ = v.buf.WriteTo(w)
}

// newBoard wires a Board for a one-shot command with a fixed filter.
func newBoard(cfg *config.Config, svc service.Service, filter service.Filter, view board.View, errOut io.Writer, opts ...board.Option) *board.Board {
	opts = append([]board.Option{board.WithLogger(debugLogger(cfg, errOut))}, opts...)
	return board.New(svc, board.FilterFunc(func() service.Filter { return filter }), view, opts...)
}

// debugLogger returns the diagnostic log: stderr with --debug, discarded otherwise.
func debugLogger(cfg *config.Config, errOut io.Writer) *log.Logger {
	if cfg.Debug {
		return log.New(errOut, "taskboard: ", log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}

func registerFilterFlags(fs *flag.FlagSet, f *service.Filter) {
	fs.StringVar(&f.Status, "status", service.StatusAll, "")
	fs.StringVar(&f.Priority, "priority", service.PriorityAll, "")
	fs.StringVar(&f.Search, "search", "", "")
	fs.StringVar(&f.Search, "s", "", "")
}

// backendFailure prints err and returns the matching exit code.
func backendFailure(errOut io.Writer, id int64, err error) int {
	if errors.Is(err, service.ErrNotFound) {
		fmt.Fprintf(errOut, "error: task not found: %d\n", id)
		return exitcode.UserError
	}
	fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	return exitcode.BackendError
}

// promptConfirmer asks on out and reads the answer from in.
// Anything but y/yes declines, including end of input.
type promptConfirmer struct {
	in  io.Reader
	out io.Writer
}

func (p promptConfirmer) Confirm(prompt string) bool {
	if p.in == nil {
		return false
	}
	fmt.Fprintf(p.out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(p.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// validateFilter rejects status and priority values the API does not know.
func validateFilter(f service.Filter) error {
	if f.Status != "" && !contains(service.Statuses, f.Status) {
		return fmt.Errorf("invalid status: %s", f.Status)
	}
	if f.Priority != "" && f.Priority != service.PriorityAll {
		for _, p := range service.Priorities {
			if string(p) == f.Priority {
				return nil
			}
		}
		return fmt.Errorf("invalid priority: %s", f.Priority)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// refreshWarning reports a failed reload after an applied change.
// It returns false for any other error.
func refreshWarning(errOut io.Writer, err error) bool {
	if !errors.Is(err, board.ErrRefresh) {
		return false
	}
	fmt.Fprintf(errOut, "warning: %v\n", err)
	return true
}
