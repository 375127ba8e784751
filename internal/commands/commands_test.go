package commands_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taskboard/internal/commands"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/output"
	"taskboard/internal/service"
	"taskboard/internal/testutil"
)

// runCommand is a helper to run a command with FakeService.
func runCommand(t *testing.T, cmd commands.Command, svc *testutil.FakeService, args []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()
	return runCommandWithInput(t, cmd, svc, args, quiet, "")
}

// runCommandWithInput is runCommand with answers for interactive prompts.
func runCommandWithInput(t *testing.T, cmd commands.Command, svc *testutil.FakeService, args []string, quiet bool, input string) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer

	cfg := &config.Config{
		Dir:   t.TempDir(),
		Quiet: quiet,
		In:    strings.NewReader(input),
	}

	var s service.Service
	if svc != nil {
		s = svc
	}

	ctx := context.Background()
	code = cmd.Run(ctx, cfg, s, args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

// Tests for version command
func TestVersionCommand(t *testing.T) {
	cmd := &commands.VersionCmd{}

	stdout, stderr, code := runCommand(t, cmd, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "taskboard 0.1.0\n" {
		t.Errorf("expected version output, got %q", stdout)
	}
}

// Tests for help command
func TestHelpCommand(t *testing.T) {
	cmd := &commands.HelpCmd{}

	stdout, stderr, code := runCommand(t, cmd, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("help output should contain 'Usage:'")
	}
	if !strings.Contains(stdout, "--api <url>") {
		t.Error("help output should document --api")
	}
}

// Tests for list command
func TestListCommand_WithTasks(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", service.PriorityLow, false)
	svc.AddTask("Buy eggs", service.PriorityHigh, true)

	cmd := &commands.ListCmd{}
	stdout, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "   1  [ ] Buy milk  LOW\n") {
		t.Errorf("expected first task line, got %q", stdout)
	}
	if !strings.Contains(stdout, "   2  [x] Buy eggs  HIGH\n") {
		t.Errorf("expected second task line, got %q", stdout)
	}
}

func TestListCommand_Empty(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.ListCmd{}
	stdout, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}

	expected := output.EmptyTitle + "\n" + output.EmptyHint + "\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestListCommand_FilterPassedToService(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", service.PriorityLow, false)
	svc.AddTask("Write report", service.PriorityHigh, false)

	cmd := &commands.ListCmd{}
	filter := service.Filter{Status: service.StatusPending, Priority: "high", Search: "report"}
	cmd.SetFilter(filter)
	stdout, _, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if svc.LastFilter() != filter {
		t.Errorf("expected filter %+v, got %+v", filter, svc.LastFilter())
	}
	if strings.Contains(stdout, "Buy milk") {
		t.Errorf("filtered task should not be listed: %q", stdout)
	}
	if !strings.Contains(stdout, "Write report") {
		t.Errorf("expected matching task, got %q", stdout)
	}
}

func TestListCommand_InvalidStatus(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.ListCmd{}
	cmd.SetFilter(service.Filter{Status: "done"})
	_, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: invalid status: done\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
	if svc.Calls() != 0 {
		t.Errorf("expected no backend calls, got %d", svc.Calls())
	}
}

func TestListCommand_InvalidPriority(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.ListCmd{}
	cmd.SetFilter(service.Filter{Priority: "urgent"})
	_, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: invalid priority: urgent\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestListCommand_UnexpectedArgument(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.ListCmd{}
	_, stderr, code := runCommand(t, cmd, svc, []string{"extra"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: unexpected argument: extra\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestListCommand_BackendError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListTasksErr = errors.New("connection refused")

	cmd := &commands.ListCmd{}
	stdout, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if !strings.HasPrefix(stderr, "error: backend error: ") || !strings.Contains(stderr, "connection refused") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

// Tests for add command
func TestAddCommand_Success(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.AddCmd{}
	cmd.SetFields("2 litres", "low", "")
	stdout, stderr, code := runCommand(t, cmd, svc, []string{"Buy", "milk"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.HasPrefix(stdout, "ok: created task 1\n") {
		t.Errorf("expected ok line first, got %q", stdout)
	}
	if !strings.Contains(stdout, "   1  [ ] Buy milk  LOW\n") {
		t.Errorf("expected refreshed list, got %q", stdout)
	}

	if len(svc.Created) != 1 {
		t.Fatalf("expected 1 create request, got %d", len(svc.Created))
	}
	got := svc.Created[0]
	if got.Title != "Buy milk" || got.Description != "2 litres" || got.Priority != service.PriorityLow {
		t.Errorf("unexpected create request: %+v", got)
	}
	if got.Deadline != nil {
		t.Errorf("expected nil deadline, got %q", *got.Deadline)
	}
}

func TestAddCommand_DefaultPriorityAndDeadline(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.AddCmd{}
	cmd.SetFields("", "", "2024-03-01T09:00")
	_, _, code := runCommand(t, cmd, svc, []string{"Pay rent"}, true)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	got := svc.Created[0]
	if got.Priority != service.PriorityMedium {
		t.Errorf("expected medium priority, got %q", got.Priority)
	}
	if got.Deadline == nil || *got.Deadline != "2024-03-01T09:00" {
		t.Errorf("expected deadline to be sent as entered, got %v", got.Deadline)
	}
}

func TestAddCommand_Quiet(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.AddCmd{}
	stdout, stderr, code := runCommand(t, cmd, svc, []string{"Buy milk"}, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" {
		t.Errorf("expected empty stdout in quiet mode, got %q", stdout)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if len(svc.Tasks()) != 1 {
		t.Errorf("expected task to be created")
	}
}

func TestAddCommand_TitleRequired(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.AddCmd{}
	_, stderr, code := runCommand(t, cmd, svc, []string{"   "}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: title required\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
	if svc.Calls() != 0 {
		t.Errorf("expected no backend calls, got %d", svc.Calls())
	}
}

func TestAddCommand_BackendError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.CreateTaskErr = errors.New("request rejected: 400 title is required")

	cmd := &commands.AddCmd{}
	stdout, stderr, code := runCommand(t, cmd, svc, []string{"Buy milk"}, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if !strings.Contains(stderr, "request rejected: 400 title is required") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

// Tests for toggle command
func TestToggleCommand_Success(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", service.PriorityLow, false)

	cmd := &commands.ToggleCmd{}
	stdout, stderr, code := runCommand(t, cmd, svc, []string{"#1"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.HasPrefix(stdout, "ok\n   1  [x] Buy milk  LOW\n") {
		t.Errorf("expected ok and refreshed list, got %q", stdout)
	}
	if !svc.Tasks()[0].Completed {
		t.Error("expected task to be completed")
	}
}

func TestToggleCommand_TwiceRestoresPending(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", service.PriorityLow, false)

	cmd := &commands.ToggleCmd{}
	runCommand(t, cmd, svc, []string{"1"}, true)
	runCommand(t, cmd, svc, []string{"1"}, true)

	if svc.Tasks()[0].Completed {
		t.Error("expected task to be pending after two toggles")
	}
}

func TestToggleCommand_NotFound(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.ToggleCmd{}
	stdout, stderr, code := runCommand(t, cmd, svc, []string{"42"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if stderr != "error: task not found: 42\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestToggleCommand_BackendError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", service.PriorityLow, false)
	svc.ToggleTaskErr = errors.New("server error: 500 Internal Server Error")

	cmd := &commands.ToggleCmd{}
	stdout, stderr, code := runCommand(t, cmd, svc, []string{"1"}, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if strings.Contains(stdout, "ok") {
		t.Errorf("failure must not report ok, got %q", stdout)
	}
	if !strings.Contains(stderr, "server error: 500") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestToggleCommand_MissingID(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.ToggleCmd{}
	_, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task id required\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

// Tests for rm command
func TestRmCommand_Confirmed(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", service.PriorityLow, false)

	cmd := &commands.RmCmd{}
	stdout, stderr, code := runCommandWithInput(t, cmd, svc, []string{"1"}, false, "y\n")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.HasPrefix(stdout, "Are you sure you want to delete this task? [y/N] ok\n") {
		t.Errorf("expected prompt then ok, got %q", stdout)
	}
	if len(svc.Tasks()) != 0 {
		t.Errorf("expected task to be deleted")
	}
}

func TestRmCommand_Declined(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", service.PriorityLow, false)

	cmd := &commands.RmCmd{}
	stdout, _, code := runCommandWithInput(t, cmd, svc, []string{"1"}, false, "n\n")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.HasSuffix(stdout, "cancelled\n") {
		t.Errorf("expected cancelled, got %q", stdout)
	}
	if svc.Calls() != 0 {
		t.Errorf("expected no backend calls, got %d", svc.Calls())
	}
	if len(svc.Tasks()) != 1 {
		t.Errorf("expected task to be kept")
	}
}

func TestRmCommand_EndOfInputDeclines(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", service.PriorityLow, false)

	cmd := &commands.RmCmd{}
	_, _, code := runCommandWithInput(t, cmd, svc, []string{"1"}, true, "")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if len(svc.Tasks()) != 1 {
		t.Errorf("expected task to be kept")
	}
}

func TestRmCommand_Yes(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", service.PriorityLow, false)
	svc.AddTask("Buy eggs", service.PriorityLow, false)

	cmd := &commands.RmCmd{}
	cmd.SetYes(true)
	stdout, _, code := runCommand(t, cmd, svc, []string{"1"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if strings.Contains(stdout, "[y/N]") {
		t.Errorf("expected no prompt with --yes, got %q", stdout)
	}
	if strings.Contains(stdout, "Buy milk") || !strings.Contains(stdout, "Buy eggs") {
		t.Errorf("expected refreshed list without deleted task, got %q", stdout)
	}
}

func TestRmCommand_NotFound(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.RmCmd{}
	cmd.SetYes(true)
	_, stderr, code := runCommand(t, cmd, svc, []string{"7"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task not found: 7\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestRmCommand_BackendError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", service.PriorityLow, false)
	svc.DeleteTaskErr = errors.New("request timed out")

	cmd := &commands.RmCmd{}
	cmd.SetYes(true)
	stdout, stderr, code := runCommand(t, cmd, svc, []string{"1"}, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if strings.Contains(stdout, "ok") {
		t.Errorf("failure must not report ok, got %q", stdout)
	}
	if !strings.Contains(stderr, "request timed out") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

// Tests for html command
func TestHTMLCommand_Stdout(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", service.PriorityLow, false)

	cmd := &commands.HTMLCmd{}
	cmd.SetOut("")
	cmd.SetFilter(service.Filter{})
	stdout, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, `id="tasksList"`) || !strings.Contains(stdout, "Buy milk") {
		t.Errorf("expected page with task card, got %q", stdout)
	}
}

func TestHTMLCommand_File(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", service.PriorityLow, false)
	path := filepath.Join(t.TempDir(), "tasks.html")

	cmd := &commands.HTMLCmd{}
	cmd.SetOut(path)
	cmd.SetFilter(service.Filter{})
	stdout, _, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "ok: wrote "+path+"\n" {
		t.Errorf("unexpected stdout: %q", stdout)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "Buy milk") {
		t.Errorf("expected task in written page")
	}
}

func TestHTMLCommand_BackendError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListTasksErr = errors.New("connection refused")

	cmd := &commands.HTMLCmd{}
	cmd.SetOut("")
	cmd.SetFilter(service.Filter{})
	stdout, _, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stdout != "" {
		t.Errorf("expected no page on failure, got %q", stdout)
	}
}

func TestMutationCommands_RefreshFailureStillSucceeds(t *testing.T) {
	reset := errors.New("connection reset")

	t.Run("toggle", func(t *testing.T) {
		svc := testutil.NewFakeService()
		svc.AddTask("Buy milk", service.PriorityLow, false)
		svc.ListTasksErr = reset

		stdout, stderr, code := runCommand(t, &commands.ToggleCmd{}, svc, []string{"1"}, false)

		if code != exitcode.Success {
			t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
		}
		if stdout != "ok\n" {
			t.Errorf("expected ok, got %q", stdout)
		}
		if !strings.HasPrefix(stderr, "warning: refresh failed: ") || !strings.Contains(stderr, "connection reset") {
			t.Errorf("unexpected stderr: %q", stderr)
		}
		if !svc.Tasks()[0].Completed {
			t.Error("expected task to be completed")
		}
	})

	t.Run("add", func(t *testing.T) {
		svc := testutil.NewFakeService()
		svc.ListTasksErr = reset

		stdout, stderr, code := runCommand(t, &commands.AddCmd{}, svc, []string{"Buy milk"}, false)

		if code != exitcode.Success {
			t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
		}
		if stdout != "ok: created task 1\n" {
			t.Errorf("unexpected stdout: %q", stdout)
		}
		if !strings.HasPrefix(stderr, "warning: refresh failed: ") {
			t.Errorf("unexpected stderr: %q", stderr)
		}
	})

	t.Run("rm", func(t *testing.T) {
		svc := testutil.NewFakeService()
		svc.AddTask("Buy milk", service.PriorityLow, false)
		svc.ListTasksErr = reset

		cmd := &commands.RmCmd{}
		cmd.SetYes(true)
		stdout, stderr, code := runCommand(t, cmd, svc, []string{"1"}, false)

		if code != exitcode.Success {
			t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
		}
		if stdout != "ok\n" {
			t.Errorf("expected ok, got %q", stdout)
		}
		if !strings.HasPrefix(stderr, "warning: refresh failed: ") {
			t.Errorf("unexpected stderr: %q", stderr)
		}
	})
}
