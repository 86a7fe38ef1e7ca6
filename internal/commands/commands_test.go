package commands_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"tasktracker/internal/commands"
	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/service"
	"tasktracker/internal/testutil"
)

const uid = "user-1"

// fixture bundles the fakes a command runs against.
type fixture struct {
	store    *testutil.FakeStore
	sessions *testutil.FakeSessions
}

func newFixture(tasks ...service.Task) *fixture {
	f := &fixture{
		store:    testutil.NewFakeStore(),
		sessions: testutil.SignedIn(uid),
	}
	for _, t := range tasks {
		f.store.AddTask(uid, t)
	}
	return f
}

func (f *fixture) backend() *service.Backend {
	if f == nil {
		return nil
	}
	return &service.Backend{Store: f.store, Sessions: f.sessions}
}

// sampleTasks is the list most tests start from.
func sampleTasks() []service.Task {
	return []service.Task{
		{ID: "a", Task: "Write report", Priority: service.PriorityHigh, Status: service.StatusPending},
		{ID: "b", Task: "Ship it", Priority: service.PriorityMedium, Status: service.StatusCompleted},
		{ID: "c", Task: "Call mom", Priority: service.PriorityLow},
	}
}

// runCommand is a helper to run a command against the fixture's fakes.
func runCommand(t *testing.T, cmd commands.Command, f *fixture, args []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer

	cfg := &config.Config{
		Dir:   t.TempDir(),
		Quiet: quiet,
		Settings: config.Settings{
			ResyncAttempts: 2,
			ResyncBackoff:  time.Millisecond,
		},
	}

	ctx := context.Background()
	code = cmd.Run(ctx, cfg, f.backend(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func expectCode(t *testing.T, want, got int) {
	t.Helper()
	if got != want {
		t.Errorf("expected exit code %d, got %d", want, got)
	}
}

// Tests for version command
func TestVersionCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.VersionCmd{}, nil, nil, false)

	expectCode(t, exitcode.Success, code)
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "tasktracker 0.1.0\n" {
		t.Errorf("expected version output, got %q", stdout)
	}
}

// Tests for help command
func TestHelpCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.HelpCmd{}, nil, nil, false)

	expectCode(t, exitcode.Success, code)
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	for _, want := range []string{
		"tasktracker done <ref>",
		"  done     Mark a task completed (also: complete)",
		"  version  Print version",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected help to contain %q, got:\n%s", want, stdout)
		}
	}
}

// Tests for list command
func TestListCommand_All(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, newFixture(sampleTasks()...), nil, false)

	expectCode(t, exitcode.Success, code)
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	testutil.Golden(t, "list_all", stdout)
}

func TestListCommand_FilterKeepsAllViewNumbers(t *testing.T) {
	cmd := &commands.ListCmd{}
	cmd.SetFilter("pending")

	stdout, _, code := runCommand(t, cmd, newFixture(sampleTasks()...), nil, false)

	expectCode(t, exitcode.Success, code)
	testutil.Golden(t, "list_pending", stdout)
}

func TestListCommand_FilterCompleted(t *testing.T) {
	cmd := &commands.ListCmd{}
	cmd.SetFilter("completed")

	stdout, _, code := runCommand(t, cmd, newFixture(sampleTasks()...), nil, false)

	expectCode(t, exitcode.Success, code)
	want := "   2  completed  Medium  Ship it\n"
	if stdout != want {
		t.Errorf("expected %q, got %q", want, stdout)
	}
}

func TestListCommand_Empty(t *testing.T) {
	stdout, _, code := runCommand(t, &commands.ListCmd{}, newFixture(), nil, false)

	expectCode(t, exitcode.Success, code)
	if stdout != "No tasks available\n" {
		t.Errorf("expected empty message, got %q", stdout)
	}
}

func TestListCommand_EmptyQuiet(t *testing.T) {
	stdout, _, code := runCommand(t, &commands.ListCmd{}, newFixture(), nil, true)

	expectCode(t, exitcode.Success, code)
	if stdout != "" {
		t.Errorf("expected no output in quiet mode, got %q", stdout)
	}
}

func TestListCommand_EmptyFilteredView(t *testing.T) {
	cmd := &commands.ListCmd{}
	cmd.SetFilter("completed")

	stdout, _, _ := runCommand(t, cmd, newFixture(sampleTasks()[0]), nil, false)

	if stdout != "No tasks available\n" {
		t.Errorf("expected empty message, got %q", stdout)
	}
}

func TestListCommand_InvalidFilter(t *testing.T) {
	cmd := &commands.ListCmd{}
	cmd.SetFilter("someday")

	_, stderr, code := runCommand(t, cmd, newFixture(), nil, false)

	expectCode(t, exitcode.UserError, code)
	if stderr != "error: invalid filter: someday\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestListCommand_NotSignedIn(t *testing.T) {
	f := newFixture(sampleTasks()...)
	f.sessions = testutil.NewFakeSessions()

	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, f, nil, false)

	expectCode(t, exitcode.AuthError, code)
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if stderr != "error: not signed in (run: tasktracker login)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if f.store.Count(testutil.OpList) != 0 {
		t.Error("store must not be read without a session")
	}
}

func TestListCommand_BackendError(t *testing.T) {
	f := newFixture(sampleTasks()...)
	f.store.ListErr = errors.New("connection refused")

	_, stderr, code := runCommand(t, &commands.ListCmd{}, f, nil, false)

	expectCode(t, exitcode.BackendError, code)
	if stderr != "error: list: connection refused\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestListCommand_ExpiredCredentials(t *testing.T) {
	f := newFixture(sampleTasks()...)
	f.store.ListErr = &service.AuthError{Reason: "token expired or revoked (run: tasktracker login)"}

	_, _, code := runCommand(t, &commands.ListCmd{}, f, nil, false)

	expectCode(t, exitcode.AuthError, code)
}

// Tests for add command
func TestAddCommand_Success(t *testing.T) {
	f := newFixture(sampleTasks()...)
	cmd := &commands.AddCmd{}
	cmd.SetPriority("High")

	stdout, stderr, code := runCommand(t, cmd, f, []string{"Buy", "milk"}, false)

	expectCode(t, exitcode.Success, code)
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "Task added successfully!\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}

	stored := f.store.Tasks(uid)
	last := stored[len(stored)-1]
	if last.Task != "Buy milk" || last.Priority != service.PriorityHigh || last.Status != service.StatusPending {
		t.Errorf("unexpected stored task %+v", last)
	}
}

func TestAddCommand_Quiet(t *testing.T) {
	cmd := &commands.AddCmd{}
	cmd.SetPriority("low")

	stdout, _, code := runCommand(t, cmd, newFixture(), []string{"Buy milk"}, true)

	expectCode(t, exitcode.Success, code)
	if stdout != "" {
		t.Errorf("expected no output in quiet mode, got %q", stdout)
	}
}

func TestAddCommand_IncompleteDetails(t *testing.T) {
	tests := []struct {
		name     string
		priority string
		args     []string
	}{
		{"no label", "high", nil},
		{"blank label", "high", []string{"   "}},
		{"no priority", "", []string{"Buy milk"}},
		{"bad priority", "urgent", []string{"Buy milk"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			cmd := &commands.AddCmd{}
			cmd.SetPriority(tt.priority)

			_, stderr, code := runCommand(t, cmd, f, tt.args, false)

			expectCode(t, exitcode.UserError, code)
			if stderr != "error: Enter all details correctly!\n" {
				t.Errorf("unexpected stderr %q", stderr)
			}
			if f.store.Count(testutil.OpInsert) != 0 {
				t.Error("invalid draft must not reach the store")
			}
		})
	}
}

func TestAddCommand_Duplicate(t *testing.T) {
	f := newFixture(sampleTasks()...)
	cmd := &commands.AddCmd{}
	cmd.SetPriority("low")

	_, stderr, code := runCommand(t, cmd, f, []string{"  write REPORT "}, false)

	expectCode(t, exitcode.UserError, code)
	if stderr != "error: This task already exists!\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if f.store.Count(testutil.OpInsert) != 0 {
		t.Error("duplicate must not reach the store")
	}
}

func TestAddCommand_InsertFails(t *testing.T) {
	f := newFixture()
	f.store.InsertErr = errors.New("unavailable")
	cmd := &commands.AddCmd{}
	cmd.SetPriority("low")

	_, stderr, code := runCommand(t, cmd, f, []string{"Buy milk"}, false)

	expectCode(t, exitcode.BackendError, code)
	if stderr != "error: insert: unavailable\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestCreateCommand_IsAdd(t *testing.T) {
	f := newFixture()
	cmd := &commands.CreateCmd{}

	_, _, code := runCommand(t, cmd, f, []string{"Buy milk"}, false)

	// No priority: rejected like add.
	expectCode(t, exitcode.UserError, code)
}

// Tests for done command
func TestDoneCommand_Success(t *testing.T) {
	f := newFixture(sampleTasks()...)

	stdout, stderr, code := runCommand(t, &commands.DoneCmd{}, f, []string{"3"}, false)

	expectCode(t, exitcode.Success, code)
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "Task marked as completed!\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if got := f.store.Tasks(uid)[2]; got.Status != service.StatusCompleted {
		t.Errorf("expected task c completed, got %+v", got)
	}
}

func TestDoneCommand_ByID(t *testing.T) {
	f := newFixture(sampleTasks()...)

	_, _, code := runCommand(t, &commands.DoneCmd{}, f, []string{"a"}, false)

	expectCode(t, exitcode.Success, code)
	if got := f.store.Tasks(uid)[0]; got.Status != service.StatusCompleted {
		t.Errorf("expected task a completed, got %+v", got)
	}
}

func TestDoneCommand_AlreadyCompleted(t *testing.T) {
	f := newFixture(sampleTasks()...)

	stdout, stderr, code := runCommand(t, &commands.DoneCmd{}, f, []string{"2"}, false)

	expectCode(t, exitcode.Success, code)
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "Task already completed!\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if f.store.Count(testutil.OpPatch) != 0 {
		t.Error("already completed task must not be patched")
	}
}

func TestDoneCommand_NoRef(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.DoneCmd{}, newFixture(), nil, false)

	expectCode(t, exitcode.UserError, code)
	if stderr != "error: task reference required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDoneCommand_OutOfRange(t *testing.T) {
	f := newFixture(sampleTasks()...)

	_, stderr, code := runCommand(t, &commands.DoneCmd{}, f, []string{"5"}, false)

	expectCode(t, exitcode.UserError, code)
	if stderr != "error: task number out of range: 5\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDoneCommand_UnknownID(t *testing.T) {
	f := newFixture(sampleTasks()...)

	_, stderr, code := runCommand(t, &commands.DoneCmd{}, f, []string{"zzz"}, false)

	expectCode(t, exitcode.UserError, code)
	if stderr != "error: Task not found!\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for rm command
func TestRmCommand_Success(t *testing.T) {
	f := newFixture(sampleTasks()...)

	stdout, _, code := runCommand(t, &commands.RmCmd{}, f, []string{"1"}, false)

	expectCode(t, exitcode.Success, code)
	if stdout != "Task deleted successfully!\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if n := len(f.store.Tasks(uid)); n != 2 {
		t.Errorf("expected 2 tasks left, got %d", n)
	}
}

func TestRmCommand_NoRef(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.RmCmd{}, newFixture(), nil, false)

	expectCode(t, exitcode.UserError, code)
	if stderr != "error: task reference required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestRmCommand_UnknownID(t *testing.T) {
	f := newFixture(sampleTasks()...)

	stdout, stderr, code := runCommand(t, &commands.RmCmd{}, f, []string{"ghost"}, false)

	expectCode(t, exitcode.UserError, code)
	if stdout != "" {
		t.Errorf("expected no success notice, got %q", stdout)
	}
	if stderr != "error: Task not found!\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if n := len(f.store.Tasks(uid)); n != 3 {
		t.Errorf("expected all 3 tasks kept, got %d", n)
	}
}

func TestRmCommand_StaleAfterDelete(t *testing.T) {
	f := newFixture(sampleTasks()...)

	// An id needs no initial load, so the only list is the refresh after the delete.
	cmd := &commands.RmCmd{}
	stdout, stderr, code := runCommand(t, &staleAfterFirstList{Command: cmd, store: f.store}, f, []string{"a"}, false)

	expectCode(t, exitcode.Success, code)
	if stdout != "Task deleted successfully!\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if stderr != "error: Task list may be out of date, list again to refresh.\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// staleAfterFirstList makes every List fail once the command starts.
type staleAfterFirstList struct {
	commands.Command
	store *testutil.FakeStore
}

func (s *staleAfterFirstList) Run(ctx context.Context, cfg *config.Config, be *service.Backend, args []string, out, errOut io.Writer) int {
	s.store.ListErr = errors.New("offline")
	return s.Command.Run(ctx, cfg, be, args, out, errOut)
}

// Tests for edit command
func TestEditCommand_ChangesPriorityOnly(t *testing.T) {
	f := newFixture(sampleTasks()...)
	cmd := &commands.EditCmd{}
	cmd.SetFields("", "low")

	stdout, stderr, code := runCommand(t, cmd, f, []string{"1"}, false)

	expectCode(t, exitcode.Success, code)
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "Task updated successfully!\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	got := f.store.Tasks(uid)[0]
	if got.Task != "Write report" || got.Priority != service.PriorityLow {
		t.Errorf("unexpected task after edit %+v", got)
	}
}

func TestEditCommand_CompletedTask(t *testing.T) {
	f := newFixture(sampleTasks()...)
	cmd := &commands.EditCmd{}
	cmd.SetFields("Ship it twice", "")

	_, stderr, code := runCommand(t, cmd, f, []string{"2"}, false)

	expectCode(t, exitcode.UserError, code)
	if stderr != "error: Completed tasks cannot be edited!\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if f.store.Count(testutil.OpPatch) != 0 {
		t.Error("completed task must not be patched")
	}
}

func TestEditCommand_BlankLabel(t *testing.T) {
	f := newFixture(sampleTasks()...)
	cmd := &commands.EditCmd{}
	cmd.SetFields("   ", "")

	_, stderr, code := runCommand(t, cmd, f, []string{"1"}, false)

	expectCode(t, exitcode.UserError, code)
	if stderr != "error: Enter all details correctly!\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for whoami command
func TestWhoamiCommand(t *testing.T) {
	stdout, _, code := runCommand(t, &commands.WhoamiCmd{}, newFixture(), nil, false)

	expectCode(t, exitcode.Success, code)
	want := "user-1@example.com (password)\nuid: user-1\n"
	if stdout != want {
		t.Errorf("expected %q, got %q", want, stdout)
	}
}
