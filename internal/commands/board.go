package commands

import (
	"context"
	"errors"
	"io"

	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/output"
	"tasktracker/internal/service"
	"tasktracker/internal/tasks"
)

// NotSignedIn is the message for task commands run without a session.
const NotSignedIn = "not signed in (run: tasktracker login)"

// openBoard builds a board for the current session. On failure the error is
// already printed and the exit code is returned.
func openBoard(ctx context.Context, cfg *config.Config, be *service.Backend, p *output.Printer) (*tasks.Board, int) {
	sess, err := be.Sessions.CurrentSession(ctx)
	if err != nil {
		p.Error(err.Error())
		return nil, exitFor(err)
	}
	if sess == nil {
		p.Error(NotSignedIn)
		return nil, exitcode.AuthError
	}
	cache := tasks.NewCache(be.Store, *sess, tasks.Options{
		Logger:         cfg.Log(),
		ResyncAttempts: cfg.Settings.ResyncAttempts,
		ResyncBackoff:  cfg.Settings.ResyncBackoff,
	})
	return tasks.NewBoard(cache, p), exitcode.Success
}

// resolveRef loads the list when ref is a position and returns the task id.
// Errors are printed through the board's notifier or p.
func resolveRef(ctx context.Context, board *tasks.Board, p *output.Printer, ref TaskRef) (string, int) {
	if ref.ID == "" {
		if err := board.Load(ctx); err != nil {
			return "", exitFor(err)
		}
	}
	id, err := ref.Resolve(board.All())
	if err != nil {
		p.Error(err.Error())
		return "", exitcode.UserError
	}
	return id, exitcode.Success
}

// parseRef parses args as a task reference, printing usage errors.
func parseRef(args []string, p *output.Printer) (TaskRef, int) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		p.Error(err.Error())
		return TaskRef{}, exitcode.UserError
	}
	return ref, exitcode.Success
}

// exitFor maps an error from the task layer or a backend to an exit code.
// A stale list after a successful write is not a failure.
func exitFor(err error) int {
	switch {
	case err == nil, errors.Is(err, tasks.ErrStale):
		return exitcode.Success
	case errors.Is(err, tasks.ErrValidation),
		errors.Is(err, tasks.ErrDuplicate),
		errors.Is(err, tasks.ErrTaskCompleted),
		errors.Is(err, service.ErrNotFound),
		errors.Is(err, ErrTaskRefRange),
		errors.Is(err, ErrInvalidTaskRef):
		return exitcode.UserError
	case service.IsAuth(err),
		errors.Is(err, tasks.ErrNoSession),
		errors.Is(err, tasks.ErrClosed),
		errors.Is(err, config.ErrNotConfigured):
		return exitcode.AuthError
	default:
		return exitcode.BackendError
	}
}

// newPrinter creates the printer for a command run.
func newPrinter(cfg *config.Config, out, errOut io.Writer) *output.Printer {
	return output.NewPrinter(out, errOut, cfg.Quiet)
}
