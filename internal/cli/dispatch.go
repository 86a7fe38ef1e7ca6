// Package cli parses the command line and dispatches to commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasktracker/internal/commands"
	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/logging"
	"tasktracker/internal/service"
)

// BackendFactory creates the backend from config.
// Used to inject the identity provider and task store during dispatch.
type BackendFactory func(ctx context.Context, cfg *config.Config) (*service.Backend, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  BackendFactory
}

// NewDispatcher creates a new dispatcher with the given registry and backend factory.
func NewDispatcher(registry *commands.Registry, factory BackendFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// Flags require a command
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", describeFlagError(err))
		return exitcode.UserError
	}

	// A leading dash left after parsing means a flag after "--" or a bare "-x"
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug
	cfg.Logger = logging.New(debug, errOut).With("command", cmd.Name())

	var be *service.Backend
	if cmd.NeedsBackend() || cmd.NeedsAuth() {
		if d.factory == nil {
			fmt.Fprintln(errOut, "error: backend unavailable")
			return exitcode.BackendError
		}
		be, err = d.factory(ctx, cfg)
		if err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
			if errors.Is(err, config.ErrNotConfigured) || service.IsAuth(err) {
				return exitcode.AuthError
			}
			return exitcode.BackendError
		}
	}

	// Route gating: task commands need a signed-in session.
	if cmd.NeedsAuth() {
		sess, err := be.Sessions.CurrentSession(ctx)
		if err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return exitcode.AuthError
		}
		if sess == nil {
			fmt.Fprintf(errOut, "error: %s\n", commands.NotSignedIn)
			return exitcode.AuthError
		}
		cfg.Log().Debug("session", "uid", sess.ID, "provider", sess.Provider)
	}

	return cmd.Run(ctx, cfg, be, positionalArgs, out, errOut)
}

// describeFlagError rewrites flag package errors in the CLI's own terms.
func describeFlagError(err error) string {
	errStr := err.Error()

	switch {
	case strings.HasPrefix(errStr, "flag needs an argument:"):
		name := strings.TrimSpace(strings.TrimPrefix(errStr, "flag needs an argument:"))
		return "flag needs an argument: " + name
	case strings.HasPrefix(errStr, "flag provided but not defined:"):
		name := strings.TrimSpace(strings.TrimPrefix(errStr, "flag provided but not defined:"))
		return "unknown flag: " + name
	default:
		return errStr
	}
}
