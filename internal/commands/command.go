// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"tasktracker/internal/config"
	"tasktracker/internal/service"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsBackend returns true if the command talks to the identity
	// provider or the task store. help and version return false.
	NeedsBackend() bool

	// NeedsAuth returns true if the command requires a signed-in session.
	// Implies NeedsBackend.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths, settings).
	// be is nil if NeedsBackend() returns false.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, be *service.Backend, args []string, out, errOut io.Writer) int
}
