// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates bad input: invalid or duplicate task, unknown
	// reference, bad flags.
	UserError = 1

	// AuthError indicates a missing session, rejected credentials or an
	// unconfigured backend.
	AuthError = 2

	// BackendError indicates a store, network or local file error.
	BackendError = 3
)
