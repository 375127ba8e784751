// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion, including a declined delete.
	Success = 0

	// UserError indicates a user error (bad args, unknown command, task not found).
	UserError = 1

	// ConfigError indicates an invalid configuration (bad API address, bad env file).
	ConfigError = 2

	// BackendError indicates an API, network or response decoding error.
	BackendError = 3
)
