// Package logging builds the slog loggers used across serfdom and provides
// the standardized attribute helpers and context plumbing that keep log
// fields consistent between the daemon, the workflow engine, and the agents.
package logging
