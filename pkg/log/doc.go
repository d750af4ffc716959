// Package log provides structured logging for the SBD agent using zerolog.
//
// A single global Logger is configured once via Init. Component-specific
// child loggers (WithComponent, WithDevice, WithNode) attach context fields
// so that, e.g., every line a servant emits for a given device is tagged
// with it — useful once several servant processes are writing to the same
// journal concurrently.
package log
