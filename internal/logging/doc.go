// Package logging provides concrete implementations of the dwh.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: writes progress to stdout and errors to stderr, with
//     coloured markers when the stream is a terminal
//   - NullLogger: discards all messages (useful for testing)
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
