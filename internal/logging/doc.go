// Package logging provides concrete implementations of the recorder.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: prefixed lines on stderr (or any io.Writer)
//   - MemoryLogger: keeps every line in memory for assertions in tests
//   - NullLogger: discards all messages
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
