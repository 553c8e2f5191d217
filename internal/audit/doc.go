// Package audit implements async event dispatching for gate and admin
// operations.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, slog, fan-out, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full or block-if-full semantics.
//   - [Event]: structured audit record with timestamp, type, session, actor, IP, metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which
// events to emit; the Engine does.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import goGate or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
