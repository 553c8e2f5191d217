// Package goGate issues a time-limited key to visitors who complete a
// configurable sequence of checkpoints. Each checkpoint asks the visitor to
// open an external link, wait out a countdown and verify; verification only
// succeeds if the visitor's page reported losing foreground after the link
// was opened.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goGate is the public surface. It exposes [Engine], [Builder], [Config], and
// value types ([SessionView], [MetricsSnapshot], etc.). The checkpoint state
// machine, the flow controller, rate limiting and audit dispatch live under
// internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Treat the foreground-loss signal or the issued key as access control.
//     Both are weak, client-controlled gates.
//   - Expose Redis clients, configuration backends, or encoding details in
//     its public API.
//   - Import any sub-package that re-imports goGate (no import cycles).
//
// # Configuration lifecycle
//
// The active gate configuration is loaded once in Build and replaced
// wholesale by [Engine.UpdateConfiguration]. A session reads it when it
// starts a pass and keeps that snapshot until it is reset.
package goGate
