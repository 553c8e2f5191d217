// Package flows sequences checkpoints for one user session and issues the key
// once the last checkpoint is verified.
//
// A [Controller] owns at most one live checkpoint run at a time. It reads the
// configuration through [Deps.Config] on every Start, so admin edits apply to
// the next pass through the flow and never to a pass already in progress.
//
// # Architecture boundaries
//
// Controllers do not log, audit or count anything themselves. Every
// transition is reported through [Hooks.OnEvent]; the Engine turns those
// events into audit records, metrics and log lines.
//
// # What this package must NOT do
//
//   - Import goGate (to avoid import cycles).
//   - Persist session state; a Controller lives in process memory only.
package flows
