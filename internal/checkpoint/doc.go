// Package checkpoint implements the lifecycle of a single verification step:
// open the link, wait out the countdown, verify.
//
// # Architecture boundaries
//
// A [Run] owns exactly one countdown and one foreground observer. Both are
// released on every exit path (verify, rejection, [Run.Discard]); callbacks
// that arrive afterwards find the run released or the cycle advanced and do
// nothing.
//
// The foreground-loss signal is client reported. It is a weak heuristic for
// "the user visited the link" and nothing stronger.
//
// # What this package must NOT do
//
//   - Sequence checkpoints or issue keys (see internal/flows).
//   - Read configuration stores; a Run receives an immutable spec.
package checkpoint
