// Package rate provides the Redis-backed fixed-window limiter that guards
// admin login attempts.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key layout:
//   - <prefix>al:<ip>  admin login failures per client IP
//
// # What this package must NOT do
//
//   - Decide what counts as a failure; the Engine increments explicitly.
//   - Be imported outside the goGate module.
package rate
