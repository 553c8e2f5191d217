// Package httpapi serves a goGate.Engine over JSON/HTTP.
//
// Visitor routes drive one session through the checkpoint flow. Admin routes
// sit behind [middleware.RequireAdmin] and replace the gate configuration
// wholesale. Engine errors are translated to status codes in one place
// ([statusFor]); every error body has the shape
//
//	{"error": "<code>", "message": "<text>"}
//
// # What this package must NOT do
//
//   - Hold flow state. Sessions live in the Engine.
//   - Decide checkpoint outcomes. It only forwards the client's reports.
package httpapi
