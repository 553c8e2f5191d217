// Package middleware exposes HTTP middleware that connects requests to a
// goGate.Engine.
//
// # Middleware
//
//   - [ClientInfo] copies the caller's IP and User-Agent into the request
//     context so admin login limiting and audit records can see them.
//   - [RequireAdmin] rejects requests without a valid admin bearer token and
//     stores the validated [goGate.AdminIdentity] in the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. Token checks are
// delegated to Engine.ValidateAdmin.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from Engine.ValidateAdmin.
package middleware
