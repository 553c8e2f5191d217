// Package password hashes and verifies the admin secret with Argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Operators generate a hash once (gogate hash-secret) and configure it in
// place of the plaintext secret.
//
// # What this package must NOT do
//
//   - Store or retrieve secrets; callers supply plaintext and receive hashes.
//   - Import any other goGate package.
//   - Log plaintext secrets or hash parameters at runtime.
package password
