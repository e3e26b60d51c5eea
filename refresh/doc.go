// Package refresh implements the server-side registry of outstanding refresh
// tokens on Redis.
//
// # Token format
//
// The opaque cookie value is base64url(tokenId || secret): a 16-byte random
// identifier followed by a 32-byte random secret. The registry stores only
// sha256(secret) inside a compact binary record keyed by tokenId, so a dump
// of the store cannot be replayed as cookies.
//
// # Record lifecycle
//
// register → validate* → revoke. Revocation flips a flag inside the record
// via a Redis-side script rather than deleting the key, and records outlive
// their natural expiry by a retention window, so validation can distinguish
// an actively revoked token from one that never existed. Per-record state
// transitions are atomic: Redis executes the revoke script as a single unit,
// and a validate that starts after a revoke completes observes the flag.
//
// # What this package must NOT do
//
//   - Interpret JWT access tokens or passwords.
//   - Decide HTTP status codes or cookie attributes.
package refresh
