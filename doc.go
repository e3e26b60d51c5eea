// Package authcore implements a dual-token, cookie-transported
// authentication core: short-lived signed access tokens plus server-tracked
// revocable refresh tokens.
//
// # Architecture
//
// The [Manager] orchestrates login, logout and refresh against three
// collaborators: the stateless token codec (package jwt), the Redis-backed
// refresh registry (package refresh) and a caller-supplied [UserDirectory].
// Cookies are treated purely as a serialization format for the two token
// values; [CookiePolicy] is the only place directives are built, and only
// the HTTP boundary (package httpapi, package middleware) applies them. The
// same core works behind any transport.
//
// # Security posture
//
//   - Login fails uniformly for unknown emails and wrong passwords: same
//     error, same argon2 work, no enumeration signal.
//   - Access tokens are never individually revoked; logout revokes the
//     refresh token, and the access token dies at its own short expiry.
//   - Refresh tokens are opaque id+secret pairs; the registry stores only
//     the secret's hash.
package authcore
