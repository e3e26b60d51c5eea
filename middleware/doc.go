// Package middleware provides the net/http authentication gate for
// protected routes: it extracts and verifies the access-token cookie, and
// is the sole caller of the Manager's refresh path when the access token
// has expired mid-session.
package middleware
