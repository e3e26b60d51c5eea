package authcore

import "errors"

var (
	// ErrInvalidCredentials is returned by [Manager.Login] for both unknown
	// emails and wrong passwords. The two cases are deliberately
	// indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned when a protected request carries no
	// access token, or a token that fails signature verification.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrTokenExpired is returned for a well-formed, correctly signed access
	// token past its expiry. Distinct from [ErrUnauthenticated] so the HTTP
	// layer can attempt a refresh before denying.
	ErrTokenExpired = errors.New("access token expired")
	// ErrSessionExpired is returned by [Manager.Refresh] when the refresh
	// token is missing, malformed, expired or revoked.
	ErrSessionExpired = errors.New("session expired")
	// ErrUserNotFound is returned by user directory lookups.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering a user with an email that
	// already exists in the directory.
	ErrEmailTaken = errors.New("email already registered")
	// ErrRegistrationInvalid is returned when a registration payload fails
	// validation.
	ErrRegistrationInvalid = errors.New("invalid registration request")
	// ErrStoreUnavailable is returned when the refresh store backend cannot
	// be reached within the configured timeout.
	ErrStoreUnavailable = errors.New("refresh store unavailable")
)
