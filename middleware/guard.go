package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/MrEthical07/authcore"
)

type userIDContextKey struct{}

// UserIDFromContext returns the authenticated userID placed by [Guard].
func UserIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(userIDContextKey{}).(string)
	return uid, ok
}

// Guard returns middleware that authenticates the access-token cookie.
//
// Missing cookie: denied immediately, no codec call. Invalid token: denied.
// Cleanly expired token: one refresh attempt using the refresh-token
// cookie; on success a fresh access cookie is set on the response and the
// request proceeds, otherwise denied. The request never proceeds without an
// authenticated userID in its context.
func Guard(m *authcore.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				deny(w)
				return
			}

			cookie, err := r.Cookie(authcore.AccessCookieName)
			if err != nil || cookie.Value == "" {
				deny(w)
				return
			}

			uid, err := m.Authenticate(cookie.Value)
			if errors.Is(err, authcore.ErrTokenExpired) {
				uid, err = refreshOnce(w, r, m)
			}
			if err != nil {
				deny(w)
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey{}, uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func refreshOnce(w http.ResponseWriter, r *http.Request, m *authcore.Manager) (string, error) {
	cookie, err := r.Cookie(authcore.RefreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", authcore.ErrUnauthenticated
	}

	creds, err := m.Refresh(r.Context(), cookie.Value)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, m.Cookies().Access(creds.AccessToken))
	return creds.UserID, nil
}

func deny(w http.ResponseWriter) {
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}
