package authcore

import (
	"net/http"
	"time"
)

// Cookie names used for the two credentials. The wire contract is shared
// with browser clients; renaming them is a breaking change.
const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
)

// CookiePolicy is the single place cookie directives are built. The core
// treats cookies purely as a serialization format for the two token values;
// only the HTTP boundary (httpapi, middleware) applies a policy.
type CookiePolicy struct {
	secure     bool
	domain     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCookiePolicy derives a policy from config. Exposed for callers that
// embed the core behind a custom transport.
func NewCookiePolicy(cfg Config) CookiePolicy {
	return CookiePolicy{
		secure:     cfg.Cookie.Secure,
		domain:     cfg.Cookie.Domain,
		accessTTL:  cfg.Token.AccessTTL,
		refreshTTL: cfg.Refresh.TTL,
	}
}

// Access builds the access-token cookie directive.
func (p CookiePolicy) Access(value string) *http.Cookie {
	return p.cookie(AccessCookieName, value, int(p.accessTTL.Seconds()))
}

// Refresh builds the refresh-token cookie directive.
func (p CookiePolicy) Refresh(value string) *http.Cookie {
	return p.cookie(RefreshCookieName, value, int(p.refreshTTL.Seconds()))
}

// ClearAccess builds a directive instructing the client to delete the
// access cookie (serialized as Max-Age=0).
func (p CookiePolicy) ClearAccess() *http.Cookie {
	return p.cookie(AccessCookieName, "", -1)
}

// ClearRefresh builds a directive instructing the client to delete the
// refresh cookie.
func (p CookiePolicy) ClearRefresh() *http.Cookie {
	return p.cookie(RefreshCookieName, "", -1)
}

func (p CookiePolicy) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   p.domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteStrictMode,
	}
}
