package authcore

import (
	"errors"
	"time"
)

// Config carries all process-wide authentication settings. It is supplied at
// construction time and treated as immutable for the lifetime of the
// [Manager]; nothing in this package reads ambient global state.
type Config struct {
	Token    TokenConfig
	Refresh  RefreshConfig
	Cookie   CookieConfig
	Password PasswordConfig
	Timeouts TimeoutConfig
}

// TokenConfig configures access-token issuance and verification.
type TokenConfig struct {
	// Secret is the process-wide HS256 signing key. Minimum 32 bytes.
	Secret    []byte
	AccessTTL time.Duration
	Issuer    string
}

// RefreshConfig configures the server-side refresh token registry.
type RefreshConfig struct {
	TTL         time.Duration
	RedisPrefix string
	// RevokedRetention controls how long revoked and naturally expired
	// records stay readable so that a revoked token can be reported as
	// revoked rather than unknown. After the retention window both read
	// as not found.
	RevokedRetention time.Duration
}

// CookieConfig controls the attributes of the issued cookie directives.
// HttpOnly, SameSite=Strict and Path=/ are not configurable.
type CookieConfig struct {
	Secure bool
	Domain string
}

// PasswordConfig mirrors the argon2id parameters of the password package.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// TimeoutConfig bounds the Manager's calls into its two external
// dependencies. A hung store or directory surfaces as an error instead of
// stalling the request.
type TimeoutConfig struct {
	Store     time.Duration
	Directory time.Duration
}

// DefaultConfig returns a configuration suitable for development: 15 minute
// access tokens, 7 day refresh tokens, insecure cookies. Production callers
// must set Token.Secret and Cookie.Secure themselves.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL: 15 * time.Minute,
			Issuer:    "authcore",
		},
		Refresh: RefreshConfig{
			TTL:              7 * 24 * time.Hour,
			RedisPrefix:      "rt",
			RevokedRetention: 24 * time.Hour,
		},
		Cookie: CookieConfig{
			Secure: false,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Timeouts: TimeoutConfig{
			Store:     3 * time.Second,
			Directory: 3 * time.Second,
		},
	}
}

// Validate checks the configuration for internal consistency. It is called
// by [NewManager]; callers constructing subcomponents directly should call
// it themselves.
func (c *Config) Validate() error {
	if len(c.Token.Secret) < 32 {
		return errors.New("Token Secret must be at least 32 bytes")
	}
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token AccessTTL must be > 0")
	}
	if c.Refresh.TTL <= 0 {
		return errors.New("Refresh TTL must be > 0")
	}
	if c.Refresh.TTL <= c.Token.AccessTTL {
		return errors.New("Refresh TTL must exceed Token AccessTTL")
	}
	if c.Refresh.RedisPrefix == "" {
		return errors.New("Refresh RedisPrefix must not be empty")
	}
	if c.Refresh.RevokedRetention < 0 {
		return errors.New("Refresh RevokedRetention must be >= 0")
	}
	if c.Timeouts.Store <= 0 {
		return errors.New("Timeouts Store must be > 0")
	}
	if c.Timeouts.Directory <= 0 {
		return errors.New("Timeouts Directory must be > 0")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
