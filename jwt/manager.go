package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalid covers every verification failure that is not a clean
	// expiry: bad signature, truncated input, wrong algorithm, garbage.
	ErrInvalid = errors.New("invalid access token")
	// ErrExpired is returned for a correctly signed token past its expiry.
	ErrExpired = errors.New("access token expired")
)

// Config defines the token codec parameters. Instances are configured during
// initialization and then treated as immutable.
type Config struct {
	// Secret is the HS256 signing key shared by every instance of the
	// process. Minimum 32 bytes.
	Secret    []byte
	AccessTTL time.Duration
	Issuer    string
}

// Manager mints and verifies short-lived signed access tokens. It holds no
// mutable state and is safe for concurrent use.
type Manager struct {
	config Config
}

type accessClaims struct {
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a codec bound to it.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if len(cfg.Secret) < 32 {
		return nil, errors.New("hs256 secret must be at least 32 bytes")
	}
	return &Manager{config: cfg}, nil
}

// Mint produces a signed token embedding userID with expiry now+AccessTTL.
func (m *Manager) Mint(userID string) (string, error) {
	return m.MintAt(userID, time.Now())
}

// MintAt is Mint with an explicit issue time. HS256 signing is
// deterministic: two calls with identical userID and now yield bit-identical
// tokens.
func (m *Manager) MintAt(userID string, now time.Time) (string, error) {
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTTL)),
		},
	}
	if m.config.Issuer != "" {
		claims.Issuer = m.config.Issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.config.Secret)
}

// Verify recomputes the signature and checks expiry, returning the embedded
// userID. Malformed or tampered input yields [ErrInvalid]; only a valid
// signature with a past expiry yields [ErrExpired].
func (m *Manager) Verify(tokenStr string) (string, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &accessClaims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		// Signature and structural failures win over expiry: a tampered
		// token that also happens to be expired is Invalid, not Expired.
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed),
			errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrTokenUnverifiable):
			return "", ErrInvalid
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrExpired
		default:
			return "", ErrInvalid
		}
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalid
	}

	return claims.Subject, nil
}
