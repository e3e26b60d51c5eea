package authcore

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/refresh"
)

// Credentials is the result of a successful login or refresh. RefreshToken
// is empty on refresh: the design does not rotate refresh tokens, so the
// client keeps the cookie it already holds.
type Credentials struct {
	UserID           string
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Manager is the session manager: it verifies passwords, mints and
// registers token pairs, and revokes sessions. Construct once with
// [NewManager] and share; all methods are safe for concurrent use.
type Manager struct {
	config    Config
	tokens    *jwt.Manager
	store     *refresh.Store
	directory UserDirectory
	hasher    *password.Hasher
	cookies   CookiePolicy

	// decoyHash absorbs the argon2 work for unknown emails so the latency
	// profile of "unknown email" matches "wrong password".
	decoyHash string
}

// NewManager validates cfg and assembles the session manager on top of the
// given user directory and Redis client.
func NewManager(cfg Config, directory UserDirectory, rdb redis.UniversalClient) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if directory == nil {
		return nil, errors.New("user directory is required")
	}
	if rdb == nil {
		return nil, errors.New("redis client is required")
	}
	cfg = cloneConfig(cfg)

	tokens, err := jwt.NewManager(jwt.Config{
		Secret:    cfg.Token.Secret,
		AccessTTL: cfg.Token.AccessTTL,
		Issuer:    cfg.Token.Issuer,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.New(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	decoy, err := newDecoyHash(hasher)
	if err != nil {
		return nil, err
	}

	return &Manager{
		config:    cfg,
		tokens:    tokens,
		store:     refresh.NewStore(rdb, cfg.Refresh.RedisPrefix, cfg.Refresh.RevokedRetention),
		directory: directory,
		hasher:    hasher,
		cookies:   NewCookiePolicy(cfg),
		decoyHash: decoy,
	}, nil
}

// Cookies returns the cookie policy derived from the Manager's config.
func (m *Manager) Cookies() CookiePolicy {
	return m.cookies
}

// Register creates a new directory account with an argon2id-hashed
// password. Validation failures yield [ErrRegistrationInvalid]; duplicate
// emails yield [ErrEmailTaken].
func (m *Manager) Register(ctx context.Context, name, email, pass string) (*User, error) {
	email = normalizeEmail(email)
	if err := validateRegistration(name, email, pass); err != nil {
		return nil, err
	}

	hash, err := m.hasher.Hash(pass)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
	}

	dctx, cancel := m.directoryCtx(ctx)
	defer cancel()
	if err := m.directory.Create(dctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies the credentials and, on success, mints an access token and
// registers a refresh token. Unknown email and wrong password both return
// [ErrInvalidCredentials] after equivalent argon2 work.
func (m *Manager) Login(ctx context.Context, email, pass string) (*User, *Credentials, error) {
	dctx, cancel := m.directoryCtx(ctx)
	user, err := m.directory.ByEmail(dctx, normalizeEmail(email))
	cancel()
	if err != nil {
		_, _ = m.hasher.Verify(pass, m.decoyHash)
		return nil, nil, ErrInvalidCredentials
	}

	ok, err := m.hasher.Verify(pass, user.PasswordHash)
	if err != nil || !ok {
		return nil, nil, ErrInvalidCredentials
	}

	access, err := m.tokens.Mint(user.ID)
	if err != nil {
		return nil, nil, err
	}

	sctx, cancel := m.storeCtx(ctx)
	defer cancel()
	tok, err := m.store.Register(sctx, user.ID, m.config.Refresh.TTL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return user, &Credentials{
		UserID:           user.ID,
		AccessToken:      access,
		RefreshToken:     tok.Encoded,
		AccessExpiresAt:  time.Now().Add(m.config.Token.AccessTTL),
		RefreshExpiresAt: tok.ExpiresAt,
	}, nil
}

// Authenticate verifies an access token value and returns the embedded
// userID. A missing token is [ErrUnauthenticated] without touching the
// codec; a cleanly expired one is [ErrTokenExpired] so the caller may try a
// refresh; everything else is [ErrUnauthenticated].
func (m *Manager) Authenticate(token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}

	uid, err := m.tokens.Verify(token)
	switch {
	case err == nil:
		return uid, nil
	case errors.Is(err, jwt.ErrExpired):
		return "", ErrTokenExpired
	default:
		return "", ErrUnauthenticated
	}
}

// Refresh validates the refresh cookie value against the registry and
// mints a new access token for its owner. The refresh token is not rotated.
// Every failure — malformed, unknown, expired, revoked, store down — maps
// to [ErrSessionExpired]; the distinction is preserved in the wrapped error
// for server-side audit only.
func (m *Manager) Refresh(ctx context.Context, refreshValue string) (*Credentials, error) {
	if refreshValue == "" {
		return nil, ErrSessionExpired
	}

	sctx, cancel := m.storeCtx(ctx)
	uid, err := m.store.Validate(sctx, refreshValue)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	access, err := m.tokens.Mint(uid)
	if err != nil {
		return nil, err
	}

	return &Credentials{
		UserID:          uid,
		AccessToken:     access,
		AccessExpiresAt: time.Now().Add(m.config.Token.AccessTTL),
	}, nil
}

// Logout revokes the refresh token behind the cookie value. Missing,
// malformed, unknown and already-revoked values are all tolerated: the
// client observes success regardless, and revocation is idempotent. The
// returned error reports store unavailability only.
func (m *Manager) Logout(ctx context.Context, refreshValue string) error {
	if refreshValue == "" {
		return nil
	}

	sctx, cancel := m.storeCtx(ctx)
	defer cancel()
	if err := m.store.Revoke(sctx, refreshValue); err != nil && !errors.Is(err, refresh.ErrCorrupt) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// LogoutAll revokes every outstanding refresh token for userID ("log out
// everywhere"). Outstanding access tokens still run out their own expiry.
func (m *Manager) LogoutAll(ctx context.Context, userID string) error {
	sctx, cancel := m.storeCtx(ctx)
	defer cancel()
	if err := m.store.RevokeAll(sctx, userID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// UserByID fetches a directory record for an authenticated caller.
func (m *Manager) UserByID(ctx context.Context, id string) (*User, error) {
	dctx, cancel := m.directoryCtx(ctx)
	defer cancel()
	return m.directory.ByID(dctx, id)
}

// UpdateUser renames an existing account.
func (m *Manager) UpdateUser(ctx context.Context, id, name string) (*User, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < 2 {
		return nil, ErrRegistrationInvalid
	}

	dctx, cancel := m.directoryCtx(ctx)
	defer cancel()

	user, err := m.directory.ByID(dctx, id)
	if err != nil {
		return nil, err
	}
	user.Name = name
	if err := m.directory.Update(dctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Ping reports refresh store reachability for health checks.
func (m *Manager) Ping(ctx context.Context) error {
	sctx, cancel := m.storeCtx(ctx)
	defer cancel()
	if err := m.store.Ping(sctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (m *Manager) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.config.Timeouts.Store)
}

func (m *Manager) directoryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.config.Timeouts.Directory)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegistration(name, email, pass string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) < 2 {
		return fmt.Errorf("%w: name is too short", ErrRegistrationInvalid)
	}
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return fmt.Errorf("%w: email is invalid", ErrRegistrationInvalid)
	}
	if len(pass) < 8 {
		return fmt.Errorf("%w: password must be at least 8 bytes", ErrRegistrationInvalid)
	}
	return nil
}

func newDecoyHash(hasher *password.Hasher) (string, error) {
	var raw [24]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return hasher.Hash(base64.RawStdEncoding.EncodeToString(raw[:]))
}
