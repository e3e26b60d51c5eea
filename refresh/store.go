package refresh

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned when no record exists for the presented token,
	// or when the presented secret does not match the stored hash.
	ErrNotFound = errors.New("refresh token not found")
	// ErrExpired is returned when a record exists but its expiry has passed.
	ErrExpired = errors.New("refresh token expired")
	// ErrRevoked is returned when a record exists and was explicitly
	// revoked. Distinct from [ErrExpired] and [ErrNotFound] for audit;
	// callers deny authentication in all three cases.
	ErrRevoked = errors.New("refresh token revoked")
	// ErrMalformed is returned for opaque values that do not decode.
	ErrMalformed = errors.New("malformed refresh token")
	// ErrCorrupt is returned when a stored record blob does not parse.
	ErrCorrupt = errors.New("refresh record corrupt")
	// ErrUnavailable wraps Redis transport failures.
	ErrUnavailable = errors.New("refresh store unavailable")
)

const (
	revokeStatusNotFound       int64 = 0
	revokeStatusRevoked        int64 = 1
	revokeStatusAlreadyRevoked int64 = 2
	revokeStatusCorrupt        int64 = -1
)

// The revoke script flips the revoked flag inside the record in place. The
// record layout fixes the flag at offset 18+userLen (0-based); SETRANGE
// preserves the key's TTL, so a revoked record stays readable — and
// reportable as revoked — until the retention window ends.
const revokeScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
local user_len = string.byte(data, 2)
if not user_len or #data < 51 + user_len then
  return -1
end
if string.byte(data, 19 + user_len) == 1 then
  return 2
end
redis.call("SETRANGE", KEYS[1], 18 + user_len, "\1")
return 1
`

var revokeLua = redis.NewScript(revokeScript)

// Store is the Redis-backed refresh token registry. All methods are safe
// for concurrent use; per-record transitions are atomic because Redis
// executes each command and script as a single unit.
type Store struct {
	redis     redis.UniversalClient
	prefix    string
	retention time.Duration
}

// NewStore returns a registry using the given key prefix. retention is how
// long revoked and expired records stay readable past natural expiry.
func NewStore(rdb redis.UniversalClient, prefix string, retention time.Duration) *Store {
	return &Store{
		redis:     rdb,
		prefix:    prefix,
		retention: retention,
	}
}

func (s *Store) key(tokenID string) string {
	return s.prefix + ":" + tokenID
}

func (s *Store) userKey(userID string) string {
	return s.prefix + "u:" + userID
}

// Register creates a fresh token for userID with the given lifetime, stores
// its record and returns the token including the opaque cookie value.
// Token identifiers come from crypto/rand; concurrent registrations never
// collide.
func (s *Store) Register(ctx context.Context, userID string, ttl time.Duration) (*Token, error) {
	if ttl <= 0 {
		return nil, errors.New("refresh ttl must be > 0")
	}

	tokenID, err := NewTokenID()
	if err != nil {
		return nil, err
	}
	secret, err := newSecret()
	if err != nil {
		return nil, err
	}
	encoded, err := EncodeValue(tokenID, secret)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	hash := hashSecret(secret)
	rec := &Record{
		UserID:     userID,
		IssuedAt:   now.Unix(),
		ExpiresAt:  now.Add(ttl).Unix(),
		SecretHash: hash,
	}
	blob, err := EncodeRecord(rec)
	if err != nil {
		return nil, err
	}

	keyTTL := ttl + s.retention
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(tokenID), blob, keyTTL)
		pipe.SAdd(ctx, s.userKey(userID), tokenID)
		pipe.Expire(ctx, s.userKey(userID), keyTTL)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &Token{
		ID:        tokenID,
		UserID:    userID,
		Encoded:   encoded,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// Validate resolves an opaque cookie value to its owning userID. Failures
// are distinct: [ErrMalformed], [ErrNotFound], [ErrExpired], [ErrRevoked].
// A secret mismatch reads as [ErrNotFound] so the store is not an oracle
// for guessed identifiers.
func (s *Store) Validate(ctx context.Context, value string) (string, error) {
	tokenID, secret, err := DecodeValue(value)
	if err != nil {
		return "", err
	}

	data, err := s.redis.Get(ctx, s.key(tokenID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	rec, err := DecodeRecord(data)
	if err != nil {
		return "", err
	}

	provided := hashSecret(secret)
	if subtle.ConstantTimeCompare(provided[:], rec.SecretHash[:]) != 1 {
		return "", ErrNotFound
	}
	if rec.Revoked {
		return "", ErrRevoked
	}
	if time.Now().Unix() > rec.ExpiresAt {
		return "", ErrExpired
	}

	return rec.UserID, nil
}

// Revoke marks the record behind an opaque cookie value revoked. Revoking
// an unknown, malformed or already-revoked token is a no-op — logout must
// always succeed from the client's perspective.
func (s *Store) Revoke(ctx context.Context, value string) error {
	tokenID, _, err := DecodeValue(value)
	if err != nil {
		return nil
	}
	return s.RevokeID(ctx, tokenID)
}

// RevokeID is Revoke by raw token identifier.
func (s *Store) RevokeID(ctx context.Context, tokenID string) error {
	status, err := revokeLua.Run(ctx, s.redis, []string{s.key(tokenID)}).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if status == revokeStatusCorrupt {
		return ErrCorrupt
	}
	return nil
}

// RevokeAll marks every live record for userID revoked ("log out
// everywhere"). A registration racing this call may be missed; it is caught
// by the next RevokeAll or expires naturally.
func (s *Store) RevokeAll(ctx context.Context, userID string) error {
	tokenIDs, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	for _, tokenID := range tokenIDs {
		if err := s.RevokeID(ctx, tokenID); err != nil && !errors.Is(err, ErrCorrupt) {
			return err
		}
	}

	return nil
}

// Ping reports store reachability for health checks.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
