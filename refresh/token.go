package refresh

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"
)

const (
	tokenIDSize = 16
	secretSize  = 32
	opaqueSize  = tokenIDSize + secretSize
)

// Token is the registry's view of one outstanding refresh credential.
// Encoded carries the opaque cookie value; it is returned once at
// registration and never recoverable from the store afterwards.
type Token struct {
	ID        string
	UserID    string
	Encoded   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewTokenID returns a fresh random identifier, base64url without padding.
func NewTokenID() (string, error) {
	var raw [tokenIDSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

func newSecret() ([secretSize]byte, error) {
	var secret [secretSize]byte
	_, err := rand.Read(secret[:])
	return secret, err
}

func hashSecret(secret [secretSize]byte) [32]byte {
	return sha256.Sum256(secret[:])
}

// EncodeValue packs tokenID and secret into the opaque cookie value.
func EncodeValue(tokenID string, secret [secretSize]byte) (string, error) {
	id, err := base64.RawURLEncoding.DecodeString(tokenID)
	if err != nil {
		return "", err
	}
	if len(id) != tokenIDSize {
		return "", errors.New("invalid token id size")
	}

	var raw [opaqueSize]byte
	copy(raw[:tokenIDSize], id)
	copy(raw[tokenIDSize:], secret[:])

	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// DecodeValue unpacks an opaque cookie value. Any structural defect yields
// [ErrMalformed]; the caller learns nothing about which part was wrong.
func DecodeValue(value string) (string, [secretSize]byte, error) {
	var secret [secretSize]byte

	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return "", secret, ErrMalformed
	}
	if len(raw) != opaqueSize {
		return "", secret, ErrMalformed
	}

	copy(secret[:], raw[tokenIDSize:])
	return base64.RawURLEncoding.EncodeToString(raw[:tokenIDSize]), secret, nil
}
