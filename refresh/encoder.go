package refresh

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// recordFormatVersionCurrent is the on-wire record schema version. The
// format is append-only: new versions may add trailing fields but never
// reinterpret existing offsets — the revoke script addresses the revoked
// flag by computed offset.
const recordFormatVersionCurrent = 1

// Record is the stored form of one refresh token. The cookie secret itself
// is never stored; SecretHash holds sha256 of it.
type Record struct {
	UserID     string
	IssuedAt   int64
	ExpiresAt  int64
	Revoked    bool
	SecretHash [32]byte
}

// EncodeRecord serializes r into the compact binary store format:
// version(1) userLen(1) userID(n) issuedAt(8,BE) expiresAt(8,BE)
// revoked(1) secretHash(32).
func EncodeRecord(r *Record) ([]byte, error) {
	if len(r.UserID) == 0 {
		return nil, errors.New("userID must not be empty")
	}
	if len(r.UserID) > 255 {
		return nil, errors.New("userID too long")
	}

	var buf bytes.Buffer
	buf.WriteByte(recordFormatVersionCurrent)
	buf.WriteByte(byte(len(r.UserID)))
	buf.WriteString(r.UserID)

	if err := binary.Write(&buf, binary.BigEndian, r.IssuedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.ExpiresAt); err != nil {
		return nil, err
	}

	if r.Revoked {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	buf.Write(r.SecretHash[:])

	return buf.Bytes(), nil
}

// DecodeRecord parses a stored blob. Truncated or structurally invalid
// input yields [ErrCorrupt], never a panic.
func DecodeRecord(data []byte) (*Record, error) {
	if len(data) < 2 {
		return nil, ErrCorrupt
	}
	if data[0] != recordFormatVersionCurrent {
		return nil, ErrCorrupt
	}

	userLen := int(data[1])
	if userLen == 0 || len(data) != recordSize(userLen) {
		return nil, ErrCorrupt
	}

	r := &Record{
		UserID:    string(data[2 : 2+userLen]),
		IssuedAt:  int64(binary.BigEndian.Uint64(data[2+userLen : 10+userLen])),
		ExpiresAt: int64(binary.BigEndian.Uint64(data[10+userLen : 18+userLen])),
		Revoked:   data[18+userLen] != 0,
	}
	copy(r.SecretHash[:], data[19+userLen:])

	return r, nil
}

func recordSize(userLen int) int {
	return 2 + userLen + 8 + 8 + 1 + 32
}
