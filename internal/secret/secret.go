// Package secret provides cryptographically secure random material for
// tokens, shared secrets and backup codes, plus constant-time comparison.
package secret

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// TokenBytes is the entropy of a capability link token: 256 bits.
const TokenBytes = 32

// b32 encodes TOTP secrets for manual entry, no padding per RFC 6238 usage.
var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Bytes returns n cryptographically secure random bytes.
func Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}

// Token returns an unguessable hex-encoded bearer token with 256 bits of
// entropy.
func Token() (string, error) {
	b, err := Bytes(TokenBytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Base32Secret returns a 160-bit random secret encoded for manual entry.
func Base32Secret() (string, error) {
	b, err := Bytes(20)
	if err != nil {
		return "", err
	}
	return b32.EncodeToString(b), nil
}

// DecodeBase32 decodes a manual-entry secret back to raw bytes.
func DecodeBase32(s string) ([]byte, error) {
	b, err := b32.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base32 secret: %w", err)
	}
	return b, nil
}

// BackupCodes returns n single-use 8-digit recovery codes.
func BackupCodes(n int) ([]string, error) {
	codes := make([]string, 0, n)
	for i := 0; i < n; i++ {
		b, err := Bytes(8)
		if err != nil {
			return nil, err
		}
		v := binary.BigEndian.Uint64(b)
		codes = append(codes, fmt.Sprintf("%08d", 10000000+v%90000000))
	}
	return codes, nil
}

// Equal compares two byte slices in constant time.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// EqualString compares two strings in constant time.
func EqualString(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
