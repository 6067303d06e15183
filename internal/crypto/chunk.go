// Package crypto implements the document encryption pipeline: per-chunk
// AEAD encryption with ChaCha20-Poly1305, BLAKE3 content hashing, and
// envelope wrapping of per-document data keys under the master key.
//
// Nonce discipline: a fresh random nonce is generated per chunk. At the
// expected document-count scale the 96-bit collision probability is
// negligible; a per-key counter is deliberately not used so the two
// strategies never mix under one key.
package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"lukechampine.com/blake3"
)

const (
	// KeySize is the AEAD key length in bytes.
	KeySize = chacha20poly1305.KeySize
	// NonceSize is the AEAD nonce length in bytes.
	NonceSize = chacha20poly1305.NonceSize
	// HashSize is the BLAKE3 digest length in bytes.
	HashSize = 32
)

var (
	// ErrEncryption is returned on invalid key or nonce length. Encryption
	// never fails on content.
	ErrEncryption = errors.New("encryption failed: invalid key or nonce length")
	// ErrAuthentication is returned when the AEAD tag does not verify:
	// tampered ciphertext or wrong key/nonce. No partial plaintext is ever
	// returned on this path.
	ErrAuthentication = errors.New("authentication failed: ciphertext rejected")
)

// GenerateKey returns a fresh 32-byte AEAD key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// GenerateNonce returns a fresh 12-byte nonce.
func GenerateNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return nonce, nil
}

// EncryptChunk seals plaintext and returns ciphertext with the appended
// Poly1305 tag.
func EncryptChunk(plaintext, key, nonce []byte) ([]byte, error) {
	if len(key) != KeySize || len(nonce) != NonceSize {
		return nil, ErrEncryption
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, ErrEncryption
	}
	return aead.Seal(nil, nonce, plaintext, nil), nil
}

// DecryptChunk opens ciphertext produced by EncryptChunk.
func DecryptChunk(ciphertext, key, nonce []byte) ([]byte, error) {
	if len(key) != KeySize || len(nonce) != NonceSize {
		return nil, ErrAuthentication
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, ErrAuthentication
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

// HashChunk returns the BLAKE3-256 digest of plaintext. The digest is
// non-secret and lets a holder verify a chunk without the data key.
func HashChunk(plaintext []byte) []byte {
	sum := blake3.Sum256(plaintext)
	return sum[:]
}

// HashChunkKeyed returns a 32-byte keyed BLAKE3 digest.
func HashChunkKeyed(plaintext, key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("keyed hash requires a %d-byte key", KeySize)
	}
	h := blake3.New(HashSize, key)
	h.Write(plaintext)
	return h.Sum(nil), nil
}

// WrapKey encrypts a data key under the master key. Output is
// nonce || ciphertext; only this wrapped form may be persisted.
func WrapKey(dataKey, masterKey []byte) ([]byte, error) {
	nonce, err := GenerateNonce()
	if err != nil {
		return nil, err
	}
	sealed, err := EncryptChunk(dataKey, masterKey, nonce)
	if err != nil {
		return nil, err
	}
	return append(nonce, sealed...), nil
}

// UnwrapKey recovers a data key wrapped by WrapKey.
func UnwrapKey(wrapped, masterKey []byte) ([]byte, error) {
	if len(wrapped) < NonceSize {
		return nil, ErrAuthentication
	}
	return DecryptChunk(wrapped[NonceSize:], masterKey, wrapped[:NonceSize])
}
