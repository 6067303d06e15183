package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptChunk(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	nonce, err := GenerateNonce()
	require.NoError(t, err)

	plaintext := []byte("confidential document contents")

	ciphertext, err := EncryptChunk(plaintext, key, nonce)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)
	assert.Len(t, ciphertext, len(plaintext)+16)

	decrypted, err := DecryptChunk(ciphertext, key, nonce)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptChunk_EmptyPlaintext(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	nonce, err := GenerateNonce()
	require.NoError(t, err)

	ciphertext, err := EncryptChunk(nil, key, nonce)
	require.NoError(t, err)

	decrypted, err := DecryptChunk(ciphertext, key, nonce)
	require.NoError(t, err)
	assert.Empty(t, decrypted)
}

func TestEncryptChunk_BadKeyLength(t *testing.T) {
	nonce, err := GenerateNonce()
	require.NoError(t, err)

	_, err = EncryptChunk([]byte("data"), []byte("short"), nonce)
	assert.ErrorIs(t, err, ErrEncryption)
}

func TestEncryptChunk_BadNonceLength(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	_, err = EncryptChunk([]byte("data"), key, []byte("short"))
	assert.ErrorIs(t, err, ErrEncryption)
}

func TestDecryptChunk_Tampered(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	nonce, err := GenerateNonce()
	require.NoError(t, err)

	ciphertext, err := EncryptChunk([]byte("payload"), key, nonce)
	require.NoError(t, err)

	for _, idx := range []int{0, len(ciphertext) / 2, len(ciphertext) - 1} {
		tampered := bytes.Clone(ciphertext)
		tampered[idx] ^= 0x01

		plaintext, err := DecryptChunk(tampered, key, nonce)
		assert.ErrorIs(t, err, ErrAuthentication)
		assert.Nil(t, plaintext)
	}
}

func TestDecryptChunk_WrongKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	otherKey, err := GenerateKey()
	require.NoError(t, err)
	nonce, err := GenerateNonce()
	require.NoError(t, err)

	ciphertext, err := EncryptChunk([]byte("payload"), key, nonce)
	require.NoError(t, err)

	_, err = DecryptChunk(ciphertext, otherKey, nonce)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestDecryptChunk_WrongNonce(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	nonce, err := GenerateNonce()
	require.NoError(t, err)
	otherNonce, err := GenerateNonce()
	require.NoError(t, err)

	ciphertext, err := EncryptChunk([]byte("payload"), key, nonce)
	require.NoError(t, err)

	_, err = DecryptChunk(ciphertext, key, otherNonce)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestGenerateNonce_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 10; i++ {
		nonce, err := GenerateNonce()
		require.NoError(t, err)
		require.Len(t, nonce, NonceSize)
		seen[string(nonce)] = struct{}{}
	}
	assert.Len(t, seen, 10)
}

func TestHashChunk(t *testing.T) {
	a := HashChunk([]byte("same input"))
	b := HashChunk([]byte("same input"))
	c := HashChunk([]byte("other input"))

	assert.Len(t, a, HashSize)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestHashChunkKeyed(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	otherKey, err := GenerateKey()
	require.NoError(t, err)

	a, err := HashChunkKeyed([]byte("input"), key)
	require.NoError(t, err)
	b, err := HashChunkKeyed([]byte("input"), otherKey)
	require.NoError(t, err)

	assert.Len(t, a, HashSize)
	assert.NotEqual(t, a, b)

	_, err = HashChunkKeyed([]byte("input"), []byte("short"))
	assert.Error(t, err)
}

func TestWrapUnwrapKey(t *testing.T) {
	masterKey, err := GenerateKey()
	require.NoError(t, err)
	dataKey, err := GenerateKey()
	require.NoError(t, err)

	wrapped, err := WrapKey(dataKey, masterKey)
	require.NoError(t, err)
	assert.Len(t, wrapped, NonceSize+KeySize+16)
	assert.NotContains(t, string(wrapped), string(dataKey))

	unwrapped, err := UnwrapKey(wrapped, masterKey)
	require.NoError(t, err)
	assert.Equal(t, dataKey, unwrapped)
}

func TestUnwrapKey_WrongMasterKey(t *testing.T) {
	masterKey, err := GenerateKey()
	require.NoError(t, err)
	otherKey, err := GenerateKey()
	require.NoError(t, err)
	dataKey, err := GenerateKey()
	require.NoError(t, err)

	wrapped, err := WrapKey(dataKey, masterKey)
	require.NoError(t, err)

	_, err = UnwrapKey(wrapped, otherKey)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestUnwrapKey_Truncated(t *testing.T) {
	masterKey, err := GenerateKey()
	require.NoError(t, err)

	_, err = UnwrapKey([]byte("short"), masterKey)
	assert.ErrorIs(t, err, ErrAuthentication)
}
