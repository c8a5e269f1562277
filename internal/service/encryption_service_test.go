package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptionRoundTrip(t *testing.T) {
	es, err := NewEncryptionService("unit-test-encryption-key")
	require.NoError(t, err)

	plaintext := "apiVersion: v1\nkind: Config\n"
	ciphertext, nonce, err := es.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)
	assert.NotEmpty(t, nonce)

	decrypted, err := es.Decrypt(ciphertext, nonce)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptionNonceVariesPerCall(t *testing.T) {
	es, err := NewEncryptionService("unit-test-encryption-key")
	require.NoError(t, err)

	_, nonce1, err := es.Encrypt("same input")
	require.NoError(t, err)
	_, nonce2, err := es.Encrypt("same input")
	require.NoError(t, err)
	assert.NotEqual(t, nonce1, nonce2)
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	es1, err := NewEncryptionService("key-one")
	require.NoError(t, err)
	es2, err := NewEncryptionService("key-two")
	require.NoError(t, err)

	ciphertext, nonce, err := es1.Encrypt("secret")
	require.NoError(t, err)

	_, err = es2.Decrypt(ciphertext, nonce)
	require.Error(t, err)
}

func TestNewEncryptionServiceRequiresKey(t *testing.T) {
	_, err := NewEncryptionService("")
	require.Error(t, err)
}
