package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "6368616e676520746869732070617373776f726420746f206120736563726574"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	ciphertext, err := Encrypt(testKey, "historia clínica confidencial")
	require.NoError(t, err)
	assert.NotEqual(t, "historia clínica confidencial", ciphertext)

	plaintext, err := Decrypt(testKey, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "historia clínica confidencial", plaintext)
}

func TestEncryptProducesDistinctCiphertexts(t *testing.T) {
	a, err := Encrypt(testKey, "same message")
	require.NoError(t, err)
	b, err := Encrypt(testKey, "same message")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	ciphertext, err := Encrypt(testKey, "secret")
	require.NoError(t, err)

	otherKey := "0000000000000000000000000000000000000000000000000000000000000000"
	_, err = Decrypt(otherKey, ciphertext)
	assert.Error(t, err)
}

func TestEncryptRejectsBadKey(t *testing.T) {
	_, err := Encrypt("too-short", "msg")
	assert.Error(t, err)

	_, err = Encrypt("zz68616e676520746869732070617373776f726420746f206120736563726574", "msg")
	assert.Error(t, err)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	_, err := Decrypt(testKey, "not base64 at all!!!")
	assert.Error(t, err)

	_, err = Decrypt(testKey, "c2hvcnQ=")
	assert.Error(t, err)
}
