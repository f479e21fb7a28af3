package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipherRoundTrip(t *testing.T) {
	c, err := NewCipher("test-master-secret")
	require.NoError(t, err)

	token, err := c.Encrypt("sk-very-secret-key")
	require.NoError(t, err)
	assert.NotEqual(t, "sk-very-secret-key", token)

	plaintext, err := c.Decrypt(token)
	require.NoError(t, err)
	assert.Equal(t, "sk-very-secret-key", plaintext)
}

func TestCipherTokensAreNotDeterministic(t *testing.T) {
	c, err := NewCipher("test-master-secret")
	require.NoError(t, err)

	first, err := c.Encrypt("sk-key")
	require.NoError(t, err)
	second, err := c.Encrypt("sk-key")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "random nonce must make repeated encryptions differ")
}

func TestCipherRejectsWrongKey(t *testing.T) {
	right, err := NewCipher("correct-secret")
	require.NoError(t, err)
	wrong, err := NewCipher("other-secret")
	require.NoError(t, err)

	token, err := right.Encrypt("sk-key")
	require.NoError(t, err)

	_, err = wrong.Decrypt(token)
	assert.Error(t, err)
}

func TestCipherRejectsGarbageTokens(t *testing.T) {
	c, err := NewCipher("test-master-secret")
	require.NoError(t, err)

	_, err = c.Decrypt("not base64 !!!")
	assert.Error(t, err)

	_, err = c.Decrypt("c2hvcnQ=")
	assert.Error(t, err, "tokens shorter than a nonce are invalid")
}

func TestNewCipherRequiresMasterKey(t *testing.T) {
	_, err := NewCipher("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "master key")
}
