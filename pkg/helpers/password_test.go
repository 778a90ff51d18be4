package helpers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasherHash(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	tests := []struct {
		name    string
		secret  string
		wantErr error
	}{
		{"valid password", "pw12345678", nil},
		{"empty secret", "", ErrEmptySecret},
		{"short numeric passcode", "9999", nil},
		{"unicode secret", "pässwörd-ünïcode", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.secret)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.secret, hash)

			ok, err := h.Verify(tt.secret, hash)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestPasswordHasherSaltedOutput(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	h1, err := h.Hash("pw12345678")
	require.NoError(t, err)
	h2, err := h.Hash("pw12345678")
	require.NoError(t, err)

	// distinct salts, both still verify
	assert.NotEqual(t, h1, h2)

	ok, err := h.Verify("pw12345678", h1)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = h.Verify("pw12345678", h2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPasswordHasherVerify(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	hash, err := h.Hash("correct-password")
	require.NoError(t, err)

	t.Run("mismatch is false without error", func(t *testing.T) {
		ok, err := h.Verify("wrong-password", hash)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("attacker-supplied long input does not error", func(t *testing.T) {
		ok, err := h.Verify(strings.Repeat("A", 4096), hash)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("malformed hash is reported", func(t *testing.T) {
		for _, corrupt := range []string{"", "not-a-bcrypt-hash", "$9z$nonsense"} {
			ok, err := h.Verify("correct-password", corrupt)
			assert.ErrorIs(t, err, ErrMalformedHash)
			assert.False(t, ok)
		}
	})
}

func TestNewPasswordHasherCostFallback(t *testing.T) {
	h := NewPasswordHasher(99)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)

	h = NewPasswordHasher(0)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
}
