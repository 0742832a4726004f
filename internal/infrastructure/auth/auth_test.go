package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, h.Compare(hash, "correct horse"))
	assert.Error(t, h.Compare(hash, "battery staple"))
}

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("s3cret", time.Hour)

	token, err := m.Issue("c-42")
	require.NoError(t, err)

	sub, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "c-42", sub)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager("s3cret", time.Hour)
	token, err := m.Issue("c-42")
	require.NoError(t, err)

	_, err = NewTokenManager("other", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenManager("s3cret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue("c-42")
	require.NoError(t, err)
	_, err = m.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
