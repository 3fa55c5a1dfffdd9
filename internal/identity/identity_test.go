package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, subject string, expiry time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: subject}
	if !expiry.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(expiry)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func TestHolder_SetExtractsClaims(t *testing.T) {
	h := NewHolder()
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)

	require.NoError(t, h.Set(signedToken(t, "user-1", expiry)))

	assert.Equal(t, "user-1", h.UserID())
	assert.True(t, h.Expiry().Equal(expiry))
	assert.False(t, h.Expired(time.Now()))

	token, err := h.Token()
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestHolder_SetRejectsGarbage(t *testing.T) {
	h := NewHolder()

	require.Error(t, h.Set("not-a-token"))
	assert.Empty(t, h.UserID())
	_, err := h.Token()
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestHolder_SetRejectsMissingSubject(t *testing.T) {
	h := NewHolder()
	token, err := jwt.New(jwt.SigningMethodHS256).SignedString([]byte("test-key"))
	require.NoError(t, err)

	assert.Error(t, h.Set(token))
}

func TestHolder_Expired(t *testing.T) {
	h := NewHolder()
	require.NoError(t, h.Set(signedToken(t, "user-1", time.Now().Add(-time.Minute))))

	assert.True(t, h.Expired(time.Now()))
}

func TestHolder_ClearNotifies(t *testing.T) {
	h := NewHolder()
	changes := 0
	h.OnChange(func() { changes++ })

	require.NoError(t, h.Set(signedToken(t, "user-1", time.Time{})))
	assert.Equal(t, 1, changes)

	h.Clear()
	assert.Equal(t, 2, changes)
	assert.Empty(t, h.UserID())
	_, err := h.Token()
	assert.ErrorIs(t, err, ErrNoCredential)
}
