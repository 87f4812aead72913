package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() *TokenService {
	return NewTokenService("test-secret", time.Hour, 7*24*time.Hour)
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService()
	userID := uuid.New()

	token, err := svc.IssueAccessToken(userID)
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)

	subject, err := claims.SubjectID()
	require.NoError(t, err)
	assert.Equal(t, userID, subject)
	assert.False(t, claims.Refresh)
}

func TestRefreshTokenCarriesFlag(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.IssueRefreshToken(uuid.New())
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.True(t, claims.Refresh)
}

func TestVerify_Expired(t *testing.T) {
	svc := newTestTokenService()

	issued := time.Now().UTC()
	svc.WithClock(func() time.Time { return issued })

	token, err := svc.IssueAccessToken(uuid.New())
	require.NoError(t, err)

	// Move the clock past the access TTL.
	svc.WithClock(func() time.Time { return issued.Add(2 * time.Hour) })

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := newTestTokenService().IssueAccessToken(uuid.New())
	require.NoError(t, err)

	other := NewTokenService("other-secret", time.Hour, time.Hour)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	svc := newTestTokenService()

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

func TestSubjectID_NotAUUID(t *testing.T) {
	claims := &Claims{}
	claims.Subject = "forty-two"

	_, err := claims.SubjectID()
	assert.ErrorIs(t, err, ErrInvalidToken)
}
