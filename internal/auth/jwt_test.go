package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTokenService_RoundTrip(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	svc := NewTokenService("secret", time.Hour, clk)

	userID := primitive.NewObjectID()
	token, err := svc.Issue(userID)
	require.NoError(t, err)

	got, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokenService_Rejects(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	svc := NewTokenService("secret", time.Hour, clk)

	token, err := svc.Issue(primitive.NewObjectID())
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := svc.Verify("")
		assert.ErrorIs(t, err, ErrMissingCredentials)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Verify("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenService("other", time.Hour, clk)
		_, err := other.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("expired", func(t *testing.T) {
		clk.Add(2 * time.Hour)
		_, err := svc.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestCredentialFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?token=query", nil)
	assert.Equal(t, "query", CredentialFromRequest(r))

	r.Header.Set("Authorization", "Bearer header")
	assert.Equal(t, "header", CredentialFromRequest(r))

	r = httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, "", CredentialFromRequest(r))
}
