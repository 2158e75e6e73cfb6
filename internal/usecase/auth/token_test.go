package auth

import (
	"context"
	"testing"
	"time"

	"github.com/gdugdh24/teamup-backend/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyToken(t *testing.T) {
	v := NewTokenVerifier("secret")
	ctx := context.Background()

	token, err := v.IssueToken(42, time.Hour)
	require.NoError(t, err)

	id, err := v.VerifyToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, 42, id)
}

func TestVerifyToken_Rejects(t *testing.T) {
	v := NewTokenVerifier("secret")
	ctx := context.Background()

	expired, err := v.IssueToken(42, -time.Minute)
	require.NoError(t, err)

	otherKey, err := NewTokenVerifier("other").IssueToken(42, time.Hour)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 42}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":   expired,
		"wrong key": otherKey,
		"no exp":    noExp,
		"no user":   noUser,
		"garbage":   "not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.VerifyToken(ctx, token)
			assert.ErrorIs(t, err, domain.ErrInvalidToken)
		})
	}
}
