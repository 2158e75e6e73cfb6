package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/gdugdh24/teamup-backend/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier checks bearer tokens issued by the platform's auth service.
// Sessions live there; this service only trusts the signature and expiry.
type TokenVerifier struct {
	jwtSecret string
}

func NewTokenVerifier(jwtSecret string) *TokenVerifier {
	return &TokenVerifier{jwtSecret: jwtSecret}
}

// IssueToken signs a token for userID. Used by tests and local tooling.
func (v *TokenVerifier) IssueToken(userID int, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(ttl).Unix(),
		"iat":     now.Unix(),
	})

	tokenString, err := token.SignedString([]byte(v.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// VerifyToken verifies JWT token and returns user ID
func (v *TokenVerifier) VerifyToken(_ context.Context, tokenString string) (int, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return []byte(v.jwtSecret), nil
	}, jwt.WithExpirationRequired())

	if err != nil || !token.Valid {
		return 0, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, domain.ErrInvalidToken
	}

	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return 0, domain.ErrInvalidToken
	}

	return int(userID), nil
}
