package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/paramedia/dispatch/internal/shared/errors"
	"github.com/paramedia/dispatch/internal/shared/types"
)

// Tokens issues and verifies signed session tokens. A token binds only the
// user identifier; permissions are re-resolved from the store on every
// request, so a permission downgrade takes effect immediately even for
// tokens issued before it. There is no revocation list: a token stays
// verifiable until it expires.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens creates a token service with the given signing secret and
// lifetime.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed, time-limited token for the user.
func (t *Tokens) Issue(userID types.ID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses a token and returns the user identifier it was issued to.
// Missing, malformed, expired, and badly signed tokens all fail with an
// authentication error.
func (t *Tokens) Verify(tokenString string) (types.ID, error) {
	if tokenString == "" {
		return "", apperrors.Authentication("no token provided")
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.Authentication("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil {
		return "", apperrors.Authentication("invalid token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", apperrors.Authentication("invalid token claims")
	}

	id, err := types.ParseID(claims.Subject)
	if err != nil {
		return "", apperrors.Authentication("invalid token subject")
	}

	return id, nil
}
