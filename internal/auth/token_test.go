package auth

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/paramedia/dispatch/internal/shared/errors"
	"github.com/paramedia/dispatch/internal/shared/types"
)

// TestTokenRoundTrip tests that an issued token verifies back to its user
func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	userID := types.NewID()

	token, err := tokens.Issue(userID)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if token == "" {
		t.Fatal("Expected non-empty token")
	}

	got, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if got != userID {
		t.Errorf("Expected user ID %s, got %s", userID, got)
	}
}

// TestTokenExpired tests that an expired token is rejected
func TestTokenExpired(t *testing.T) {
	tokens := NewTokens("test-secret", -time.Minute)

	token, err := tokens.Issue(types.NewID())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	_, err = tokens.Verify(token)
	if err == nil {
		t.Fatal("Expected error for expired token")
	}
	if !errors.Is(err, apperrors.ErrAuthentication) {
		t.Errorf("Expected authentication error, got %v", err)
	}
}

// TestTokenWrongSecret tests that a token signed with another secret fails
func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokens("secret-a", time.Hour)
	verifier := NewTokens("secret-b", time.Hour)

	token, err := issuer.Issue(types.NewID())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := verifier.Verify(token); err == nil {
		t.Fatal("Expected error for token signed with different secret")
	}
}

// TestTokenInvalid tests rejection of malformed and empty tokens
func TestTokenInvalid(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"truncated", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ4In0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tokens.Verify(tc.token)
			if err == nil {
				t.Fatal("Expected error")
			}

			var appErr *apperrors.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("Expected AppError, got %T", err)
			}
			if appErr.HTTPStatus != 401 {
				t.Errorf("Expected status 401, got %d", appErr.HTTPStatus)
			}
		})
	}
}
