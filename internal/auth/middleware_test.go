package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/paramedia/dispatch/internal/shared/errors"
	"github.com/paramedia/dispatch/internal/shared/types"
)

// fakeDirectory serves identities from a map, like the store would
type fakeDirectory struct {
	identities map[types.ID]*Identity
}

func (d *fakeDirectory) Identity(_ context.Context, id types.ID) (*Identity, error) {
	ident, ok := d.identities[id]
	if !ok {
		return nil, apperrors.NotFound("user", id.String())
	}
	return ident, nil
}

func testChain(t *testing.T, permission string) (*Tokens, *fakeDirectory, http.Handler) {
	t.Helper()

	tokens := NewTokens("test-secret", time.Hour)
	dir := &fakeDirectory{identities: make(map[types.ID]*Identity)}

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetIdentity(r.Context()) == nil {
			t.Error("Expected identity in handler context")
		}
		w.WriteHeader(http.StatusOK)
	})

	handler := Middleware(tokens, NewEvaluator(dir))(Require("test", permission)(inner))
	return tokens, dir, handler
}

// TestMiddlewareMissingToken tests 401 without an Authorization header
func TestMiddlewareMissingToken(t *testing.T) {
	_, _, handler := testChain(t, PermViewReports)

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

// TestMiddlewareMalformedHeader tests 401 for a non-bearer header
func TestMiddlewareMalformedHeader(t *testing.T) {
	_, _, handler := testChain(t, PermViewReports)

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

// TestMiddlewareInvalidToken tests 401 for a token that does not verify
func TestMiddlewareInvalidToken(t *testing.T) {
	_, _, handler := testChain(t, PermViewReports)

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

// TestMiddlewareDeletedUser tests that a valid token whose user no longer
// exists fails with 404, making deletion the delayed revocation path
func TestMiddlewareDeletedUser(t *testing.T) {
	tokens, _, handler := testChain(t, PermViewReports)

	token, err := tokens.Issue(types.NewID())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

// TestMiddlewareInsufficientPermission tests 403 for a valid identity
// lacking the required permission
func TestMiddlewareInsufficientPermission(t *testing.T) {
	tokens, dir, handler := testChain(t, PermDeleteReports)

	userID := types.NewID()
	dir.identities[userID] = &Identity{
		ID:          userID,
		Name:        "Diego Ramirez",
		Role:        RoleParamedic,
		Permissions: []string{PermViewMyReports, PermCreateReports},
	}

	token, err := tokens.Issue(userID)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/reports/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", rec.Code)
	}
}

// TestMiddlewareWildcardAllows tests that "*" passes any permission gate
func TestMiddlewareWildcardAllows(t *testing.T) {
	tokens, dir, handler := testChain(t, PermDeleteUsers)

	userID := types.NewID()
	dir.identities[userID] = &Identity{
		ID:          userID,
		Name:        "System Administrator",
		Role:        RoleAdmin,
		Permissions: []string{PermAll},
	}

	token, err := tokens.Issue(userID)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/users/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

// TestEvaluatorPermissionChange tests that a stored permission edit takes
// effect without reissuing the token
func TestEvaluatorPermissionChange(t *testing.T) {
	dir := &fakeDirectory{identities: make(map[types.ID]*Identity)}
	eval := NewEvaluator(dir)

	userID := types.NewID()
	dir.identities[userID] = &Identity{ID: userID, Permissions: []string{PermViewReports}}

	allowed, err := eval.HasPermission(context.Background(), userID, PermViewReports)
	if err != nil || !allowed {
		t.Fatalf("Expected allow, got %v, %v", allowed, err)
	}

	dir.identities[userID].Permissions = []string{}

	allowed, err = eval.HasPermission(context.Background(), userID, PermViewReports)
	if err != nil {
		t.Fatalf("HasPermission failed: %v", err)
	}
	if allowed {
		t.Error("Expected deny after permission removal")
	}
}
