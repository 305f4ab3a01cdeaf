// Package auth provides token issuing/verification, permission evaluation,
// and the visibility scoping that bounds every collection query to the
// records a user is entitled to see.
package auth

import (
	"context"

	"github.com/paramedia/dispatch/internal/shared/types"
)

// Permission strings. Checks are case- and string-exact; there is no
// hierarchy or prefix matching. PermAll grants everything.
const (
	PermAll = "*"

	PermViewReports     = "view_reports"
	PermViewMyReports   = "view_my_reports"
	PermViewTurnReports = "view_turn_reports"
	PermCreateReports   = "create_reports"
	PermEditReports     = "edit_reports"
	PermDeleteReports   = "delete_reports"

	PermViewUsers     = "view_users"
	PermViewTurnUsers = "view_turn_users"
	PermCreateUsers   = "create_users"
	PermEditUsers     = "edit_users"
	PermDeleteUsers   = "delete_users"
)

// Roles. The role field is an open-ended string in practice; these are the
// values the admin panel offers.
const (
	RoleAdmin       = "admin"
	RoleTurnChief   = "turnchief"
	RoleParamedic   = "paramedic"
	RoleDispatcher  = "dispatcher"
	RoleCoordinator = "coordinator"
)

// DefaultPermissions maps a role to the permission set granted when a user
// is created without an explicit one. The stored permission set is an
// independent field afterwards and may be edited away from these defaults;
// it is never re-derived from the role at read time.
var DefaultPermissions = map[string][]string{
	RoleAdmin:       {PermAll},
	RoleTurnChief:   {PermViewTurnReports, PermViewTurnUsers, PermViewMyReports, PermCreateReports},
	RoleParamedic:   {PermViewMyReports, PermCreateReports},
	RoleDispatcher:  {PermViewReports, PermCreateReports},
	RoleCoordinator: {PermViewReports, PermViewUsers},
}

// DefaultPermissionsFor returns a copy of the default permission set for a
// role; unknown roles get no permissions.
func DefaultPermissionsFor(role string) []string {
	defaults, ok := DefaultPermissions[role]
	if !ok {
		return []string{}
	}
	out := make([]string, len(defaults))
	copy(out, defaults)
	return out
}

// HasPermission reports whether a permission set satisfies the required
// permission: either the wildcard or the exact string.
func HasPermission(permissions []string, required string) bool {
	for _, p := range permissions {
		if p == PermAll || p == required {
			return true
		}
	}
	return false
}

// Identity is the per-request view of the authenticated user, resolved from
// the credential store after token verification. It is rebuilt on every
// request so permission and shift changes take effect immediately.
type Identity struct {
	ID          types.ID
	Name        string
	Role        string
	Shifts      []string
	Permissions []string
}

// HasPermission reports whether the identity holds the required permission.
func (i *Identity) HasPermission(required string) bool {
	return HasPermission(i.Permissions, required)
}

// Directory resolves user identifiers against the credential store. The
// user module provides the implementation; lookups fail with a not-found
// error once the user has been deleted, which makes deletion the effective
// (if delayed) revocation path for outstanding tokens.
type Directory interface {
	Identity(ctx context.Context, id types.ID) (*Identity, error)
}

// Evaluator decides allow/deny for permission checks, always against the
// stored permission set.
type Evaluator struct {
	dir Directory
}

// NewEvaluator creates a permission evaluator backed by a directory.
func NewEvaluator(dir Directory) *Evaluator {
	return &Evaluator{dir: dir}
}

// Identity loads the stored identity for a user.
func (e *Evaluator) Identity(ctx context.Context, id types.ID) (*Identity, error) {
	return e.dir.Identity(ctx, id)
}

// GetPermissions loads the stored permission set for a user.
func (e *Evaluator) GetPermissions(ctx context.Context, id types.ID) ([]string, error) {
	ident, err := e.dir.Identity(ctx, id)
	if err != nil {
		return nil, err
	}
	return ident.Permissions, nil
}

// HasPermission reports whether the user currently holds the required
// permission. The error is non-nil when the user no longer exists.
func (e *Evaluator) HasPermission(ctx context.Context, id types.ID, required string) (bool, error) {
	perms, err := e.GetPermissions(ctx, id)
	if err != nil {
		return false, err
	}
	return HasPermission(perms, required), nil
}
