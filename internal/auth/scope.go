package auth

import "github.com/paramedia/dispatch/internal/shared/types"

// Tier identifies which permission granted access to a collection, and
// therefore which filter bounds the query. Tiers are independent: a user may
// hold several, and the route invoked decides which one applies; there is
// no "most permissive" merge.
type Tier int

const (
	// TierGlobal applies no filter; the full collection is visible.
	TierGlobal Tier = iota
	// TierOwn restricts to records created by the requesting user.
	TierOwn
	// TierShift restricts to records whose shift attribution intersects the
	// requesting user's current shift assignments.
	TierShift
)

// Scope bounds a collection query to the permitted subset of records. It is
// interpreted by the repositories when building filters, and re-checked
// post-fetch for single-record reads.
type Scope struct {
	Tier   Tier
	UserID types.ID
	Shifts []string
}

// GlobalScope makes the full collection visible.
func GlobalScope() Scope {
	return Scope{Tier: TierGlobal}
}

// OwnScope restricts to the user's own records.
func OwnScope(userID types.ID) Scope {
	return Scope{Tier: TierOwn, UserID: userID}
}

// ShiftScope restricts to records attributed to the user's current shifts.
func ShiftScope(userID types.ID, shifts []string) Scope {
	return Scope{Tier: TierShift, UserID: userID, Shifts: shifts}
}

// ReportShiftVisible reports whether a report's shift attribution makes it
// visible to a viewer with the given shift assignments. A report carries a
// snapshot of the shifts its creator was assigned when it was filed (a
// single code in legacy data, normalized to a one-element list); it is
// visible when any snapshot entry is among the viewer's assignments.
//
// The snapshot is fixed at creation, so later changes to the creator's
// assignments never change which shift sees the report.
func ReportShiftVisible(reportShifts, viewerShifts []string) bool {
	for _, rs := range reportShifts {
		for _, vs := range viewerShifts {
			if rs == vs {
				return true
			}
		}
	}
	return false
}

// ShiftsIntersect reports whether two users share at least one shift
// assignment. Unlike the report direction this comparison is symmetric:
// both sides carry full assignment lists.
func ShiftsIntersect(a, b []string) bool {
	for _, sa := range a {
		for _, sb := range b {
			if sa == sb {
				return true
			}
		}
	}
	return false
}

// AllowsReport re-checks a fetched report against the scope. Single-record
// endpoints call this after the identifier resolved; a false result means
// the record exists but is out of scope (403, not 404).
func (s Scope) AllowsReport(createdBy *types.ID, reportShifts []string) bool {
	switch s.Tier {
	case TierGlobal:
		return true
	case TierOwn:
		return createdBy != nil && *createdBy == s.UserID
	case TierShift:
		return ReportShiftVisible(reportShifts, s.Shifts)
	}
	return false
}

// AllowsUser re-checks a fetched user record against the scope.
func (s Scope) AllowsUser(userID types.ID, userShifts []string) bool {
	switch s.Tier {
	case TierGlobal:
		return true
	case TierOwn:
		return userID == s.UserID
	case TierShift:
		return userID == s.UserID || ShiftsIntersect(userShifts, s.Shifts)
	}
	return false
}
