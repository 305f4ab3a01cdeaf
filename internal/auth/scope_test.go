package auth

import (
	"testing"

	"github.com/paramedia/dispatch/internal/shared/types"
)

// TestHasPermission tests wildcard and exact permission matching
func TestHasPermission(t *testing.T) {
	cases := []struct {
		name        string
		permissions []string
		required    string
		want        bool
	}{
		{"exact match", []string{PermViewReports}, PermViewReports, true},
		{"wildcard grants everything", []string{PermAll}, PermDeleteUsers, true},
		{"missing permission", []string{PermViewMyReports}, PermViewReports, false},
		{"no prefix matching", []string{"view_reports_extra"}, PermViewReports, false},
		{"case sensitive", []string{"VIEW_REPORTS"}, PermViewReports, false},
		{"empty set", []string{}, PermViewReports, false},
		{"nil set", nil, PermViewReports, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasPermission(tc.permissions, tc.required); got != tc.want {
				t.Errorf("HasPermission(%v, %q) = %v, want %v", tc.permissions, tc.required, got, tc.want)
			}
		})
	}
}

// TestDefaultPermissionsFor tests role defaults and copy semantics
func TestDefaultPermissionsFor(t *testing.T) {
	admin := DefaultPermissionsFor(RoleAdmin)
	if len(admin) != 1 || admin[0] != PermAll {
		t.Errorf("Expected admin defaults [*], got %v", admin)
	}

	unknown := DefaultPermissionsFor("janitor")
	if len(unknown) != 0 {
		t.Errorf("Expected no permissions for unknown role, got %v", unknown)
	}

	// Mutating the returned slice must not change the defaults.
	paramedic := DefaultPermissionsFor(RoleParamedic)
	paramedic[0] = "tampered"
	if DefaultPermissions[RoleParamedic][0] == "tampered" {
		t.Error("DefaultPermissionsFor returned the shared backing slice")
	}
}

// TestReportShiftVisible tests the report-to-viewer shift comparison
func TestReportShiftVisible(t *testing.T) {
	cases := []struct {
		name         string
		reportShifts []string
		viewerShifts []string
		want         bool
	}{
		{"shared shift", []string{"LV-8am3pm"}, []string{"LV-8am3pm", "SD-8am8pm"}, true},
		{"no overlap", []string{"LV-3pm10pm"}, []string{"LV-8am3pm"}, false},
		{"empty report attribution", []string{}, []string{"LV-8am3pm"}, false},
		{"viewer with no shifts", []string{"LV-8am3pm"}, []string{}, false},
		{"multi-shift report", []string{"LV-8am3pm", "SD-8am8pm"}, []string{"SD-8am8pm"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ReportShiftVisible(tc.reportShifts, tc.viewerShifts); got != tc.want {
				t.Errorf("ReportShiftVisible(%v, %v) = %v, want %v", tc.reportShifts, tc.viewerShifts, got, tc.want)
			}
		})
	}
}

// TestShiftsIntersect tests that the user comparison is symmetric
func TestShiftsIntersect(t *testing.T) {
	a := []string{"LV-8am3pm", "LV-3pm10pm"}
	b := []string{"LV-3pm10pm"}

	if !ShiftsIntersect(a, b) || !ShiftsIntersect(b, a) {
		t.Error("Expected intersection in both directions")
	}

	if ShiftsIntersect(a, []string{"SD-8am8pm"}) {
		t.Error("Expected no intersection")
	}
}

// TestScopeAllowsReport tests post-fetch re-checks per visibility tier
func TestScopeAllowsReport(t *testing.T) {
	viewer := types.NewID()
	other := types.NewID()

	cases := []struct {
		name         string
		scope        Scope
		createdBy    *types.ID
		reportShifts []string
		want         bool
	}{
		{"global sees all", GlobalScope(), &other, nil, true},
		{"own allows creator", OwnScope(viewer), &viewer, nil, true},
		{"own denies other creator", OwnScope(viewer), &other, nil, false},
		{"own denies seeded report", OwnScope(viewer), nil, nil, false},
		{"shift allows attributed", ShiftScope(viewer, []string{"LV-8am3pm"}), &other, []string{"LV-8am3pm"}, true},
		{"shift denies unattributed", ShiftScope(viewer, []string{"LV-8am3pm"}), &other, []string{"SD-8am8pm"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.scope.AllowsReport(tc.createdBy, tc.reportShifts); got != tc.want {
				t.Errorf("AllowsReport = %v, want %v", got, tc.want)
			}
		})
	}
}

// TestScopeAllowsUser tests the user-record re-check, including the
// requester always seeing their own record under the shift tier
func TestScopeAllowsUser(t *testing.T) {
	viewer := types.NewID()
	other := types.NewID()

	cases := []struct {
		name       string
		scope      Scope
		userID     types.ID
		userShifts []string
		want       bool
	}{
		{"global sees all", GlobalScope(), other, nil, true},
		{"shift allows shift-mate", ShiftScope(viewer, []string{"LV-8am3pm"}), other, []string{"LV-8am3pm"}, true},
		{"shift denies stranger", ShiftScope(viewer, []string{"LV-8am3pm"}), other, []string{"LV-3pm10pm"}, false},
		{"shift allows self without overlap", ShiftScope(viewer, []string{"LV-8am3pm"}), viewer, []string{}, true},
		{"own allows self", OwnScope(viewer), viewer, nil, true},
		{"own denies other", OwnScope(viewer), other, nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.scope.AllowsUser(tc.userID, tc.userShifts); got != tc.want {
				t.Errorf("AllowsUser = %v, want %v", got, tc.want)
			}
		})
	}
}
