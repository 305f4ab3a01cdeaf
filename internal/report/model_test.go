package report

import (
	"testing"
	"time"
)

func validRequest() ReportRequest {
	return ReportRequest{
		Folio:            2001,
		IncidentAt:       time.Date(2026, 3, 14, 22, 15, 0, 0, time.UTC),
		Location:         "Av. Juarez 88",
		ActivationMode:   ActivationC4,
		Severity:         SeverityMedium,
		ServiceTypes:     []string{"trauma"},
		TransportMinutes: 15,
		DistanceKM:       5.2,
	}
}

// TestReportRequestValidate tests the required-field and range checks shared
// by create and update
func TestReportRequestValidate(t *testing.T) {
	if details := validRequest().Validate(); len(details) != 0 {
		t.Errorf("Expected valid request, got %v", details)
	}

	cases := []struct {
		name   string
		mutate func(*ReportRequest)
		field  string
	}{
		{"missing folio", func(r *ReportRequest) { r.Folio = 0 }, "folio"},
		{"negative folio", func(r *ReportRequest) { r.Folio = -5 }, "folio"},
		{"missing incident time", func(r *ReportRequest) { r.IncidentAt = time.Time{} }, "incident_at"},
		{"missing location", func(r *ReportRequest) { r.Location = "" }, "location"},
		{"missing activation mode", func(r *ReportRequest) { r.ActivationMode = "" }, "activation_mode"},
		{"unknown activation mode", func(r *ReportRequest) { r.ActivationMode = "carrier-pigeon" }, "activation_mode"},
		{"severity below range", func(r *ReportRequest) { r.Severity = -1 }, "severity"},
		{"severity above range", func(r *ReportRequest) { r.Severity = 3 }, "severity"},
		{"empty service types", func(r *ReportRequest) { r.ServiceTypes = nil }, "service_types"},
		{"negative transport minutes", func(r *ReportRequest) { r.TransportMinutes = -1 }, "transport_minutes"},
		{"negative distance", func(r *ReportRequest) { r.DistanceKM = -0.5 }, "distance_km"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)

			details := req.Validate()
			if _, ok := details[tc.field]; !ok {
				t.Errorf("Expected problem on %q, got %v", tc.field, details)
			}
		})
	}
}

// TestActivationModes tests every dispatch channel is accepted
func TestActivationModes(t *testing.T) {
	for _, mode := range []string{ActivationC3, ActivationC4, ActivationC5, ActivationPolice, ActivationDirect, ActivationOther} {
		req := validRequest()
		req.ActivationMode = mode
		if details := req.Validate(); len(details) != 0 {
			t.Errorf("Expected mode %q to validate, got %v", mode, details)
		}
	}
}

// TestSeverityBounds tests the three severity levels pass validation
func TestSeverityBounds(t *testing.T) {
	for _, sev := range []int{SeverityLow, SeverityMedium, SeverityHigh} {
		req := validRequest()
		req.Severity = sev
		if details := req.Validate(); len(details) != 0 {
			t.Errorf("Expected severity %d to validate, got %v", sev, details)
		}
	}
}
