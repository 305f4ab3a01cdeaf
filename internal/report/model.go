package report

import (
	"time"

	"github.com/paramedia/dispatch/internal/shared/types"
)

// Activation modes: how the service was dispatched to the incident.
const (
	ActivationC3     = "C3"
	ActivationC4     = "C4"
	ActivationC5     = "C5"
	ActivationPolice = "police"
	ActivationDirect = "direct"
	ActivationOther  = "other"
)

// Severity levels.
const (
	SeverityLow    = 0
	SeverityMedium = 1
	SeverityHigh   = 2
)

// Report is an incident report. CreatedBy, ReporterName and Shifts are
// snapshots taken when the report is filed: the creator reference never
// changes, and shift attribution does not follow later roster changes.
type Report struct {
	ID               types.ID   `json:"id"`
	Folio            int64      `json:"folio"`
	IncidentAt       time.Time  `json:"incident_at"`
	AttendedAt       *time.Time `json:"attended_at,omitempty"`
	Location         string     `json:"location"`
	PostalCode       string     `json:"postal_code,omitempty"`
	ActivationMode   string     `json:"activation_mode"`
	Severity         int        `json:"severity"`
	ServiceTypes     []string   `json:"service_types"`
	TransportMinutes int        `json:"transport_minutes"`
	DistanceKM       float64    `json:"distance_km"`
	Outcome          string     `json:"outcome,omitempty"`
	WorkPerformed    []string   `json:"work_performed,omitempty"`
	AffectedPersons  []string   `json:"affected_persons,omitempty"`
	Agencies         []string   `json:"agencies,omitempty"`
	Observations     string     `json:"observations,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	CreatedBy        *types.ID  `json:"created_by,omitempty"`
	ReporterName     string     `json:"reporter_name,omitempty"`
	Shifts           []string   `json:"shifts"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ReportRequest is the request body for creating or updating a report. The
// same required fields apply to both; creator and shift snapshots are never
// read from the body.
type ReportRequest struct {
	Folio            int64      `json:"folio"`
	IncidentAt       time.Time  `json:"incident_at"`
	AttendedAt       *time.Time `json:"attended_at"`
	Location         string     `json:"location"`
	PostalCode       string     `json:"postal_code"`
	ActivationMode   string     `json:"activation_mode"`
	Severity         int        `json:"severity"`
	ServiceTypes     []string   `json:"service_types"`
	TransportMinutes int        `json:"transport_minutes"`
	DistanceKM       float64    `json:"distance_km"`
	Outcome          string     `json:"outcome"`
	WorkPerformed    []string   `json:"work_performed"`
	AffectedPersons  []string   `json:"affected_persons"`
	Agencies         []string   `json:"agencies"`
	Observations     string     `json:"observations"`
	Notes            string     `json:"notes"`
}

var activationModes = map[string]bool{
	ActivationC3:     true,
	ActivationC4:     true,
	ActivationC5:     true,
	ActivationPolice: true,
	ActivationDirect: true,
	ActivationOther:  true,
}

// Validate returns per-field problems, empty when the request is valid.
func (r ReportRequest) Validate() map[string]string {
	details := make(map[string]string)

	if r.Folio <= 0 {
		details["folio"] = "folio is required and must be positive"
	}
	if r.IncidentAt.IsZero() {
		details["incident_at"] = "incident_at is required"
	}
	if r.Location == "" {
		details["location"] = "location is required"
	}
	if r.ActivationMode == "" {
		details["activation_mode"] = "activation_mode is required"
	} else if !activationModes[r.ActivationMode] {
		details["activation_mode"] = "activation_mode must be one of C3, C4, C5, police, direct, other"
	}
	if r.Severity < SeverityLow || r.Severity > SeverityHigh {
		details["severity"] = "severity must be 0 (low), 1 (medium) or 2 (high)"
	}
	if len(r.ServiceTypes) == 0 {
		details["service_types"] = "at least one service type is required"
	}
	if r.TransportMinutes < 0 {
		details["transport_minutes"] = "transport_minutes must not be negative"
	}
	if r.DistanceKM < 0 {
		details["distance_km"] = "distance_km must not be negative"
	}

	return details
}

// sortColumns whitelists the API sort fields against their columns.
var sortColumns = map[string]string{
	"id":              "id",
	"folio":           "folio",
	"incident_at":     "incident_at",
	"attended_at":     "attended_at",
	"location":        "location",
	"postal_code":     "postal_code",
	"activation_mode": "activation_mode",
	"severity":        "severity",
	"outcome":         "outcome",
	"reporter_name":   "reporter_name",
	"created_at":      "created_at",
}
