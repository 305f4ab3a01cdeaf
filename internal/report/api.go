package report

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/paramedia/dispatch/internal/auth"
	"github.com/paramedia/dispatch/internal/shared/errors"
	"github.com/paramedia/dispatch/internal/shared/events"
	"github.com/paramedia/dispatch/internal/shared/listing"
	"github.com/paramedia/dispatch/internal/shared/metrics"
	"github.com/paramedia/dispatch/internal/shared/types"
)

// Handler provides HTTP handlers for the reports collection
type Handler struct {
	repo *Repository
	bus  *events.Bus
}

// NewHandler creates a new report handler
func NewHandler(repo *Repository, bus *events.Bus) *Handler {
	return &Handler{repo: repo, bus: bus}
}

// Register attaches the report routes. The three route families run the same
// queries under different visibility tiers: /reports sees everything,
// /my-reports only what the requester filed, /turn-reports what the
// requester's shifts are attributed.
func (h *Handler) Register(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(auth.Require("reports", auth.PermViewReports)).Get("/", h.List)
		r.With(auth.Require("reports", auth.PermCreateReports)).Post("/", h.Create)

		r.Route("/{reportID}", func(r chi.Router) {
			r.With(auth.Require("reports", auth.PermViewReports)).Get("/", h.Get)
			r.With(auth.Require("reports", auth.PermEditReports)).Put("/", h.Update)
			r.With(auth.Require("reports", auth.PermDeleteReports)).Delete("/", h.Delete)
		})
	})

	r.Route("/my-reports", func(r chi.Router) {
		r.With(auth.Require("reports", auth.PermViewMyReports)).Get("/", h.MyList)
		r.With(auth.Require("reports", auth.PermCreateReports)).Post("/", h.Create)
		r.With(auth.Require("reports", auth.PermViewMyReports)).Get("/{reportID}", h.MyGet)
	})

	r.Route("/turn-reports", func(r chi.Router) {
		r.With(auth.Require("reports", auth.PermViewTurnReports)).Get("/", h.TurnList)
		r.With(auth.Require("reports", auth.PermViewTurnReports)).Get("/{reportID}", h.TurnGet)
	})
}

// List lists all reports (global tier)
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, auth.GlobalScope())
}

// MyList lists the reports the requester filed (own tier)
func (h *Handler) MyList(w http.ResponseWriter, r *http.Request) {
	ident := auth.GetIdentity(r.Context())
	h.list(w, r, auth.OwnScope(ident.ID))
}

// TurnList lists the reports attributed to the requester's shifts (shift tier)
func (h *Handler) TurnList(w http.ResponseWriter, r *http.Request) {
	ident := auth.GetIdentity(r.Context())
	h.list(w, r, auth.ShiftScope(ident.ID, ident.Shifts))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, scope auth.Scope) {
	reports, total, err := h.repo.List(r.Context(), scope, listing.Parse(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeList(w, reports, total)
}

// Get gets a report by ID (global tier)
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.getScoped(w, r, auth.GlobalScope())
}

// MyGet gets a single report, re-checking ownership after the fetch: an
// existing report filed by someone else is forbidden, not hidden as missing.
func (h *Handler) MyGet(w http.ResponseWriter, r *http.Request) {
	ident := auth.GetIdentity(r.Context())
	h.getScoped(w, r, auth.OwnScope(ident.ID))
}

// TurnGet gets a single report, re-checking shift attribution after the fetch.
func (h *Handler) TurnGet(w http.ResponseWriter, r *http.Request) {
	ident := auth.GetIdentity(r.Context())
	h.getScoped(w, r, auth.ShiftScope(ident.ID, ident.Shifts))
}

func (h *Handler) getScoped(w http.ResponseWriter, r *http.Request, scope auth.Scope) {
	id, err := types.ParseID(chi.URLParam(r, "reportID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid report ID"))
		return
	}

	rep, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if !scope.AllowsReport(rep.CreatedBy, rep.Shifts) {
		writeError(w, errors.Authorization("report is not within your scope"))
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

// Create files a new report. The creator reference, reporter display name
// and shift attribution are snapshotted from the authenticated identity at
// this moment and never change afterwards.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if details := req.Validate(); len(details) > 0 {
		writeError(w, errors.Validation("validation failed", details))
		return
	}

	ident := auth.GetIdentity(r.Context())

	rep := &Report{
		ID:               types.NewID(),
		Folio:            req.Folio,
		IncidentAt:       req.IncidentAt,
		AttendedAt:       req.AttendedAt,
		Location:         req.Location,
		PostalCode:       req.PostalCode,
		ActivationMode:   req.ActivationMode,
		Severity:         req.Severity,
		ServiceTypes:     req.ServiceTypes,
		TransportMinutes: req.TransportMinutes,
		DistanceKM:       req.DistanceKM,
		Outcome:          req.Outcome,
		WorkPerformed:    req.WorkPerformed,
		AffectedPersons:  req.AffectedPersons,
		Agencies:         req.Agencies,
		Observations:     req.Observations,
		Notes:            req.Notes,
	}

	if ident != nil {
		rep.CreatedBy = &ident.ID
		rep.ReporterName = ident.Name
		rep.Shifts = ident.Shifts
	}
	if rep.Shifts == nil {
		rep.Shifts = []string{}
	}

	if err := h.repo.Create(r.Context(), rep); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordReportCreated(rep.ActivationMode, rep.Severity)

	if ident != nil {
		h.publish(r, "report.created", ident, map[string]any{
			"report_id": rep.ID,
			"folio":     rep.Folio,
			"severity":  rep.Severity,
		})
	}

	writeJSON(w, http.StatusCreated, rep)
}

// Update replaces a report's editable fields; snapshots stay as filed.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "reportID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid report ID"))
		return
	}

	rep, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if details := req.Validate(); len(details) > 0 {
		writeError(w, errors.Validation("validation failed", details))
		return
	}

	rep.Folio = req.Folio
	rep.IncidentAt = req.IncidentAt
	rep.AttendedAt = req.AttendedAt
	rep.Location = req.Location
	rep.PostalCode = req.PostalCode
	rep.ActivationMode = req.ActivationMode
	rep.Severity = req.Severity
	rep.ServiceTypes = req.ServiceTypes
	rep.TransportMinutes = req.TransportMinutes
	rep.DistanceKM = req.DistanceKM
	rep.Outcome = req.Outcome
	rep.WorkPerformed = req.WorkPerformed
	rep.AffectedPersons = req.AffectedPersons
	rep.Agencies = req.Agencies
	rep.Observations = req.Observations
	rep.Notes = req.Notes

	if err := h.repo.Update(r.Context(), rep); err != nil {
		writeError(w, err)
		return
	}

	if ident := auth.GetIdentity(r.Context()); ident != nil {
		h.publish(r, "report.updated", ident, map[string]any{
			"report_id": rep.ID,
			"folio":     rep.Folio,
		})
	}

	writeJSON(w, http.StatusOK, rep)
}

// Delete deletes a report
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "reportID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid report ID"))
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	if ident := auth.GetIdentity(r.Context()); ident != nil {
		h.publish(r, "report.deleted", ident, map[string]any{"report_id": id})
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) publish(r *http.Request, eventType string, ident *auth.Identity, data map[string]any) {
	if h.bus == nil {
		return
	}
	event := events.NewEvent(eventType, "reports", data).WithActor(ident.ID, ident.Name)
	h.bus.Publish(r.Context(), event)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeList writes a page as a bare array with the scoped total in
// X-Total-Count, the contract the admin frontend paginates against.
func writeList(w http.ResponseWriter, reports []Report, total int) {
	if reports == nil {
		reports = []Report{}
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	writeJSON(w, http.StatusOK, reports)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
