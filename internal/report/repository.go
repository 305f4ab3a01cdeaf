package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paramedia/dispatch/internal/auth"
	"github.com/paramedia/dispatch/internal/shared/errors"
	"github.com/paramedia/dispatch/internal/shared/listing"
	"github.com/paramedia/dispatch/internal/shared/metrics"
	"github.com/paramedia/dispatch/internal/shared/types"
)

const reportColumns = `id, folio, incident_at, attended_at, location, postal_code,
		activation_mode, severity, service_types, transport_minutes, distance_km,
		outcome, work_performed, affected_persons, agencies, observations, notes,
		created_by, reporter_name, shifts, created_at, updated_at`

// Repository provides database operations for the reports collection
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new report repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a report. Folio uniqueness is pre-checked for a clean 409,
// with the unique index as the backstop for the benign race.
func (r *Repository) Create(ctx context.Context, rep *Report) error {
	exists, err := r.FolioExists(ctx, rep.Folio)
	if err != nil {
		return err
	}
	if exists {
		return errors.Conflict("report with this folio already exists")
	}

	query := `
		INSERT INTO reports (
			id, folio, incident_at, attended_at, location, postal_code,
			activation_mode, severity, service_types, transport_minutes, distance_km,
			outcome, work_performed, affected_persons, agencies, observations, notes,
			created_by, reporter_name, shifts
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	start := time.Now()
	_, err = r.pool.Exec(ctx, query,
		rep.ID, rep.Folio, rep.IncidentAt, rep.AttendedAt, rep.Location, rep.PostalCode,
		rep.ActivationMode, rep.Severity, nonNil(rep.ServiceTypes), rep.TransportMinutes, rep.DistanceKM,
		rep.Outcome, nonNil(rep.WorkPerformed), nonNil(rep.AffectedPersons), nonNil(rep.Agencies), rep.Observations, rep.Notes,
		rep.CreatedBy, rep.ReporterName, nonNil(rep.Shifts),
	)
	metrics.RecordDBQuery("report_insert", time.Since(start))

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("report with this folio already exists")
		}
		return errors.Wrap(err, "failed to create report")
	}

	return nil
}

// Get retrieves a report by ID
func (r *Repository) Get(ctx context.Context, id types.ID) (*Report, error) {
	query := fmt.Sprintf(`SELECT %s FROM reports WHERE id = $1`, reportColumns)

	rep := &Report{}
	err := scanReport(r.pool.QueryRow(ctx, query, id), rep)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("report", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get report")
	}

	return rep, nil
}

// FolioExists reports whether any report carries the folio
func (r *Repository) FolioExists(ctx context.Context, folio int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reports WHERE folio = $1)`, folio).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check folio")
	}
	return exists, nil
}

// Update replaces a report's editable fields. The creator reference,
// reporter name and shift attribution are snapshots and are never touched.
// A folio change re-runs the uniqueness check.
func (r *Repository) Update(ctx context.Context, rep *Report) error {
	var current int64
	err := r.pool.QueryRow(ctx, `SELECT folio FROM reports WHERE id = $1`, rep.ID).Scan(&current)
	if err == pgx.ErrNoRows {
		return errors.NotFound("report", rep.ID.String())
	}
	if err != nil {
		return errors.Wrap(err, "failed to get report")
	}

	if current != rep.Folio {
		exists, err := r.FolioExists(ctx, rep.Folio)
		if err != nil {
			return err
		}
		if exists {
			return errors.Conflict("report with this folio already exists")
		}
	}

	query := `
		UPDATE reports SET
			folio = $2, incident_at = $3, attended_at = $4, location = $5,
			postal_code = $6, activation_mode = $7, severity = $8, service_types = $9,
			transport_minutes = $10, distance_km = $11, outcome = $12,
			work_performed = $13, affected_persons = $14, agencies = $15,
			observations = $16, notes = $17, updated_at = NOW()
		WHERE id = $1`

	start := time.Now()
	result, err := r.pool.Exec(ctx, query,
		rep.ID, rep.Folio, rep.IncidentAt, rep.AttendedAt, rep.Location,
		rep.PostalCode, rep.ActivationMode, rep.Severity, nonNil(rep.ServiceTypes),
		rep.TransportMinutes, rep.DistanceKM, rep.Outcome,
		nonNil(rep.WorkPerformed), nonNil(rep.AffectedPersons), nonNil(rep.Agencies),
		rep.Observations, rep.Notes,
	)
	metrics.RecordDBQuery("report_update", time.Since(start))

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("report with this folio already exists")
		}
		return errors.Wrap(err, "failed to update report")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("report", rep.ID.String())
	}

	return nil
}

// Delete removes a report
func (r *Repository) Delete(ctx context.Context, id types.ID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete report")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("report", id.String())
	}

	return nil
}

// List returns the page of reports visible under the scope together with the
// scoped total. Sorting and pagination apply within the filtered set.
func (r *Repository) List(ctx context.Context, scope auth.Scope, page listing.Params) ([]Report, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	switch scope.Tier {
	case auth.TierOwn:
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", argNum))
		args = append(args, scope.UserID)
		argNum++
	case auth.TierShift:
		conditions = append(conditions, fmt.Sprintf("shifts && $%d", argNum))
		args = append(args, scope.Shifts)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM reports %s", whereClause)
	var total int
	start := time.Now()
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count reports")
	}

	orderColumn, ok := sortColumns[page.SortField]
	if !ok {
		orderColumn = "incident_at"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM reports
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d`, reportColumns, whereClause, orderColumn, page.Direction(), argNum, argNum+1)

	args = append(args, page.Limit(), page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list reports")
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var rep Report
		if err := scanReport(rows, &rep); err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan report")
		}
		reports = append(reports, rep)
	}
	metrics.RecordDBQuery("report_list", time.Since(start))

	return reports, total, nil
}

// nonNil maps a nil slice to an empty one; the array columns are NOT NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner, rep *Report) error {
	return row.Scan(
		&rep.ID, &rep.Folio, &rep.IncidentAt, &rep.AttendedAt, &rep.Location, &rep.PostalCode,
		&rep.ActivationMode, &rep.Severity, &rep.ServiceTypes, &rep.TransportMinutes, &rep.DistanceKM,
		&rep.Outcome, &rep.WorkPerformed, &rep.AffectedPersons, &rep.Agencies, &rep.Observations, &rep.Notes,
		&rep.CreatedBy, &rep.ReporterName, &rep.Shifts, &rep.CreatedAt, &rep.UpdatedAt,
	)
}
