package user

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

const userColumns = `id, first_name, last_name, birth_date, registered_at, phone, email,
		curp, address, role, shifts, permissions, password_hash,
		added_by, removed_by, created_at, updated_at`

// Repository provides database operations for the users collection
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new user repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a user. Email uniqueness is pre-checked for a clean 409,
// with the unique index as the backstop for the benign race.
func (r *Repository) Create(ctx context.Context, u *User) error {
	exists, err := r.EmailExists(ctx, u.Email)
	if err != nil {
		return err
	}
	if exists {
		return errors.Conflict("user with this email already exists")
	}

	query := `
		INSERT INTO users (
			id, first_name, last_name, birth_date, registered_at, phone, email,
			curp, address, role, shifts, permissions, password_hash, added_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	start := time.Now()
	_, err = r.pool.Exec(ctx, query,
		u.ID, u.FirstName, u.LastName, u.BirthDate, u.RegisteredAt, u.Phone, u.Email,
		u.CURP, u.Address, u.Role, u.Shifts, u.Permissions, u.PasswordHash, u.AddedBy,
	)
	metrics.RecordDBQuery("user_insert", time.Since(start))

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("user with this email already exists")
		}
		return errors.Wrap(err, "failed to create user")
	}

	return nil
}

// Get retrieves a user by ID
func (r *Repository) Get(ctx context.Context, id types.ID) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)

	u := &User{}
	err := scanUser(r.pool.QueryRow(ctx, query, id), u)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("user", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}

	return u, nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)

	u := &User{}
	err := scanUser(r.pool.QueryRow(ctx, query, email), u)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("user", email)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user by email")
	}

	return u, nil
}

// EmailExists reports whether any user has the email
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check email")
	}
	return exists, nil
}

// Count returns the total number of users
func (r *Repository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return 0, errors.Wrap(err, "failed to count users")
	}
	return total, nil
}

// Update replaces a user's stored fields. The permission set is written as
// given: it is stored independently from the role and the two may diverge.
func (r *Repository) Update(ctx context.Context, u *User) error {
	query := `
		UPDATE users SET
			first_name = $2, last_name = $3, birth_date = $4, phone = $5,
			email = $6, curp = $7, address = $8, role = $9, shifts = $10,
			permissions = $11, password_hash = $12, updated_at = NOW()
		WHERE id = $1`

	start := time.Now()
	result, err := r.pool.Exec(ctx, query,
		u.ID, u.FirstName, u.LastName, u.BirthDate, u.Phone,
		u.Email, u.CURP, u.Address, u.Role, u.Shifts,
		u.Permissions, u.PasswordHash,
	)
	metrics.RecordDBQuery("user_update", time.Since(start))

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("user with this email already exists")
		}
		return errors.Wrap(err, "failed to update user")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("user", u.ID.String())
	}

	return nil
}

// Delete removes a user. Already-issued tokens stay verifiable until
// expiry, but every later permission check for this user fails with
// not-found.
func (r *Repository) Delete(ctx context.Context, id types.ID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete user")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("user", id.String())
	}

	return nil
}

// List returns the page of users visible under the scope together with the
// scoped total. Sorting and pagination apply within the filtered set.
func (r *Repository) List(ctx context.Context, scope auth.Scope, page listing.Params) ([]User, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	switch scope.Tier {
	case auth.TierShift:
		conditions = append(conditions, fmt.Sprintf("(shifts && $%d OR id = $%d)", argNum, argNum+1))
		args = append(args, scope.Shifts, scope.UserID)
		argNum += 2
	case auth.TierOwn:
		conditions = append(conditions, fmt.Sprintf("id = $%d", argNum))
		args = append(args, scope.UserID)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM users %s", whereClause)
	var total int
	start := time.Now()
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count users")
	}

	orderColumn, ok := sortColumns[page.SortField]
	if !ok {
		orderColumn = "last_name"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d`, userColumns, whereClause, orderColumn, page.Direction(), argNum, argNum+1)

	args = append(args, page.Limit(), page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list users")
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := scanUser(rows, &u); err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan user")
		}
		users = append(users, u)
	}
	metrics.RecordDBQuery("user_list", time.Since(start))

	return users, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, u *User) error {
	return row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.BirthDate, &u.RegisteredAt, &u.Phone, &u.Email,
		&u.CURP, &u.Address, &u.Role, &u.Shifts, &u.Permissions, &u.PasswordHash,
		&u.AddedBy, &u.RemovedBy, &u.CreatedAt, &u.UpdatedAt,
	)
}

// Directory adapts the repository to the auth identity lookup. Identities
// are re-read per request so permission edits apply to outstanding tokens.
type Directory struct {
	repo *Repository
}

// NewDirectory creates the auth directory over the user repository
func NewDirectory(repo *Repository) *Directory {
	return &Directory{repo: repo}
}

// Identity loads the identity for a user ID
func (d *Directory) Identity(ctx context.Context, id types.ID) (*auth.Identity, error) {
	u, err := d.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return &auth.Identity{
		ID:          u.ID,
		Name:        u.FullName(),
		Role:        u.Role,
		Shifts:      u.Shifts,
		Permissions: u.Permissions,
	}, nil
}
