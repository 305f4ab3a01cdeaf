package user

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/paramedia/dispatch/internal/auth"
	"github.com/paramedia/dispatch/internal/shared/errors"
	"github.com/paramedia/dispatch/internal/shared/types"
)

// EnsureAdmin guarantees the configured administrator account exists. It is
// keyed by email and idempotent, so restarts never duplicate the account or
// reset a rotated password.
func (r *Repository) EnsureAdmin(ctx context.Context, log zerolog.Logger, email, password string) error {
	_, err := r.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !stderrors.Is(err, errors.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := &User{
		ID:           types.NewID(),
		FirstName:    "System",
		LastName:     "Administrator",
		RegisteredAt: time.Now().UTC().Format("2006-01-02"),
		Email:        email,
		Role:         auth.RoleAdmin,
		Shifts:       []string{},
		Permissions:  []string{auth.PermAll},
		PasswordHash: hash,
	}

	if err := r.Create(ctx, admin); err != nil {
		// Concurrent instance got there first.
		if stderrors.Is(err, errors.ErrConflict) {
			return nil
		}
		return err
	}

	log.Info().Str("email", email).Msg("seeded default administrator")
	return nil
}

// SeedDemo loads a small roster of demo personnel into an empty store and
// returns the created users so callers can seed dependent fixtures. A store
// with existing non-admin users is left untouched.
func (r *Repository) SeedDemo(ctx context.Context, log zerolog.Logger) ([]User, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}
	if total > 1 {
		return nil, nil
	}

	fixtures := []User{
		{
			FirstName: "Laura", LastName: "Mendoza",
			Email:  "laura.mendoza@paramedia.com",
			Phone:  "555-0101",
			Role:   auth.RoleTurnChief,
			Shifts: []string{"LV-8am3pm"},
		},
		{
			FirstName: "Diego", LastName: "Ramirez",
			Email:  "diego.ramirez@paramedia.com",
			Phone:  "555-0102",
			Role:   auth.RoleParamedic,
			Shifts: []string{"LV-8am3pm", "SD-8am8pm"},
		},
		{
			FirstName: "Sofia", LastName: "Castillo",
			Email:  "sofia.castillo@paramedia.com",
			Phone:  "555-0103",
			Role:   auth.RoleParamedic,
			Shifts: []string{"LV-3pm10pm"},
		},
	}

	created := make([]User, 0, len(fixtures))
	for _, f := range fixtures {
		hash, err := auth.HashPassword("changeme123")
		if err != nil {
			return nil, fmt.Errorf("hash demo password: %w", err)
		}

		u := f
		u.ID = types.NewID()
		u.RegisteredAt = time.Now().UTC().Format("2006-01-02")
		u.Permissions = auth.DefaultPermissionsFor(u.Role)
		u.PasswordHash = hash

		if err := r.Create(ctx, &u); err != nil {
			if stderrors.Is(err, errors.ErrConflict) {
				continue
			}
			return nil, err
		}
		created = append(created, u)
	}

	log.Info().Int("users", len(created)).Msg("seeded demo personnel")
	return created, nil
}
