package report

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/paramedia/dispatch/internal/shared/errors"
	"github.com/paramedia/dispatch/internal/shared/types"
)

// Creator identifies the personnel record demo reports are attributed to.
type Creator struct {
	ID     types.ID
	Name   string
	Shifts []string
}

// SeedDemo files a handful of demo reports attributed to the given creators,
// cycling through them. Reports whose folio already exists are skipped, so
// the seed is safe to re-run.
func (r *Repository) SeedDemo(ctx context.Context, log zerolog.Logger, creators []Creator) error {
	if len(creators) == 0 {
		return nil
	}

	now := time.Now().UTC()
	fixtures := []Report{
		{
			Folio:            1001,
			IncidentAt:       now.Add(-72 * time.Hour),
			Location:         "Av. Reforma 120, Centro",
			PostalCode:       "06600",
			ActivationMode:   ActivationC4,
			Severity:         SeverityMedium,
			ServiceTypes:     []string{"trauma"},
			TransportMinutes: 18,
			DistanceKM:       6.4,
			Outcome:          "stabilized on site, transferred to general hospital",
			Agencies:         []string{"police"},
		},
		{
			Folio:            1002,
			IncidentAt:       now.Add(-48 * time.Hour),
			Location:         "Calle Hidalgo 45",
			PostalCode:       "06040",
			ActivationMode:   ActivationDirect,
			Severity:         SeverityLow,
			ServiceTypes:     []string{"medical"},
			TransportMinutes: 0,
			DistanceKM:       0,
			Outcome:          "treated on site, no transport",
		},
		{
			Folio:            1003,
			IncidentAt:       now.Add(-36 * time.Hour),
			Location:         "Periferico Sur km 12",
			PostalCode:       "14010",
			ActivationMode:   ActivationC3,
			Severity:         SeverityHigh,
			ServiceTypes:     []string{"trauma", "extrication"},
			TransportMinutes: 32,
			DistanceKM:       14.8,
			Outcome:          "critical, transferred to trauma center",
			Agencies:         []string{"police", "firefighters"},
		},
		{
			Folio:            1004,
			IncidentAt:       now.Add(-20 * time.Hour),
			Location:         "Mercado Juarez, local 8",
			PostalCode:       "06600",
			ActivationMode:   ActivationC5,
			Severity:         SeverityLow,
			ServiceTypes:     []string{"medical"},
			TransportMinutes: 12,
			DistanceKM:       3.1,
			Outcome:          "transferred for observation",
		},
		{
			Folio:            1005,
			IncidentAt:       now.Add(-6 * time.Hour),
			Location:         "Parque Morelos, entrada norte",
			PostalCode:       "06020",
			ActivationMode:   ActivationPolice,
			Severity:         SeverityMedium,
			ServiceTypes:     []string{"medical", "psychological"},
			TransportMinutes: 22,
			DistanceKM:       7.9,
			Outcome:          "transferred, accompanied by officer",
			Agencies:         []string{"police"},
		},
	}

	seeded := 0
	for i, f := range fixtures {
		c := creators[i%len(creators)]

		rep := f
		rep.ID = types.NewID()
		rep.CreatedBy = &c.ID
		rep.ReporterName = c.Name
		rep.Shifts = c.Shifts
		if rep.Shifts == nil {
			rep.Shifts = []string{}
		}

		if err := r.Create(ctx, &rep); err != nil {
			if stderrors.Is(err, errors.ErrConflict) {
				continue
			}
			return err
		}
		seeded++
	}

	log.Info().Int("reports", seeded).Msg("seeded demo reports")
	return nil
}
