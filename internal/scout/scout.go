// Package scout locates specialist providers for a referral. The stub
// implementation returns representative directory results without any
// network access; a production implementation would drive a provider
// directory search behind the same interface.
package scout

import (
	"context"
	"log/slog"

	"github.com/JaimeStill/caduceus/internal/sessions"
)

// System searches for specialists of the given specialty near a zip code.
type System interface {
	Search(ctx context.Context, specialty, zip, condition string) ([]sessions.SpecialistResult, error)
}

type stub struct {
	logger *slog.Logger
}

// NewStub creates the no-I/O scout. It always returns a fixed
// three-entry result set annotated with the requested specialty and
// location, never an empty slice.
func NewStub(logger *slog.Logger) System {
	return &stub{logger: logger.With("system", "scout")}
}

func (s *stub) Search(_ context.Context, specialty, zip, condition string) ([]sessions.SpecialistResult, error) {
	s.logger.Info("specialist search", "specialty", specialty, "zip", zip, "condition", condition)

	location := zip + " Area"
	rating := func(v float64) *float64 { return &v }

	return []sessions.SpecialistResult{
		{
			Name:      "Dr. Sarah Johnson, MD",
			Specialty: specialty,
			Location:  location,
			Distance:  "2.3 miles",
			Rating:    rating(4.8),
			URL:       "https://www.healthgrades.com/physician/dr-sarah-johnson",
		},
		{
			Name:      "Dr. Michael Chen, MD",
			Specialty: specialty,
			Location:  location,
			Distance:  "4.1 miles",
			Rating:    rating(4.6),
			URL:       "https://www.healthgrades.com/physician/dr-michael-chen",
		},
		{
			Name:      "Dr. Emily Rodriguez, DO",
			Specialty: specialty,
			Location:  location,
			Distance:  "5.7 miles",
			Rating:    rating(4.9),
			URL:       "https://www.healthgrades.com/physician/dr-emily-rodriguez",
		},
	}, nil
}
