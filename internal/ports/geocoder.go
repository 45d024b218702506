package ports

import (
	"context"
	"errors"

	"github.com/orsreshef/travel-route-planner/internal/domain"
)

var ErrLocationNotFound = errors.New("location not found")

// Resolves a place name to a seed coordinate.
type Geocoder interface {
	// Resolve returns ErrLocationNotFound (possibly wrapped) when nothing matches.
	Resolve(ctx context.Context, country, city string) (domain.Coordinate, error)
}

// Supplies a reasonable seed city when the caller gave only a country.
type CapitalLookup interface {
	Capital(ctx context.Context, country string) (string, error)
}
