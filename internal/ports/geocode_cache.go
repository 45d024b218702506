package ports

import (
	"context"

	"github.com/orsreshef/travel-route-planner/internal/domain"
)

// Persistent place-name -> coordinate cache. Keys are normalized by the caller.
type GeocodeCache interface {
	GetMany(ctx context.Context, keys []string) (map[string]domain.Coordinate, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinate) error
}
