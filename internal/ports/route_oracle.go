package ports

import (
	"context"

	"github.com/orsreshef/travel-route-planner/internal/domain"
)

// Contract for turning an ordered waypoint list into a routed path.
type RouteOracle interface {
	// Route returns a fully populated candidate or a *domain.OracleError.
	// Context cancellation is returned as the context error.
	Route(ctx context.Context, waypoints domain.WaypointSet, profile domain.Profile) (domain.CandidateRoute, error)
	// Name identifies the provider for rate limiting and metrics.
	Name() string
}
