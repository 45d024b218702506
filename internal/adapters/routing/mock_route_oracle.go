package routing

import (
	"context"
	"sync"

	"github.com/orsreshef/travel-route-planner/internal/domain"
)

// MockStep is one scripted provider answer. Either Err is returned, or a
// route of DistanceKm whose path runs through the requested waypoints.
type MockStep struct {
	DistanceKm  float64
	DurationMin float64
	Err         error
	// Path overrides the waypoint-derived path when set.
	Path []domain.Coordinate
}

// MockRouteOracle replays Steps in order and repeats the last one once the
// script runs out. It records every call for assertions.
type MockRouteOracle struct {
	mu    sync.Mutex
	steps []MockStep
	calls []MockCall
}

type MockCall struct {
	Waypoints domain.WaypointSet
	Profile   domain.Profile
}

func NewMockRouteOracle(steps ...MockStep) *MockRouteOracle {
	return &MockRouteOracle{steps: steps}
}

func (m *MockRouteOracle) Name() string { return "mock" }

func (m *MockRouteOracle) Route(ctx context.Context, waypoints domain.WaypointSet, profile domain.Profile) (domain.CandidateRoute, error) {
	if err := ctx.Err(); err != nil {
		return domain.CandidateRoute{}, err
	}

	m.mu.Lock()
	idx := len(m.calls)
	m.calls = append(m.calls, MockCall{Waypoints: waypoints, Profile: profile})
	var step MockStep
	if len(m.steps) > 0 {
		step = m.steps[min(idx, len(m.steps)-1)]
	}
	m.mu.Unlock()

	if step.Err != nil {
		return domain.CandidateRoute{}, step.Err
	}

	path := step.Path
	if path == nil {
		path = waypoints.Points()
	}
	duration := step.DurationMin
	if duration == 0 {
		duration = step.DistanceKm * 12
	}

	return domain.CandidateRoute{
		Waypoints:   waypoints,
		Profile:     profile,
		Path:        path,
		DistanceKm:  step.DistanceKm,
		DurationMin: duration,
	}, nil
}

// Calls returns a copy of the recorded calls.
func (m *MockRouteOracle) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockRouteOracle) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
