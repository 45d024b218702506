package domain

import (
	"errors"
	"math"
	"testing"
)

func TestCoordinateValidate(t *testing.T) {
	cases := []struct {
		name string
		c    Coordinate
		ok   bool
	}{
		{"rome", Coordinate{Lat: 41.9, Lng: 12.5}, true},
		{"poles and antimeridian", Coordinate{Lat: -90, Lng: 180}, true},
		{"zero sentinel", Coordinate{}, false},
		{"nan", Coordinate{Lat: math.NaN(), Lng: 12.5}, false},
		{"inf", Coordinate{Lat: 41.9, Lng: math.Inf(1)}, false},
		{"lat out of range", Coordinate{Lat: 91, Lng: 0.1}, false},
		{"lng out of range", Coordinate{Lat: 1, Lng: -180.5}, false},
	}

	for _, tc := range cases {
		err := tc.c.Validate()
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidCoordinate) {
			t.Errorf("%s: expected ErrInvalidCoordinate, got %v", tc.name, err)
		}
	}
}

func TestWaypointSetIsACopy(t *testing.T) {
	pts := []Coordinate{{Lat: 41.9, Lng: 12.5}, {Lat: 42.0, Lng: 12.6}}

	w, err := NewWaypointSet(350, pts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pts[0].Lat = 10
	w.Points()[1].Lat = 10

	if w.First().Lat != 41.9 || w.Last().Lat != 42.0 {
		t.Fatalf("waypoint set was mutated: %v", w.Points())
	}
	if w.SnapRadiusM() != 350 {
		t.Fatalf("expected snap radius 350, got %v", w.SnapRadiusM())
	}
}

func TestWaypointSetRejectsBadInput(t *testing.T) {
	if _, err := NewWaypointSet(0, Coordinate{Lat: 41.9, Lng: 12.5}); err == nil {
		t.Fatal("expected error for a single point")
	}
	if _, err := NewWaypointSet(0, Coordinate{Lat: 41.9, Lng: 12.5}, Coordinate{}); !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
}

func TestNewSearchGoalBands(t *testing.T) {
	g := NewSearchGoal(ActivityWalking, 10, DefaultMaxAttempts)

	if g.Ideal != (DistanceRange{MinKm: 5, MaxKm: 15}) {
		t.Fatalf("unexpected ideal range %s", g.Ideal)
	}
	if g.Acceptable != (DistanceRange{MinKm: 3, MaxKm: 20}) {
		t.Fatalf("unexpected acceptable range %s", g.Acceptable)
	}
	if !g.ClosedLoop {
		t.Fatal("walking goals must require a closed loop")
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := NewSearchGoal(ActivityCycling, 40, DefaultMaxAttempts)
	if c.ClosedLoop || c.Profiles[0] != ProfileCyclingRoad {
		t.Fatalf("unexpected cycling goal %+v", c)
	}
}

func TestSearchGoalValidate(t *testing.T) {
	wide := NewSearchGoal(ActivityWalking, 10, 8)
	wide.Ideal.MaxKm = 30

	cases := map[string]SearchGoal{
		"zero target":  NewSearchGoal(ActivityWalking, 0, 8),
		"nan target":   NewSearchGoal(ActivityWalking, math.NaN(), 8),
		"no attempts":  NewSearchGoal(ActivityWalking, 10, 0),
		"unknown mode": NewSearchGoal(Activity("rowing"), 10, 8),
		"ideal wider":  wide,
	}

	for name, g := range cases {
		pe, ok := AsPlanError(g.Validate())
		if !ok || pe.Kind != FailureInvalidGoal {
			t.Errorf("%s: expected invalid_goal, got %v", name, g.Validate())
		}
	}
}

func TestPlanErrorMessage(t *testing.T) {
	err := &PlanError{Kind: FailureExhausted, HasBest: true, BestDistanceKm: 31.5, Attempts: 8, Day: 2}
	want := "day 2: exhausted_search (closest distance 31.50 km after 8 attempts)"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}
