package services

import (
	"math"

	"github.com/paulmach/orb/geo"

	"github.com/orsreshef/travel-route-planner/internal/domain"
)

// LoopClosureToleranceDeg is the largest endpoint gap (≈100 m) for a path to
// count as a closed loop.
const LoopClosureToleranceDeg = 0.001

// Average speeds used when the provider duration cannot be trusted.
const (
	walkingSpeedKmh = 5.0
	cyclingSpeedKmh = 18.0
)

// Classify measures candidate against goal. It has no side effects.
func Classify(candidate domain.CandidateRoute, goal domain.SearchGoal) domain.Classification {
	valid := validPoints(candidate.Path)
	c := domain.Classification{
		DistanceKm:  candidate.DistanceKm,
		ErrorKm:     candidate.DistanceKm - goal.TargetDistanceKm,
		ValidPoints: len(valid),
	}

	if len(valid) < 2 {
		c.Verdict = domain.VerdictUnusable
		c.UnusableWhy = "fewer than 2 valid path points"
		return c
	}
	if math.IsNaN(candidate.DistanceKm) || candidate.DistanceKm <= 0 {
		c.Verdict = domain.VerdictUnusable
		c.UnusableWhy = "no measurable distance"
		return c
	}
	if goal.ClosedLoop && !isClosed(valid) {
		c.Verdict = domain.VerdictUnusable
		c.UnusableWhy = "path does not return to its start"
		return c
	}

	switch {
	case goal.Ideal.Contains(candidate.DistanceKm):
		c.Verdict = domain.VerdictWithinIdeal
	case goal.Acceptable.Contains(candidate.DistanceKm):
		c.Verdict = domain.VerdictWithinAcceptable
	case candidate.DistanceKm < goal.Acceptable.MinKm:
		c.Verdict = domain.VerdictTooShort
	default:
		c.Verdict = domain.VerdictTooLong
	}
	return c
}

// NormalizeDuration fills in distance and duration the provider could not be
// trusted for. The input is not modified.
func NormalizeDuration(candidate domain.CandidateRoute, activity domain.Activity) domain.CandidateRoute {
	out := candidate

	if out.DistanceKm <= 0 || math.IsNaN(out.DistanceKm) {
		valid := validPoints(out.Path)
		if len(valid) >= 2 {
			out.DistanceKm = geo.LengthHaversine(domain.LineString(valid)) / 1000
		}
	}

	if out.DurationSuspect || out.DurationMin <= 0 || math.IsNaN(out.DurationMin) {
		speed := walkingSpeedKmh
		if activity == domain.ActivityCycling {
			speed = cyclingSpeedKmh
		}
		out.DurationMin = out.DistanceKm / speed * 60
		out.DurationSuspect = false
	}

	return out
}

func validPoints(path []domain.Coordinate) []domain.Coordinate {
	out := make([]domain.Coordinate, 0, len(path))
	for _, p := range path {
		if p.Valid() {
			out = append(out, p)
		}
	}
	return out
}

func isClosed(path []domain.Coordinate) bool {
	first, last := path[0], path[len(path)-1]
	return math.Abs(first.Lat-last.Lat) <= LoopClosureToleranceDeg &&
		math.Abs(first.Lng-last.Lng) <= LoopClosureToleranceDeg
}
