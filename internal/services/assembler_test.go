package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orsreshef/travel-route-planner/internal/domain"
)

func dayResult(distanceKm, durationMin float64, path ...domain.Coordinate) SearchResult {
	return SearchResult{
		Route: domain.CandidateRoute{
			Profile:        domain.ProfileCyclingRoad,
			Path:           path,
			DistanceKm:     distanceKm,
			DurationMin:    durationMin,
			ElevationGainM: 100,
		},
		Attempts: make([]domain.SearchAttempt, 2),
	}
}

func TestAssembleWalking(t *testing.T) {
	a, b := domain.Coordinate{Lat: 45, Lng: 7}, domain.Coordinate{Lat: 45.01, Lng: 7.01}
	res := SearchResult{
		Route:    domain.CandidateRoute{Profile: domain.ProfileFootWalking, Path: []domain.Coordinate{a, b, a}, DistanceKm: 9.5, DurationMin: 114},
		Attempts: make([]domain.SearchAttempt, 3),
	}

	out, err := AssembleWalking("id-1", walkingGoal(), res)
	require.NoError(t, err)

	assert.Equal(t, "id-1", out.ID)
	assert.False(t, out.IsMultiDay)
	assert.Empty(t, out.DayPlans)
	assert.Equal(t, out.Path[0], out.Path[len(out.Path)-1])
	assert.Equal(t, a, out.StartPoint)
	assert.Equal(t, a, out.EndPoint)
	assert.Equal(t, 9.5, out.DistanceKm)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, 10.0, out.TargetDistanceKm)
}

func TestAssembleWalking_RejectsEmptyPath(t *testing.T) {
	_, err := AssembleWalking("id", walkingGoal(), SearchResult{})
	assert.ErrorIs(t, err, ErrIncompleteRoute)
}

func TestAssembleCycling_ContinuityAndTotals(t *testing.T) {
	s, m, e := domain.Coordinate{Lat: 45, Lng: 7}, domain.Coordinate{Lat: 45.2, Lng: 7.1}, domain.Coordinate{Lat: 45.1, Lng: 7.4}
	day1 := dayResult(38, 120, s, domain.Coordinate{Lat: 45.1, Lng: 7.05}, m)
	day2 := dayResult(41, 130, m, e)
	day2.Settled = true

	goal := domain.NewSearchGoal(domain.ActivityCycling, 40, 8)
	out, err := AssembleCycling("id-2", goal, day1, day2)
	require.NoError(t, err)

	assert.True(t, out.IsMultiDay)
	require.Len(t, out.DayPlans, 2)
	assert.Equal(t, out.DayPlans[0].EndPoint, out.DayPlans[1].StartPoint)
	assert.Equal(t, 1, out.DayPlans[0].DayNumber)
	assert.Equal(t, 2, out.DayPlans[1].DayNumber)
	assert.Len(t, out.DayPlans[0].Path, 3)
	assert.Len(t, out.DayPlans[1].Path, 2)

	assert.Equal(t, []domain.Coordinate{s, {Lat: 45.1, Lng: 7.05}, m, e}, out.Path)
	assert.Equal(t, 79.0, out.DistanceKm)
	assert.Equal(t, 250.0, out.DurationMin)
	assert.Equal(t, 200.0, out.ElevationGainM)
	assert.Equal(t, 80.0, out.TargetDistanceKm)
	assert.Equal(t, 4, out.Attempts)
	assert.True(t, out.Settled)
	assert.Equal(t, s, out.StartPoint)
	assert.Equal(t, e, out.EndPoint)
}

func TestAssembleCycling_RequiresTwoDays(t *testing.T) {
	goal := domain.NewSearchGoal(domain.ActivityCycling, 40, 8)
	_, err := AssembleCycling("id", goal, dayResult(40, 100, domain.Coordinate{Lat: 1, Lng: 1}, domain.Coordinate{Lat: 1.1, Lng: 1}))
	assert.ErrorIs(t, err, ErrIncompleteRoute)
}
