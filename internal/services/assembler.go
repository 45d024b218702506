package services

import (
	"errors"
	"fmt"

	"github.com/orsreshef/travel-route-planner/internal/domain"
)

var ErrIncompleteRoute = errors.New("incomplete route")

// AssembleWalking maps one accepted loop to a single-day result.
func AssembleWalking(id string, goal domain.SearchGoal, res SearchResult) (domain.RouteResult, error) {
	path := validPoints(res.Route.Path)
	if len(path) < 2 {
		return domain.RouteResult{}, fmt.Errorf("assemble walking: %w: path has %d points", ErrIncompleteRoute, len(path))
	}

	return domain.RouteResult{
		ID:               id,
		Activity:         goal.Activity,
		Profile:          res.Route.Profile,
		TargetDistanceKm: goal.TargetDistanceKm,
		DistanceKm:       res.Route.DistanceKm,
		DurationMin:      res.Route.DurationMin,
		ElevationGainM:   res.Route.ElevationGainM,
		Path:             path,
		StartPoint:       path[0],
		EndPoint:         path[len(path)-1],
		Attempts:         len(res.Attempts),
		Settled:          res.Settled,
	}, nil
}

// AssembleCycling joins consecutive day searches into one multi-day result.
// Each day keeps its own path; the combined path drops the duplicated junction
// point. Day n+1 starts exactly where day n ended.
func AssembleCycling(id string, goal domain.SearchGoal, days ...SearchResult) (domain.RouteResult, error) {
	if len(days) < 2 {
		return domain.RouteResult{}, fmt.Errorf("assemble cycling: %w: need 2 days, got %d", ErrIncompleteRoute, len(days))
	}

	out := domain.RouteResult{
		ID:               id,
		Activity:         goal.Activity,
		Profile:          days[0].Route.Profile,
		TargetDistanceKm: goal.TargetDistanceKm * float64(len(days)),
		IsMultiDay:       true,
		DayPlans:         make([]domain.DayPlan, 0, len(days)),
	}

	for i, day := range days {
		path := validPoints(day.Route.Path)
		if len(path) < 2 {
			return domain.RouteResult{}, fmt.Errorf("assemble cycling: day %d: %w: path has %d points", i+1, ErrIncompleteRoute, len(path))
		}

		plan := domain.DayPlan{
			DayNumber:   i + 1,
			DistanceKm:  day.Route.DistanceKm,
			DurationMin: day.Route.DurationMin,
			StartPoint:  path[0],
			EndPoint:    path[len(path)-1],
			Path:        path,
		}

		if i == 0 {
			out.Path = append(out.Path, path...)
		} else {
			plan.StartPoint = out.DayPlans[i-1].EndPoint
			joined := path
			if joined[0] == plan.StartPoint {
				joined = joined[1:]
			}
			out.Path = append(out.Path, joined...)
		}

		out.DayPlans = append(out.DayPlans, plan)
		out.DistanceKm += day.Route.DistanceKm
		out.DurationMin += day.Route.DurationMin
		out.ElevationGainM += day.Route.ElevationGainM
		out.Attempts += len(day.Attempts)
		out.Settled = out.Settled || day.Settled
	}

	out.StartPoint = out.DayPlans[0].StartPoint
	out.EndPoint = out.DayPlans[len(out.DayPlans)-1].EndPoint
	return out, nil
}
