package dto

import "github.com/orsreshef/travel-route-planner/internal/domain"

// PlanRouteRequest is accepted as a JSON body (POST) or as query parameters (GET).
type PlanRouteRequest struct {
	Country          string  `json:"country" form:"country" binding:"required"`
	City             string  `json:"city" form:"city"`
	Activity         string  `json:"activity" form:"activity" binding:"required,oneof=walking cycling"`
	TargetDistanceKm float64 `json:"target_distance_km" form:"target_distance_km" binding:"omitempty,gt=0"`
	Seed             uint64  `json:"seed" form:"seed"`
}

type CoordinateResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type DayPlanResponse struct {
	DayNumber   int                  `json:"day_number"`
	DistanceKm  float64              `json:"distance_km"`
	DurationMin float64              `json:"duration_min"`
	StartPoint  CoordinateResponse   `json:"start_point"`
	EndPoint    CoordinateResponse   `json:"end_point"`
	Path        []CoordinateResponse `json:"path"`
}

type RouteResponse struct {
	ID               string               `json:"id"`
	Activity         string               `json:"activity"`
	Profile          string               `json:"profile"`
	TargetDistanceKm float64              `json:"target_distance_km"`
	DistanceKm       float64              `json:"distance_km"`
	DurationMin      float64              `json:"duration_min"`
	ElevationGainM   float64              `json:"elevation_gain_m"`
	StartPoint       CoordinateResponse   `json:"start_point"`
	EndPoint         CoordinateResponse   `json:"end_point"`
	Path             []CoordinateResponse `json:"path"`
	IsMultiDay       bool                 `json:"is_multi_day"`
	DayPlans         []DayPlanResponse    `json:"day_plans,omitempty"`
	Attempts         int                  `json:"attempts"`
	Settled          bool                 `json:"settled"`
	// Notice discloses a settled route that is outside the requested range.
	Notice string `json:"notice,omitempty"`
}

type ErrorResponse struct {
	Error          string   `json:"error"`
	Kind           string   `json:"kind,omitempty"`
	BestDistanceKm *float64 `json:"best_distance_km,omitempty"`
	Day            int      `json:"day,omitempty"`
	Details        string   `json:"details,omitempty"`
}

func FromRoute(r domain.RouteResult) RouteResponse {
	out := RouteResponse{
		ID:               r.ID,
		Activity:         string(r.Activity),
		Profile:          string(r.Profile),
		TargetDistanceKm: r.TargetDistanceKm,
		DistanceKm:       r.DistanceKm,
		DurationMin:      r.DurationMin,
		ElevationGainM:   r.ElevationGainM,
		StartPoint:       coordinate(r.StartPoint),
		EndPoint:         coordinate(r.EndPoint),
		Path:             path(r.Path),
		IsMultiDay:       r.IsMultiDay,
		Attempts:         r.Attempts,
		Settled:          r.Settled,
	}

	for _, d := range r.DayPlans {
		out.DayPlans = append(out.DayPlans, DayPlanResponse{
			DayNumber:   d.DayNumber,
			DistanceKm:  d.DistanceKm,
			DurationMin: d.DurationMin,
			StartPoint:  coordinate(d.StartPoint),
			EndPoint:    coordinate(d.EndPoint),
			Path:        path(d.Path),
		})
	}

	if r.Settled {
		out.Notice = "closest achievable route; its distance is outside the requested range"
	}
	return out
}

func coordinate(c domain.Coordinate) CoordinateResponse {
	return CoordinateResponse{Lat: c.Lat, Lng: c.Lng}
}

func path(p []domain.Coordinate) []CoordinateResponse {
	out := make([]CoordinateResponse, 0, len(p))
	for _, c := range p {
		out = append(out, coordinate(c))
	}
	return out
}
