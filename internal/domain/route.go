package domain

import "encoding/json"

// CandidateRoute is one successful routing-provider answer, normalized to
// kilometers and minutes. It is produced only by a RouteOracle and is never
// partially populated.
type CandidateRoute struct {
	Waypoints      WaypointSet
	Profile        Profile
	Path           []Coordinate
	DistanceKm     float64
	DurationMin    float64
	ElevationGainM float64
	// DurationSuspect is set when the provider duration is implausible for
	// the distance; the evaluator substitutes a speed-based estimate.
	DurationSuspect bool
	RawPayload      json.RawMessage
}

// Represents one day of a multi-day cycling route. Immutable once built.
type DayPlan struct {
	DayNumber   int          `json:"day_number"`
	DistanceKm  float64      `json:"distance_km"`
	DurationMin float64      `json:"duration_min"`
	StartPoint  Coordinate   `json:"start_point"`
	EndPoint    Coordinate   `json:"end_point"`
	Path        []Coordinate `json:"path"`
}

// RouteResult is the only externally visible output of a route search.
// Settled marks a route accepted outside the acceptable band after the
// search stopped adjusting; callers must disclose it as the closest
// achievable route.
type RouteResult struct {
	ID               string       `json:"id"`
	Activity         Activity     `json:"activity"`
	Profile          Profile      `json:"profile"`
	TargetDistanceKm float64      `json:"target_distance_km"`
	DistanceKm       float64      `json:"distance_km"`
	DurationMin      float64      `json:"duration_min"`
	ElevationGainM   float64      `json:"elevation_gain_m"`
	Path             []Coordinate `json:"path"`
	StartPoint       Coordinate   `json:"start_point"`
	EndPoint         Coordinate   `json:"end_point"`
	IsMultiDay       bool         `json:"is_multi_day"`
	DayPlans         []DayPlan    `json:"day_plans,omitempty"`
	Attempts         int          `json:"attempts"`
	Settled          bool         `json:"settled"`
}
