package domain

import (
	"fmt"
	"math"
	"strings"
)

// Activity is the user-facing kind of trip.
type Activity string

const (
	ActivityWalking Activity = "walking"
	ActivityCycling Activity = "cycling"
)

func ParseActivity(s string) (Activity, error) {
	switch Activity(strings.ToLower(strings.TrimSpace(s))) {
	case ActivityWalking:
		return ActivityWalking, nil
	case ActivityCycling:
		return ActivityCycling, nil
	}
	return "", fmt.Errorf("unknown activity %q", s)
}

// Profile is the travel mode string understood by the routing provider.
type Profile string

const (
	ProfileFootWalking     Profile = "foot-walking"
	ProfileFootHiking      Profile = "foot-hiking"
	ProfileCyclingRoad     Profile = "cycling-road"
	ProfileCyclingRegular  Profile = "cycling-regular"
	ProfileCyclingMountain Profile = "cycling-mountain"
)

// DefaultProfiles returns the provider profiles for an activity in preference order.
// Entries after the first are fallbacks for an unavailable profile.
func DefaultProfiles(a Activity) []Profile {
	switch a {
	case ActivityCycling:
		return []Profile{ProfileCyclingRoad, ProfileCyclingRegular}
	default:
		return []Profile{ProfileFootWalking, ProfileFootHiking}
	}
}

// IsCycling reports whether the profile belongs to the cycling family.
func (p Profile) IsCycling() bool { return strings.HasPrefix(string(p), "cycling-") }

// DistanceRange is a closed interval in kilometers.
type DistanceRange struct {
	MinKm float64 `json:"min_km" yaml:"min_km"`
	MaxKm float64 `json:"max_km" yaml:"max_km"`
}

func (r DistanceRange) Contains(km float64) bool {
	return km >= r.MinKm && km <= r.MaxKm
}

// Within reports whether r is a subset of outer.
func (r DistanceRange) Within(outer DistanceRange) bool {
	return r.MinKm >= outer.MinKm && r.MaxKm <= outer.MaxKm
}

func (r DistanceRange) String() string {
	return fmt.Sprintf("%.1f-%.1fkm", r.MinKm, r.MaxKm)
}

// SearchGoal describes what one adaptive search must achieve.
type SearchGoal struct {
	Activity         Activity
	Profiles         []Profile
	TargetDistanceKm float64
	Acceptable       DistanceRange
	Ideal            DistanceRange
	MaxAttempts      int
	// ClosedLoop requires the path to end where it started.
	ClosedLoop bool
}

// Band multipliers applied to the target distance when building a goal.
const (
	IdealLowFactor       = 0.5
	IdealHighFactor      = 1.5
	AcceptableLowFactor  = 0.3
	AcceptableHighFactor = 2.0
	DefaultMaxAttempts   = 8
)

// NewSearchGoal builds a goal with the default tolerance bands around target.
func NewSearchGoal(a Activity, targetKm float64, maxAttempts int) SearchGoal {
	return SearchGoal{
		Activity:         a,
		Profiles:         DefaultProfiles(a),
		TargetDistanceKm: targetKm,
		Ideal:            DistanceRange{MinKm: targetKm * IdealLowFactor, MaxKm: targetKm * IdealHighFactor},
		Acceptable:       DistanceRange{MinKm: targetKm * AcceptableLowFactor, MaxKm: targetKm * AcceptableHighFactor},
		MaxAttempts:      maxAttempts,
		ClosedLoop:       a == ActivityWalking,
	}
}

// Validate checks the goal invariants. It returns a *PlanError of kind
// FailureInvalidGoal so callers can surface it without wrapping.
func (g SearchGoal) Validate() error {
	invalid := func(format string, args ...any) error {
		return &PlanError{Kind: FailureInvalidGoal, Reason: fmt.Sprintf(format, args...)}
	}

	if g.Activity != ActivityWalking && g.Activity != ActivityCycling {
		return invalid("unknown activity %q", g.Activity)
	}
	if len(g.Profiles) == 0 {
		return invalid("no routing profile configured")
	}
	if math.IsNaN(g.TargetDistanceKm) || g.TargetDistanceKm <= 0 {
		return invalid("target distance must be positive, got %v", g.TargetDistanceKm)
	}
	if g.Acceptable.MinKm < 0 || g.Acceptable.MinKm > g.Acceptable.MaxKm {
		return invalid("acceptable range %s is malformed", g.Acceptable)
	}
	if g.Ideal.MinKm > g.Ideal.MaxKm {
		return invalid("ideal range %s is malformed", g.Ideal)
	}
	if !g.Ideal.Within(g.Acceptable) {
		return invalid("ideal range %s must lie within acceptable range %s", g.Ideal, g.Acceptable)
	}
	if g.MaxAttempts < 1 {
		return invalid("max attempts must be at least 1, got %d", g.MaxAttempts)
	}
	return nil
}
