package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geo"
	"go.uber.org/zap"

	"github.com/orsreshef/travel-route-planner/internal/domain"
	"github.com/orsreshef/travel-route-planner/internal/platform/obs"
	"github.com/orsreshef/travel-route-planner/internal/ports"
)

// PlanRequest is what a caller asks for. Zero values pick defaults.
type PlanRequest struct {
	Country  string
	City     string
	Activity domain.Activity
	// TargetDistanceKm is the loop length for walking and the per-day
	// distance for cycling.
	TargetDistanceKm float64
	// Seed makes the cycling proposals reproducible. 0 draws a random seed.
	Seed uint64
}

// PlannerConfig holds the tunables of the route planner. It is loaded from
// the optional policy file by internal/config.
type PlannerConfig struct {
	Walking          SearchPolicy   `yaml:"walking"`
	Cycling          SearchPolicy   `yaml:"cycling"`
	Tuning           ProposerTuning `yaml:"tuning"`
	MaxAttempts      int            `yaml:"max_attempts"`
	DefaultWalkingKm float64        `yaml:"default_walking_km"`
	DefaultCyclingKm float64        `yaml:"default_cycling_km"`
	MaxWalkingKm     float64        `yaml:"max_walking_km"`
	MaxCyclingKm     float64        `yaml:"max_cycling_km"`
	CyclingDays      int            `yaml:"cycling_days"`
}

func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		Walking:          DefaultWalkingPolicy(),
		Cycling:          DefaultCyclingPolicy(),
		Tuning:           DefaultProposerTuning(),
		MaxAttempts:      domain.DefaultMaxAttempts,
		DefaultWalkingKm: 10,
		DefaultCyclingKm: 40,
		MaxWalkingKm:     60,
		MaxCyclingKm:     150,
		CyclingDays:      2,
	}
}

// Planner turns a place and an activity into a finished route.
type Planner struct {
	geocoder   ports.Geocoder
	capitals   ports.CapitalLookup
	controller *Controller
	cfg        PlannerConfig
	logger     *zap.Logger
	newID      func() string
}

func NewPlanner(geocoder ports.Geocoder, capitals ports.CapitalLookup, controller *Controller, cfg PlannerConfig, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		geocoder:   geocoder,
		capitals:   capitals,
		controller: controller,
		cfg:        cfg,
		logger:     logger,
		newID:      uuid.NewString,
	}
}

// PlanRoute resolves the start location, then runs one search for walking or
// one search per day for cycling. A failed day fails the whole route.
// Failures are *domain.PlanError.
func (p *Planner) PlanRoute(ctx context.Context, req PlanRequest) (res domain.RouteResult, err error) {
	defer obs.Time(ctx, "services.PlanRoute")(&err)

	goal, err := p.goal(req)
	if err != nil {
		return domain.RouteResult{}, err
	}

	start, err := p.resolveStart(ctx, req.Country, req.City)
	if err != nil {
		return domain.RouteResult{}, err
	}

	p.logger.Info("planning route",
		zap.String("req_id", obs.RequestID(ctx)),
		zap.String("activity", string(goal.Activity)),
		zap.Float64("target_km", goal.TargetDistanceKm),
		zap.Float64("start_lat", start.Lat),
		zap.Float64("start_lng", start.Lng),
	)

	switch goal.Activity {
	case domain.ActivityCycling:
		return p.planCycling(ctx, goal, start, req.Seed)
	default:
		return p.planWalking(ctx, goal, start)
	}
}

func (p *Planner) goal(req PlanRequest) (domain.SearchGoal, error) {
	target, limit := req.TargetDistanceKm, p.cfg.MaxWalkingKm
	if req.Activity == domain.ActivityCycling {
		limit = p.cfg.MaxCyclingKm
	}
	if target == 0 {
		target = p.cfg.DefaultWalkingKm
		if req.Activity == domain.ActivityCycling {
			target = p.cfg.DefaultCyclingKm
		}
	}

	goal := domain.NewSearchGoal(req.Activity, target, p.cfg.MaxAttempts)
	if err := goal.Validate(); err != nil {
		return domain.SearchGoal{}, err
	}
	if limit > 0 && target > limit {
		return domain.SearchGoal{}, &domain.PlanError{
			Kind:   domain.FailureInvalidGoal,
			Reason: fmt.Sprintf("target distance %.1f km exceeds the %s limit of %.0f km", target, req.Activity, limit),
		}
	}
	return goal, nil
}

func (p *Planner) resolveStart(ctx context.Context, country, city string) (domain.Coordinate, error) {
	country, city = strings.TrimSpace(country), strings.TrimSpace(city)
	if country == "" {
		return domain.Coordinate{}, &domain.PlanError{Kind: domain.FailureInvalidGoal, Reason: "country is required"}
	}

	if city == "" {
		capital, err := p.capitals.Capital(ctx, country)
		if err != nil {
			return domain.Coordinate{}, p.geocodingFailed(ctx, fmt.Sprintf("no capital found for %q", country), err)
		}
		city = capital
	}

	start, err := p.geocoder.Resolve(ctx, country, city)
	if err != nil {
		return domain.Coordinate{}, p.geocodingFailed(ctx, fmt.Sprintf("could not locate %q, %q", city, country), err)
	}
	if err := start.Validate(); err != nil {
		return domain.Coordinate{}, &domain.PlanError{
			Kind:   domain.FailureNoStartLocation,
			Reason: fmt.Sprintf("geocoder returned an unusable point for %q", city),
			Err:    err,
		}
	}
	return start, nil
}

// geocodingFailed keeps "no such place" apart from lookup services being
// down or misconfigured. Only ErrLocationNotFound means the place is unknown.
func (p *Planner) geocodingFailed(ctx context.Context, reason string, err error) error {
	if ctx.Err() != nil {
		return &domain.PlanError{Kind: domain.FailureCancelled, Reason: "cancelled while geocoding", Err: ctx.Err()}
	}
	if errors.Is(err, ports.ErrLocationNotFound) {
		return &domain.PlanError{Kind: domain.FailureNoStartLocation, Reason: reason, Err: err}
	}

	p.logger.Warn("location lookup failed", zap.Error(err))
	if kind, ok := domain.OracleErrorKindOf(err); ok && kind == domain.OracleAuth {
		return &domain.PlanError{Kind: domain.FailureProviderFatal, Reason: "geocoding provider rejected credentials", Err: err}
	}
	return &domain.PlanError{Kind: domain.FailureProviderUnavailable, Reason: "location lookup is temporarily unavailable", Err: err}
}

func (p *Planner) planWalking(ctx context.Context, goal domain.SearchGoal, start domain.Coordinate) (domain.RouteResult, error) {
	proposal := NewCircularProposal(start, goal.TargetDistanceKm, p.cfg.Tuning)

	sr, err := p.controller.Search(ctx, goal, p.cfg.Walking, proposal)
	if err != nil {
		return domain.RouteResult{}, err
	}

	out, err := AssembleWalking(p.newID(), goal, sr)
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("plan walking: %w", err)
	}
	return out, nil
}

func (p *Planner) planCycling(ctx context.Context, goal domain.SearchGoal, start domain.Coordinate, seed uint64) (domain.RouteResult, error) {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	days := make([]SearchResult, 0, p.cfg.CyclingDays)
	dayStart := start
	var prevBearing float64

	for day := 1; day <= p.cfg.CyclingDays; day++ {
		var proposal RadialProposal
		if day == 1 {
			proposal = NewRadialProposal(dayStart, goal.TargetDistanceKm, rng, p.cfg.Tuning)
		} else {
			proposal = NewFollowOnRadialProposal(dayStart, prevBearing, goal.TargetDistanceKm, rng, p.cfg.Tuning)
		}

		sr, err := p.controller.Search(ctx, goal, p.cfg.Cycling, proposal)
		if err != nil {
			var pe *domain.PlanError
			if errors.As(err, &pe) {
				pe.Day = day
			}
			return domain.RouteResult{}, err
		}

		path := validPoints(sr.Route.Path)
		if len(path) < 2 {
			return domain.RouteResult{}, fmt.Errorf("plan cycling: day %d: %w", day, ErrIncompleteRoute)
		}

		// The next day starts where this day actually ended, not at the
		// proposed end point.
		dayStart = path[len(path)-1]
		prevBearing = dayBearing(sr, path)
		days = append(days, sr)
	}

	out, err := AssembleCycling(p.newID(), goal, days...)
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("plan cycling: %w", err)
	}
	return out, nil
}

func dayBearing(sr SearchResult, path []domain.Coordinate) float64 {
	if rp, ok := sr.Final.(RadialProposal); ok {
		return rp.BearingDeg
	}
	return normalizeBearing(geo.Bearing(path[0].Point(), path[len(path)-1].Point()))
}
