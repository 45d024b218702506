package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/orsreshef/travel-route-planner/internal/domain"
	"github.com/orsreshef/travel-route-planner/internal/platform/obs"
	"github.com/orsreshef/travel-route-planner/internal/ports"
)

// SearchPolicy bounds the retry behaviour of one search.
type SearchPolicy struct {
	// TransientRetries is how many times the same waypoints are re-sent after
	// a transient provider failure before the attempt counts as used.
	TransientRetries int           `yaml:"transient_retries"`
	BackoffInitial   time.Duration `yaml:"backoff_initial"`
	BackoffMax       time.Duration `yaml:"backoff_max"`
	// SettleAfter is the attempt from which a too-short or too-long route is
	// accepted as the closest achievable one. 0 never settles.
	SettleAfter int `yaml:"settle_after"`
}

func DefaultWalkingPolicy() SearchPolicy {
	return SearchPolicy{
		TransientRetries: 2,
		BackoffInitial:   500 * time.Millisecond,
		BackoffMax:       4 * time.Second,
	}
}

func DefaultCyclingPolicy() SearchPolicy {
	p := DefaultWalkingPolicy()
	p.SettleAfter = 3
	return p
}

// SearchRecorder receives search telemetry. platform/metrics implements it.
type SearchRecorder interface {
	ObserveAttempt(outcome, verdict string)
	ObserveOracleCall(profile, result string)
	ObserveSearch(activity, result string, d time.Duration)
	ObserveRateLimitWait(d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAttempt(string, string)               {}
func (nopRecorder) ObserveOracleCall(string, string)            {}
func (nopRecorder) ObserveSearch(string, string, time.Duration) {}
func (nopRecorder) ObserveRateLimitWait(time.Duration)          {}

// SearchResult is the terminal state of a search. Attempts is populated on
// failure too.
type SearchResult struct {
	Route          domain.CandidateRoute
	Classification domain.Classification
	Settled        bool
	Attempts       []domain.SearchAttempt
	// Final is the proposal that produced Route.
	Final Proposal
}

// Controller runs the propose, call, evaluate loop for one goal at a time.
// It holds no per-search state and is safe for concurrent searches.
type Controller struct {
	oracle   ports.RouteOracle
	limiter  ports.RateLimiter
	logger   *zap.Logger
	recorder SearchRecorder
	sleep    func(ctx context.Context, d time.Duration) error
}

type ControllerOption func(*Controller)

func WithLogger(l *zap.Logger) ControllerOption {
	return func(c *Controller) { c.logger = l }
}

func WithRecorder(r SearchRecorder) ControllerOption {
	return func(c *Controller) { c.recorder = r }
}

// WithSleep replaces the backoff wait. Tests use it to run without delays.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) ControllerOption {
	return func(c *Controller) { c.sleep = fn }
}

func NewController(oracle ports.RouteOracle, limiter ports.RateLimiter, opts ...ControllerOption) *Controller {
	c := &Controller{
		oracle:   oracle,
		limiter:  limiter,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// search carries the mutable bookkeeping of one Search call.
type search struct {
	goal       domain.SearchGoal
	policy     SearchPolicy
	profileIdx int
	attempts   []domain.SearchAttempt
	best       *domain.Classification
	sawRoute   bool
	lastKind   domain.OracleErrorKind
}

// Search runs attempts sequentially until a route is accepted, a fatal error
// occurs, or goal.MaxAttempts attempts are used. Every non-success return is
// a *domain.PlanError.
func (c *Controller) Search(ctx context.Context, goal domain.SearchGoal, policy SearchPolicy, proposal Proposal) (res SearchResult, err error) {
	defer obs.Time(ctx, "services.Search")(&err)

	started := time.Now()
	defer func() {
		result := "success"
		if pe, ok := domain.AsPlanError(err); ok {
			result = string(pe.Kind)
		}
		c.recorder.ObserveSearch(string(goal.Activity), result, time.Since(started))
	}()

	if err := goal.Validate(); err != nil {
		return res, err
	}

	s := &search{goal: goal, policy: policy}
	logger := c.logger.With(zap.String("req_id", obs.RequestID(ctx)), zap.String("activity", string(goal.Activity)))

	for index := 1; index <= goal.MaxAttempts; index++ {
		if ctx.Err() != nil {
			return s.result(nil), s.cancelled(ctx.Err())
		}

		waypoints, werr := proposal.Waypoints()
		if werr != nil {
			// The proposal drifted outside valid coordinates; move it like an
			// unroutable region.
			s.record(c, domain.SearchAttempt{
				Index:     index,
				Profile:   s.profile(),
				Outcome:   domain.OutcomeProviderError,
				ErrorKind: domain.OracleInvalidRequest,
			})
			s.lastKind = domain.OracleInvalidRequest
			logger.Info("proposal rejected locally", zap.Int("attempt", index), zap.Error(werr))
			proposal = proposal.Adjust(Feedback{ProviderError: domain.OracleInvalidRequest})
			continue
		}

		route, retries, callErr := c.call(ctx, s, waypoints)
		attempt := domain.SearchAttempt{
			Index:            index,
			Waypoints:        waypoints,
			Profile:          s.profile(),
			TransientRetries: retries,
		}

		if callErr != nil {
			if isCancellation(ctx, callErr) {
				attempt.Outcome = domain.OutcomeProviderError
				attempt.ErrorKind = domain.OracleTransient
				s.record(c, attempt)
				return s.result(nil), s.cancelled(callErr)
			}

			kind, ok := domain.OracleErrorKindOf(callErr)
			if !ok {
				kind = domain.OracleTransient
			}
			attempt.Outcome = domain.OutcomeProviderError
			attempt.ErrorKind = kind
			s.record(c, attempt)
			s.lastKind = kind

			logger.Info("attempt failed",
				zap.Int("attempt", index),
				zap.String("profile", string(attempt.Profile)),
				zap.String("kind", string(kind)),
				zap.Int("transient_retries", retries),
				zap.Error(callErr),
			)

			switch kind {
			case domain.OracleAuth:
				return s.result(nil), &domain.PlanError{
					Kind:     domain.FailureProviderFatal,
					Reason:   "routing provider rejected credentials",
					Attempts: len(s.attempts),
					Err:      callErr,
				}
			case domain.OracleProfileUnavailable:
				return s.result(nil), &domain.PlanError{
					Kind:     domain.FailureProviderFatal,
					Reason:   "no routing profile available for " + string(goal.Activity),
					Attempts: len(s.attempts),
					Err:      callErr,
				}
			case domain.OracleTransient:
				// Sub-budget spent; the attempt is used and waypoints stay.
			default:
				proposal = proposal.Adjust(Feedback{ProviderError: kind})
			}
			continue
		}

		route = NormalizeDuration(route, goal.Activity)
		cls := Classify(route, goal)
		attempt.Classification = cls
		s.observe(cls)

		if ctx.Err() != nil {
			attempt.Outcome = domain.OutcomeRejected
			s.record(c, attempt)
			return s.result(nil), s.cancelled(ctx.Err())
		}

		logger.Info("attempt evaluated",
			zap.Int("attempt", index),
			zap.String("profile", string(attempt.Profile)),
			zap.String("verdict", cls.Verdict.String()),
			zap.Float64("distance_km", cls.DistanceKm),
			zap.Float64("error_km", cls.ErrorKm),
		)

		switch {
		case cls.Verdict.Accepted():
			attempt.Outcome = domain.OutcomeSuccess
			attempt.Route = &route
			s.record(c, attempt)
			return s.result(&acceptance{route: route, cls: cls, proposal: proposal}), nil

		case cls.Verdict != domain.VerdictUnusable && policy.SettleAfter > 0 && index >= policy.SettleAfter:
			attempt.Outcome = domain.OutcomeSuccess
			attempt.Route = &route
			s.record(c, attempt)
			logger.Info("settled for closest route",
				zap.Int("attempt", index),
				zap.Float64("distance_km", cls.DistanceKm),
			)
			return s.result(&acceptance{route: route, cls: cls, proposal: proposal, settled: true}), nil

		default:
			attempt.Outcome = domain.OutcomeRejected
			s.record(c, attempt)
			proposal = proposal.Adjust(Feedback{Verdict: cls.Verdict, ErrorKm: cls.ErrorKm})
		}
	}

	return s.result(nil), s.exhausted()
}

// call sends waypoints to the provider, absorbing transient failures (up to
// the policy's sub-budget) and profile fallbacks without using an attempt.
func (c *Controller) call(ctx context.Context, s *search, waypoints domain.WaypointSet) (domain.CandidateRoute, int, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.policy.BackoffInitial
	bo.MaxInterval = s.policy.BackoffMax
	bo.MaxElapsedTime = 0
	bo.Reset()

	retries := 0
	for {
		waitStart := time.Now()
		if err := c.limiter.Wait(ctx, c.oracle.Name()); err != nil {
			if ctx.Err() != nil {
				return domain.CandidateRoute{}, retries, ctx.Err()
			}
			err = &domain.OracleError{Kind: domain.OracleTransient, Message: "rate limiter", Err: err}
			if retries >= s.policy.TransientRetries {
				return domain.CandidateRoute{}, retries, err
			}
		} else {
			c.recorder.ObserveRateLimitWait(time.Since(waitStart))

			profile := s.profile()
			route, err := c.oracle.Route(ctx, waypoints, profile)
			if err == nil {
				c.recorder.ObserveOracleCall(string(profile), "ok")
				return route, retries, nil
			}
			if isCancellation(ctx, err) {
				return domain.CandidateRoute{}, retries, err
			}

			kind, ok := domain.OracleErrorKindOf(err)
			if !ok {
				kind = domain.OracleTransient
			}
			c.recorder.ObserveOracleCall(string(profile), string(kind))

			switch kind {
			case domain.OracleProfileUnavailable:
				if s.profileIdx+1 < len(s.goal.Profiles) {
					s.profileIdx++
					continue
				}
				return domain.CandidateRoute{}, retries, err
			case domain.OracleTransient:
				if retries >= s.policy.TransientRetries {
					return domain.CandidateRoute{}, retries, err
				}
			default:
				return domain.CandidateRoute{}, retries, err
			}
		}

		retries++
		if err := c.sleep(ctx, bo.NextBackOff()); err != nil {
			return domain.CandidateRoute{}, retries, err
		}
	}
}

type acceptance struct {
	route    domain.CandidateRoute
	cls      domain.Classification
	proposal Proposal
	settled  bool
}

func (s *search) profile() domain.Profile {
	return s.goal.Profiles[s.profileIdx]
}

func (s *search) record(c *Controller, a domain.SearchAttempt) {
	s.attempts = append(s.attempts, a)
	verdict := "none"
	if a.Outcome != domain.OutcomeProviderError {
		verdict = a.Classification.Verdict.String()
	}
	c.recorder.ObserveAttempt(a.Outcome.String(), verdict)
}

// observe tracks the usable distance closest to the target.
func (s *search) observe(cls domain.Classification) {
	if cls.Verdict == domain.VerdictUnusable {
		return
	}
	s.sawRoute = true
	if s.best == nil || math.Abs(cls.ErrorKm) < math.Abs(s.best.ErrorKm) {
		best := cls
		s.best = &best
	}
}

func (s *search) result(a *acceptance) SearchResult {
	res := SearchResult{Attempts: s.attempts}
	if a != nil {
		res.Route = a.route
		res.Classification = a.cls
		res.Settled = a.settled
		res.Final = a.proposal
	}
	return res
}

func (s *search) exhausted() error {
	if !s.sawRoute && s.lastKind == domain.OracleTransient {
		return &domain.PlanError{
			Kind:     domain.FailureProviderUnavailable,
			Reason:   "routing provider is temporarily unavailable",
			Attempts: len(s.attempts),
		}
	}

	pe := &domain.PlanError{
		Kind:     domain.FailureExhausted,
		Reason:   fmt.Sprintf("no route within %s after %d attempts", s.goal.Acceptable, len(s.attempts)),
		Attempts: len(s.attempts),
	}
	if s.best != nil {
		pe.HasBest = true
		pe.BestDistanceKm = s.best.DistanceKm
	}
	return pe
}

func (s *search) cancelled(cause error) error {
	pe := &domain.PlanError{
		Kind:     domain.FailureCancelled,
		Reason:   "search cancelled",
		Attempts: len(s.attempts),
		Err:      cause,
	}
	if s.best != nil {
		pe.HasBest = true
		pe.BestDistanceKm = s.best.DistanceKm
	}
	return pe
}

// isCancellation reports whether err ends the search because the caller gave
// up. Provider timeouts arrive wrapped in an OracleError and do not count.
func isCancellation(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	_, isOracle := domain.OracleErrorKindOf(err)
	return !isOracle && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
