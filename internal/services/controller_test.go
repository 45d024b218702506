package services

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orsreshef/travel-route-planner/internal/adapters/routing"
	"github.com/orsreshef/travel-route-planner/internal/domain"
	"github.com/orsreshef/travel-route-planner/internal/ports"
)

type noLimit struct{}

func (noLimit) Wait(ctx context.Context, _ string) error { return ctx.Err() }

type oracleFunc func(ctx context.Context, w domain.WaypointSet, p domain.Profile) (domain.CandidateRoute, error)

func (f oracleFunc) Route(ctx context.Context, w domain.WaypointSet, p domain.Profile) (domain.CandidateRoute, error) {
	return f(ctx, w, p)
}

func (oracleFunc) Name() string { return "func" }

// countingProposal wraps a proposal and counts Adjust calls.
type countingProposal struct {
	Proposal
	adjusts *int
}

func (c countingProposal) Adjust(fb Feedback) Proposal {
	*c.adjusts++
	return countingProposal{Proposal: c.Proposal.Adjust(fb), adjusts: c.adjusts}
}

func newTestController(oracle ports.RouteOracle, sleeps *[]time.Duration) *Controller {
	return NewController(oracle, noLimit{}, WithSleep(func(ctx context.Context, d time.Duration) error {
		if sleeps != nil {
			*sleeps = append(*sleeps, d)
		}
		return ctx.Err()
	}))
}

func walkingGoal() domain.SearchGoal {
	return domain.NewSearchGoal(domain.ActivityWalking, 10, 8)
}

func walkingProposal() Proposal {
	return NewCircularProposal(rome, 10, DefaultProposerTuning())
}

func oracleErr(kind domain.OracleErrorKind) error {
	return &domain.OracleError{Kind: kind}
}

func TestSearch_IdealWalkingRouteOnFirstAttempt(t *testing.T) {
	oracle := routing.NewMockRouteOracle(routing.MockStep{DistanceKm: 11.2})
	c := newTestController(oracle, nil)

	goal := walkingGoal()
	require.Equal(t, domain.DistanceRange{MinKm: 5, MaxKm: 15}, goal.Ideal)
	require.Equal(t, domain.DistanceRange{MinKm: 3, MaxKm: 20}, goal.Acceptable)

	res, err := c.Search(context.Background(), goal, DefaultWalkingPolicy(), walkingProposal())
	require.NoError(t, err)

	assert.Equal(t, 11.2, res.Route.DistanceKm)
	assert.Equal(t, domain.VerdictWithinIdeal, res.Classification.Verdict)
	assert.Len(t, res.Attempts, 1)
	assert.Equal(t, domain.OutcomeSuccess, res.Attempts[0].Outcome)
	assert.False(t, res.Settled)
	assert.Equal(t, 1, oracle.CallCount())
}

func TestSearch_ShrinkingConvergence(t *testing.T) {
	oracle := routing.NewMockRouteOracle(
		routing.MockStep{DistanceKm: 18},
		routing.MockStep{DistanceKm: 16},
		routing.MockStep{DistanceKm: 13},
	)
	c := newTestController(oracle, nil)

	goal := walkingGoal()
	goal.Acceptable = domain.DistanceRange{MinKm: 5, MaxKm: 15}
	goal.Ideal = domain.DistanceRange{MinKm: 5, MaxKm: 15}

	res, err := c.Search(context.Background(), goal, DefaultWalkingPolicy(), walkingProposal())
	require.NoError(t, err)

	assert.Equal(t, 13.0, res.Route.DistanceKm)
	require.Len(t, res.Attempts, 3)
	assert.Equal(t, domain.VerdictTooLong, res.Attempts[0].Classification.Verdict)
	assert.Equal(t, domain.VerdictTooLong, res.Attempts[1].Classification.Verdict)

	// Each rejection shrinks the ring.
	final := res.Final.(CircularProposal)
	assert.InDelta(t, walkingProposal().(CircularProposal).RadiusKm*0.8*0.8, final.RadiusKm, 1e-9)

	calls := oracle.Calls()
	assert.NotEqual(t, calls[0].Waypoints.At(0), calls[1].Waypoints.At(0))
}

func TestSearch_ExhaustionReportsBestDistance(t *testing.T) {
	oracle := routing.NewMockRouteOracle(routing.MockStep{DistanceKm: 2})
	c := newTestController(oracle, nil)

	res, err := c.Search(context.Background(), walkingGoal(), DefaultWalkingPolicy(), walkingProposal())
	require.Error(t, err)

	pe, ok := domain.AsPlanError(err)
	require.True(t, ok)
	assert.Equal(t, domain.FailureExhausted, pe.Kind)
	assert.True(t, pe.HasBest)
	assert.Equal(t, 2.0, pe.BestDistanceKm)
	assert.Equal(t, 8, pe.Attempts)
	assert.Len(t, res.Attempts, 8)
	assert.Equal(t, 8, oracle.CallCount())
	for _, a := range res.Attempts {
		assert.Equal(t, domain.VerdictTooShort, a.Classification.Verdict)
	}
}

func TestSearch_BestDistanceIsClosestToTarget(t *testing.T) {
	oracle := routing.NewMockRouteOracle(
		routing.MockStep{DistanceKm: 40},
		routing.MockStep{DistanceKm: 1},
		routing.MockStep{DistanceKm: 26},
		routing.MockStep{DistanceKm: 2.5},
	)
	c := newTestController(oracle, nil)

	goal := walkingGoal()
	goal.MaxAttempts = 4

	_, err := c.Search(context.Background(), goal, DefaultWalkingPolicy(), walkingProposal())
	pe, ok := domain.AsPlanError(err)
	require.True(t, ok)
	assert.Equal(t, 2.5, pe.BestDistanceKm)
}

func TestSearch_AuthErrorIsFatalImmediately(t *testing.T) {
	oracle := routing.NewMockRouteOracle(routing.MockStep{Err: oracleErr(domain.OracleAuth)})
	c := newTestController(oracle, nil)

	adjusts := 0
	proposal := countingProposal{Proposal: walkingProposal(), adjusts: &adjusts}

	res, err := c.Search(context.Background(), walkingGoal(), DefaultWalkingPolicy(), proposal)

	pe, ok := domain.AsPlanError(err)
	require.True(t, ok)
	assert.Equal(t, domain.FailureProviderFatal, pe.Kind)
	assert.Len(t, res.Attempts, 1)
	assert.Equal(t, 1, oracle.CallCount())
	assert.Zero(t, adjusts)
}

func TestSearch_TransientRetriesSameWaypoints(t *testing.T) {
	oracle := routing.NewMockRouteOracle(
		routing.MockStep{Err: oracleErr(domain.OracleTransient)},
		routing.MockStep{Err: oracleErr(domain.OracleTransient)},
		routing.MockStep{DistanceKm: 9},
	)
	var sleeps []time.Duration
	c := newTestController(oracle, &sleeps)

	res, err := c.Search(context.Background(), walkingGoal(), DefaultWalkingPolicy(), walkingProposal())
	require.NoError(t, err)

	require.Len(t, res.Attempts, 1, "transient retries do not use attempts")
	assert.Equal(t, 2, res.Attempts[0].TransientRetries)
	require.Len(t, sleeps, 2)
	assert.Greater(t, sleeps[0], time.Duration(0))

	calls := oracle.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, calls[0].Waypoints.Points(), calls[2].Waypoints.Points())
}

func TestSearch_PersistentOutageIsProviderUnavailable(t *testing.T) {
	oracle := routing.NewMockRouteOracle(routing.MockStep{Err: oracleErr(domain.OracleTransient)})
	c := newTestController(oracle, nil)

	res, err := c.Search(context.Background(), walkingGoal(), DefaultWalkingPolicy(), walkingProposal())

	pe, ok := domain.AsPlanError(err)
	require.True(t, ok)
	assert.Equal(t, domain.FailureProviderUnavailable, pe.Kind)
	assert.Len(t, res.Attempts, 8)
	assert.Equal(t, 8*3, oracle.CallCount())
}

func TestSearch_ProfileFallback(t *testing.T) {
	oracle := routing.NewMockRouteOracle(
		routing.MockStep{Err: oracleErr(domain.OracleProfileUnavailable)},
		routing.MockStep{DistanceKm: 10},
	)
	c := newTestController(oracle, nil)

	res, err := c.Search(context.Background(), walkingGoal(), DefaultWalkingPolicy(), walkingProposal())
	require.NoError(t, err)

	calls := oracle.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, domain.ProfileFootWalking, calls[0].Profile)
	assert.Equal(t, domain.ProfileFootHiking, calls[1].Profile)
	assert.Equal(t, calls[0].Waypoints.Points(), calls[1].Waypoints.Points())
	assert.Len(t, res.Attempts, 1)
	assert.Equal(t, domain.ProfileFootHiking, res.Attempts[0].Profile)
}

func TestSearch_NoProfileLeftIsFatal(t *testing.T) {
	oracle := routing.NewMockRouteOracle(routing.MockStep{Err: oracleErr(domain.OracleProfileUnavailable)})
	c := newTestController(oracle, nil)

	_, err := c.Search(context.Background(), walkingGoal(), DefaultWalkingPolicy(), walkingProposal())

	pe, ok := domain.AsPlanError(err)
	require.True(t, ok)
	assert.Equal(t, domain.FailureProviderFatal, pe.Kind)
	assert.Equal(t, 2, oracle.CallCount())
}

func TestSearch_UnroutableMovesWaypoints(t *testing.T) {
	oracle := routing.NewMockRouteOracle(
		routing.MockStep{Err: oracleErr(domain.OracleUnroutable)},
		routing.MockStep{DistanceKm: 10},
	)
	c := newTestController(oracle, nil)

	res, err := c.Search(context.Background(), walkingGoal(), DefaultWalkingPolicy(), walkingProposal())
	require.NoError(t, err)

	require.Len(t, res.Attempts, 2)
	assert.Equal(t, domain.OutcomeProviderError, res.Attempts[0].Outcome)
	assert.Equal(t, domain.OracleUnroutable, res.Attempts[0].ErrorKind)

	calls := oracle.Calls()
	assert.NotEqual(t, calls[0].Waypoints.Points(), calls[1].Waypoints.Points())
	assert.Greater(t, calls[1].Waypoints.SnapRadiusM(), calls[0].Waypoints.SnapRadiusM())
}

func TestSearch_CyclingSettlesAfterPolicyLimit(t *testing.T) {
	oracle := routing.NewMockRouteOracle(routing.MockStep{DistanceKm: 200})
	c := newTestController(oracle, nil)

	goal := domain.NewSearchGoal(domain.ActivityCycling, 40, 8)
	proposal := NewRadialProposal(rome, 40, rand.New(rand.NewPCG(3, 3)), DefaultProposerTuning())

	res, err := c.Search(context.Background(), goal, DefaultCyclingPolicy(), proposal)
	require.NoError(t, err)

	assert.True(t, res.Settled)
	assert.Equal(t, domain.VerdictTooLong, res.Classification.Verdict)
	assert.Len(t, res.Attempts, 3)
}

func TestSearch_WalkingNeverSettles(t *testing.T) {
	oracle := routing.NewMockRouteOracle(routing.MockStep{DistanceKm: 200})
	c := newTestController(oracle, nil)

	_, err := c.Search(context.Background(), walkingGoal(), DefaultWalkingPolicy(), walkingProposal())

	pe, ok := domain.AsPlanError(err)
	require.True(t, ok)
	assert.Equal(t, domain.FailureExhausted, pe.Kind)
	assert.Equal(t, 8, oracle.CallCount())
}

func TestSearch_CancellationRecordsInFlightAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	oracle := oracleFunc(func(ctx context.Context, w domain.WaypointSet, p domain.Profile) (domain.CandidateRoute, error) {
		calls++
		cancel()
		return domain.CandidateRoute{Path: w.Points(), DistanceKm: 30, Profile: p}, nil
	})
	c := newTestController(oracle, nil)

	res, err := c.Search(ctx, walkingGoal(), DefaultWalkingPolicy(), walkingProposal())

	pe, ok := domain.AsPlanError(err)
	require.True(t, ok)
	assert.Equal(t, domain.FailureCancelled, pe.Kind)
	assert.Equal(t, 1, calls)
	require.Len(t, res.Attempts, 1)
	assert.Equal(t, 30.0, res.Attempts[0].Classification.DistanceKm)
}

func TestSearch_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	oracle := routing.NewMockRouteOracle(routing.MockStep{DistanceKm: 10})
	c := newTestController(oracle, nil)

	_, err := c.Search(ctx, walkingGoal(), DefaultWalkingPolicy(), walkingProposal())

	pe, ok := domain.AsPlanError(err)
	require.True(t, ok)
	assert.Equal(t, domain.FailureCancelled, pe.Kind)
	assert.Zero(t, oracle.CallCount())
}

func TestSearch_InvalidGoal(t *testing.T) {
	oracle := routing.NewMockRouteOracle(routing.MockStep{DistanceKm: 10})
	c := newTestController(oracle, nil)

	goal := walkingGoal()
	goal.MaxAttempts = 0

	_, err := c.Search(context.Background(), goal, DefaultWalkingPolicy(), walkingProposal())

	pe, ok := domain.AsPlanError(err)
	require.True(t, ok)
	assert.Equal(t, domain.FailureInvalidGoal, pe.Kind)
	assert.Zero(t, oracle.CallCount())
}

func TestSearch_TerminatesWithinMaxAttemptsForAnyScript(t *testing.T) {
	script := []routing.MockStep{
		{Err: oracleErr(domain.OracleUnroutable)},
		{DistanceKm: 100},
		{Err: oracleErr(domain.OracleTransient)},
		{Err: oracleErr(domain.OracleInvalidRequest)},
		{DistanceKm: 0.5},
		{Err: oracleErr(domain.OracleTransient)},
		{DistanceKm: 90},
	}

	for limit := 1; limit <= 6; limit++ {
		oracle := routing.NewMockRouteOracle(script...)
		c := newTestController(oracle, nil)

		goal := walkingGoal()
		goal.MaxAttempts = limit

		res, err := c.Search(context.Background(), goal, DefaultWalkingPolicy(), walkingProposal())
		require.Error(t, err)
		assert.LessOrEqual(t, len(res.Attempts), limit)
	}
}
