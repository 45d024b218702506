package services

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/paulmach/orb/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orsreshef/travel-route-planner/internal/domain"
)

var rome = domain.Coordinate{Lat: 41.9028, Lng: 12.4964}

func TestCircularProposal_Seed(t *testing.T) {
	tuning := DefaultProposerTuning()

	cases := []struct {
		targetKm float64
		points   int
	}{
		{3, 6},
		{8, 8},
		{10, 10},
		{25, 10},
	}

	for _, tc := range cases {
		p := NewCircularProposal(rome, tc.targetKm, tuning)
		assert.Equal(t, tc.points, p.NumPoints, "target %.0f", tc.targetKm)
		assert.InDelta(t, tc.targetKm/(2*math.Pi*1.3), p.RadiusKm, 1e-9)
	}
}

func TestCircularProposal_WaypointsFormClosedRing(t *testing.T) {
	p := NewCircularProposal(rome, 10, DefaultProposerTuning())

	w, err := p.Waypoints()
	require.NoError(t, err)

	pts := w.Points()
	require.Len(t, pts, p.NumPoints+1)
	assert.Equal(t, pts[0], pts[len(pts)-1])

	deg := p.RadiusKm / KmPerDegree
	for _, pt := range pts {
		r := math.Hypot(pt.Lat-rome.Lat, pt.Lng-rome.Lng)
		assert.InDelta(t, deg, r, 1e-9)
	}
	assert.Equal(t, DefaultProposerTuning().InitialSnapRadiusM, w.SnapRadiusM())
}

func TestCircularProposal_Adjust(t *testing.T) {
	base := NewCircularProposal(rome, 10, DefaultProposerTuning())

	shrunk := base.Adjust(Feedback{Verdict: domain.VerdictTooLong, ErrorKm: 8}).(CircularProposal)
	assert.InDelta(t, base.RadiusKm*0.8, shrunk.RadiusKm, 1e-9)

	grown := base.Adjust(Feedback{Verdict: domain.VerdictTooShort, ErrorKm: -8}).(CircularProposal)
	assert.InDelta(t, base.RadiusKm*1.3, grown.RadiusKm, 1e-9)

	moved := base.Adjust(Feedback{ProviderError: domain.OracleUnroutable}).(CircularProposal)
	assert.Equal(t, base.RadiusKm, moved.RadiusKm)
	assert.InDelta(t, math.Pi/float64(base.NumPoints), moved.PhaseRad, 1e-9)
	assert.Equal(t, base.SnapRadiusM*2, moved.SnapRadiusM)

	// The receiver is a value and never changes.
	assert.Zero(t, base.PhaseRad)
	assert.InDelta(t, 10/(2*math.Pi*1.3), base.RadiusKm, 1e-9)
}

func TestCircularProposal_SnapRadiusIsCapped(t *testing.T) {
	tuning := DefaultProposerTuning()
	var p Proposal = NewCircularProposal(rome, 10, tuning)
	for i := 0; i < 10; i++ {
		p = p.Adjust(Feedback{Verdict: domain.VerdictUnusable})
	}
	assert.Equal(t, tuning.MaxSnapRadiusM, p.(CircularProposal).SnapRadiusM)
}

func TestRadialProposal_DeterministicForSeed(t *testing.T) {
	tuning := DefaultProposerTuning()

	a := NewRadialProposal(rome, 40, rand.New(rand.NewPCG(7, 7)), tuning)
	b := NewRadialProposal(rome, 40, rand.New(rand.NewPCG(7, 7)), tuning)
	assert.Equal(t, a, b)

	assert.GreaterOrEqual(t, a.BearingDeg, 0.0)
	assert.Less(t, a.BearingDeg, 360.0)
	assert.GreaterOrEqual(t, a.DistanceKm, tuning.RadialMinKm)
	assert.LessOrEqual(t, a.DistanceKm, tuning.RadialMaxKm)
}

func TestRadialProposal_EndPointAtBearingAndDistance(t *testing.T) {
	p := NewRadialProposal(rome, 40, rand.New(rand.NewPCG(1, 2)), DefaultProposerTuning())

	w, err := p.Waypoints()
	require.NoError(t, err)
	require.Equal(t, 2, w.Len())
	assert.Equal(t, rome, w.First())

	km := geo.DistanceHaversine(rome.Point(), w.Last().Point()) / 1000
	assert.InDelta(t, p.DistanceKm, km, 0.01)
}

func TestRadialProposal_RangeScalesWithTarget(t *testing.T) {
	tuning := DefaultProposerTuning()

	lo, hi := tuning.RadialRange(40)
	assert.Equal(t, tuning.RadialMinKm, lo)
	assert.Equal(t, tuning.RadialMaxKm, hi)

	lo, hi = tuning.RadialRange(10)
	assert.InDelta(t, 3.75, lo, 1e-9)
	assert.InDelta(t, 7.5, hi, 1e-9)

	// 150 km a day wants 56-112 km straight; legs stop at the provider limit.
	lo, hi = tuning.RadialRange(150)
	assert.InDelta(t, 56.25, lo, 1e-9)
	assert.Equal(t, tuning.MaxLegKm, hi)

	p := NewRadialProposal(rome, 150, rand.New(rand.NewPCG(5, 5)), tuning)
	assert.GreaterOrEqual(t, p.DistanceKm, 56.25)
	assert.LessOrEqual(t, p.DistanceKm, tuning.MaxLegKm)
}

func TestRadialProposal_FollowOnHeadsAway(t *testing.T) {
	tuning := DefaultProposerTuning()
	rng := rand.New(rand.NewPCG(42, 42))

	for i := 0; i < 50; i++ {
		prev := rng.Float64() * 360
		p := NewFollowOnRadialProposal(rome, prev, 40, rng, tuning)

		opposite := normalizeBearing(prev + 180)
		diff := math.Abs(math.Mod(p.BearingDeg-opposite+540, 360) - 180)
		assert.LessOrEqual(t, diff, 90.0+1e-9, "prev=%.1f got=%.1f", prev, p.BearingDeg)
	}
}

func TestRadialProposal_Adjust(t *testing.T) {
	tuning := DefaultProposerTuning()
	base := RadialProposal{Start: rome, BearingDeg: 330, DistanceKm: 20, SnapRadiusM: 350, tuning: tuning}

	shorter := base.Adjust(Feedback{Verdict: domain.VerdictTooLong}).(RadialProposal)
	assert.InDelta(t, 16, shorter.DistanceKm, 1e-9)
	assert.Equal(t, base.BearingDeg, shorter.BearingDeg)

	longer := base.Adjust(Feedback{Verdict: domain.VerdictTooShort}).(RadialProposal)
	assert.InDelta(t, 26, longer.DistanceKm, 1e-9)

	rotated := base.Adjust(Feedback{ProviderError: domain.OracleUnroutable}).(RadialProposal)
	assert.InDelta(t, 15, rotated.BearingDeg, 1e-9)
	assert.InDelta(t, 25, rotated.DistanceKm, 1e-9)
	assert.Equal(t, 700.0, rotated.SnapRadiusM)

	far := RadialProposal{Start: rome, BearingDeg: 0, DistanceKm: 70, SnapRadiusM: 350, tuning: tuning}
	capped := far.Adjust(Feedback{ProviderError: domain.OracleUnroutable}).(RadialProposal)
	assert.Equal(t, tuning.MaxLegKm, capped.DistanceKm)
}
