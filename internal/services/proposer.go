package services

import (
	"math"
	"math/rand/v2"

	"github.com/paulmach/orb/geo"

	"github.com/orsreshef/travel-route-planner/internal/domain"
)

// KmPerDegree converts ring radii to degrees. It ignores the shrinking of
// longitude degrees away from the equator, so rings are slightly elliptical
// at high latitudes. Ring radii are a few kilometers, where the distortion
// is absorbed by the distance feedback loop.
const KmPerDegree = 111.0

// Feedback describes the outcome of the attempt a proposal produced.
type Feedback struct {
	Verdict domain.Verdict
	ErrorKm float64
	// ProviderError is set when the provider returned no route at all.
	ProviderError domain.OracleErrorKind
}

// relocate reports whether the proposal should move to a different area
// rather than resize.
func (f Feedback) relocate() bool {
	return f.ProviderError != "" || f.Verdict == domain.VerdictUnusable
}

// Proposal is an immutable search-strategy state. Adjust never modifies the
// receiver; it returns the state for the next attempt.
type Proposal interface {
	Waypoints() (domain.WaypointSet, error)
	Adjust(fb Feedback) Proposal
}

// ProposerTuning holds the geometric knobs of both strategies.
type ProposerTuning struct {
	ShrinkFactor       float64 `yaml:"shrink_factor"`
	GrowFactor         float64 `yaml:"grow_factor"`
	WindingFactor      float64 `yaml:"winding_factor"`
	MinRingPoints      int     `yaml:"min_ring_points"`
	MaxRingPoints      int     `yaml:"max_ring_points"`
	MinRadiusKm        float64 `yaml:"min_radius_km"`
	InitialSnapRadiusM float64 `yaml:"initial_snap_radius_m"`
	MaxSnapRadiusM     float64 `yaml:"max_snap_radius_m"`
	SnapGrowth         float64 `yaml:"snap_growth"`
	RadialMinKm        float64 `yaml:"radial_min_km"`
	RadialMaxKm        float64 `yaml:"radial_max_km"`
	// RadialReferenceKm is the daily target the radial range is tuned for.
	// Other targets scale the range proportionally.
	RadialReferenceKm float64 `yaml:"radial_reference_km"`
	RotateStepDeg     float64 `yaml:"rotate_step_deg"`
	RelocateGrowth    float64 `yaml:"relocate_growth"`
	MaxLegKm          float64 `yaml:"max_leg_km"`
}

func DefaultProposerTuning() ProposerTuning {
	return ProposerTuning{
		ShrinkFactor:       0.8,
		GrowFactor:         1.3,
		WindingFactor:      1.3,
		MinRingPoints:      6,
		MaxRingPoints:      10,
		MinRadiusKm:        0.2,
		InitialSnapRadiusM: 350,
		MaxSnapRadiusM:     2000,
		SnapGrowth:         2,
		RadialMinKm:        15,
		RadialMaxKm:        30,
		RadialReferenceKm:  40,
		RotateStepDeg:      45,
		RelocateGrowth:     1.25,
		MaxLegKm:           75,
	}
}

// CircularProposal places a closed ring of waypoints around a center.
type CircularProposal struct {
	Center      domain.Coordinate
	RadiusKm    float64
	NumPoints   int
	PhaseRad    float64
	SnapRadiusM float64
	tuning      ProposerTuning
}

// NewCircularProposal seeds a ring whose circumference, inflated by the road
// winding factor, approximates targetKm.
func NewCircularProposal(center domain.Coordinate, targetKm float64, t ProposerTuning) CircularProposal {
	radius := targetKm / (2 * math.Pi * t.WindingFactor)
	return CircularProposal{
		Center:      center,
		RadiusKm:    math.Max(radius, t.MinRadiusKm),
		NumPoints:   clampInt(int(math.Round(targetKm)), t.MinRingPoints, t.MaxRingPoints),
		SnapRadiusM: t.InitialSnapRadiusM,
		tuning:      t,
	}
}

func (p CircularProposal) Waypoints() (domain.WaypointSet, error) {
	deg := p.RadiusKm / KmPerDegree
	points := make([]domain.Coordinate, 0, p.NumPoints+1)
	for i := 0; i < p.NumPoints; i++ {
		angle := 2*math.Pi*float64(i)/float64(p.NumPoints) + p.PhaseRad
		points = append(points, domain.Coordinate{
			Lat: p.Center.Lat + deg*math.Sin(angle),
			Lng: p.Center.Lng + deg*math.Cos(angle),
		})
	}
	// Close the loop.
	points = append(points, points[0])

	return domain.NewWaypointSet(p.SnapRadiusM, points...)
}

func (p CircularProposal) Adjust(fb Feedback) Proposal {
	next := p
	switch {
	case fb.relocate():
		next.PhaseRad = math.Mod(p.PhaseRad+math.Pi/float64(p.NumPoints), 2*math.Pi)
		next.SnapRadiusM = math.Min(p.SnapRadiusM*p.tuning.SnapGrowth, p.tuning.MaxSnapRadiusM)
	case fb.Verdict == domain.VerdictTooLong:
		next.RadiusKm = math.Max(p.RadiusKm*p.tuning.ShrinkFactor, p.tuning.MinRadiusKm)
	case fb.Verdict == domain.VerdictTooShort:
		next.RadiusKm = p.RadiusKm * p.tuning.GrowFactor
	}
	return next
}

// RadialProposal is a start point plus an end point placed along a bearing.
type RadialProposal struct {
	Start       domain.Coordinate
	BearingDeg  float64
	DistanceKm  float64
	SnapRadiusM float64
	tuning      ProposerTuning
}

// NewRadialProposal draws a uniform bearing and a straight-line distance
// within the tuning's radial range, scaled to targetKm and capped at one
// provider leg. All randomness is consumed here.
func NewRadialProposal(start domain.Coordinate, targetKm float64, rng *rand.Rand, t ProposerTuning) RadialProposal {
	lo, hi := t.RadialRange(targetKm)
	return RadialProposal{
		Start:       start,
		BearingDeg:  rng.Float64() * 360,
		DistanceKm:  lo + rng.Float64()*(hi-lo),
		SnapRadiusM: t.InitialSnapRadiusM,
		tuning:      t,
	}
}

// RadialRange is the straight-line distance range for a daily target.
func (t ProposerTuning) RadialRange(targetKm float64) (lo, hi float64) {
	scale := 1.0
	if t.RadialReferenceKm > 0 && targetKm > 0 {
		scale = targetKm / t.RadialReferenceKm
	}
	clamp := func(km float64) float64 {
		return math.Min(math.Max(km, t.MinRadiusKm), t.MaxLegKm)
	}
	return clamp(t.RadialMinKm * scale), clamp(t.RadialMaxKm * scale)
}

// NewFollowOnRadialProposal seeds a later day heading away from the previous
// day's bearing (opposite ±90°) so consecutive days do not retrace each other.
func NewFollowOnRadialProposal(start domain.Coordinate, previousBearingDeg, targetKm float64, rng *rand.Rand, t ProposerTuning) RadialProposal {
	p := NewRadialProposal(start, targetKm, rng, t)
	p.BearingDeg = normalizeBearing(previousBearingDeg + 180 + (rng.Float64()*180 - 90))
	return p
}

func (p RadialProposal) End() domain.Coordinate {
	return domain.CoordinateFromPoint(geo.PointAtBearingAndDistance(p.Start.Point(), p.BearingDeg, p.DistanceKm*1000))
}

func (p RadialProposal) Waypoints() (domain.WaypointSet, error) {
	return domain.NewWaypointSet(p.SnapRadiusM, p.Start, p.End())
}

func (p RadialProposal) Adjust(fb Feedback) Proposal {
	next := p
	switch {
	case fb.relocate():
		// Explore a different direction instead of resizing an unroutable one.
		next.BearingDeg = normalizeBearing(p.BearingDeg + p.tuning.RotateStepDeg)
		next.DistanceKm = math.Min(p.DistanceKm*p.tuning.RelocateGrowth, p.tuning.MaxLegKm)
		next.SnapRadiusM = math.Min(p.SnapRadiusM*p.tuning.SnapGrowth, p.tuning.MaxSnapRadiusM)
	case fb.Verdict == domain.VerdictTooLong:
		next.DistanceKm = math.Max(p.DistanceKm*p.tuning.ShrinkFactor, p.tuning.MinRadiusKm)
	case fb.Verdict == domain.VerdictTooShort:
		next.DistanceKm = math.Min(p.DistanceKm*p.tuning.GrowFactor, p.tuning.MaxLegKm)
	}
	return next
}

func normalizeBearing(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
