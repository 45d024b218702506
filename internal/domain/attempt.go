package domain

import "fmt"

// Verdict is the evaluator's classification of a candidate route.
type Verdict int

const (
	VerdictUnusable Verdict = iota
	VerdictTooShort
	VerdictTooLong
	VerdictWithinAcceptable
	VerdictWithinIdeal
)

func (v Verdict) String() string {
	switch v {
	case VerdictTooShort:
		return "too_short"
	case VerdictTooLong:
		return "too_long"
	case VerdictWithinAcceptable:
		return "within_acceptable"
	case VerdictWithinIdeal:
		return "within_ideal"
	default:
		return "unusable"
	}
}

// Accepted reports whether the verdict ends a search successfully on its own.
func (v Verdict) Accepted() bool {
	return v == VerdictWithinIdeal || v == VerdictWithinAcceptable
}

// Classification is the evaluator output for one candidate.
type Classification struct {
	Verdict     Verdict
	DistanceKm  float64
	ErrorKm     float64 // distanceKm - targetDistanceKm
	ValidPoints int
	UnusableWhy string
}

// OutcomeKind tags the SearchAttempt outcome variant.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRejected
	OutcomeProviderError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRejected:
		return "rejected"
	default:
		return "provider_error"
	}
}

// SearchAttempt records one strategy attempt. Exactly one of Route (success),
// Classification (rejected) or ErrorKind (provider error) is meaningful,
// selected by Outcome.
type SearchAttempt struct {
	Index          int
	Waypoints      WaypointSet
	Profile        Profile
	Outcome        OutcomeKind
	Route          *CandidateRoute
	Classification Classification
	ErrorKind      OracleErrorKind
	// TransientRetries counts identical-parameter retries folded into this attempt.
	TransientRetries int
}

func (a SearchAttempt) String() string {
	switch a.Outcome {
	case OutcomeSuccess:
		return fmt.Sprintf("attempt=%d outcome=success verdict=%s distance_km=%.2f",
			a.Index, a.Classification.Verdict, a.Classification.DistanceKm)
	case OutcomeRejected:
		return fmt.Sprintf("attempt=%d outcome=rejected verdict=%s distance_km=%.2f",
			a.Index, a.Classification.Verdict, a.Classification.DistanceKm)
	default:
		return fmt.Sprintf("attempt=%d outcome=provider_error kind=%s", a.Index, a.ErrorKind)
	}
}
