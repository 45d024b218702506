package domain

import (
	"errors"
	"fmt"
)

// OracleErrorKind classifies a routing-provider failure.
type OracleErrorKind string

const (
	OracleInvalidRequest     OracleErrorKind = "invalid_request"
	OracleProfileUnavailable OracleErrorKind = "profile_unavailable"
	OracleUnroutable         OracleErrorKind = "unroutable"
	OracleAuth               OracleErrorKind = "auth"
	OracleTransient          OracleErrorKind = "transient"
)

// OracleError is returned by RouteOracle implementations.
type OracleError struct {
	Kind       OracleErrorKind
	Profile    Profile
	StatusCode int
	Message    string
	Err        error
}

func (e *OracleError) Error() string {
	msg := fmt.Sprintf("route oracle: %s", e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Kind == OracleProfileUnavailable && e.Profile != "" {
		msg += fmt.Sprintf(" profile=%s", e.Profile)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OracleError) Unwrap() error { return e.Err }

// OracleErrorKindOf extracts the kind from err, reporting false when err is
// not an *OracleError.
func OracleErrorKindOf(err error) (OracleErrorKind, bool) {
	var oe *OracleError
	if errors.As(err, &oe) {
		return oe.Kind, true
	}
	return "", false
}

// FailureKind is the caller-facing reason a route could not be planned.
type FailureKind string

const (
	// Caller error; never retried.
	FailureInvalidGoal FailureKind = "invalid_goal"
	// Provider credentials or configuration are broken.
	FailureProviderFatal FailureKind = "provider_fatal"
	// Every attempt hit a transient provider failure.
	FailureProviderUnavailable FailureKind = "provider_unavailable"
	// Attempts ran out without a route inside the acceptable band.
	FailureExhausted FailureKind = "exhausted_search"
	// The start location could not be resolved.
	FailureNoStartLocation FailureKind = "geocoding_failed"
	FailureCancelled       FailureKind = "cancelled"
)

// PlanError is the terminal failure of a route search or plan.
type PlanError struct {
	Kind   FailureKind
	Reason string
	// BestDistanceKm is the measured distance closest to the target, valid
	// when HasBest is set.
	BestDistanceKm float64
	HasBest        bool
	Attempts       int
	// Day is the failing day of a multi-day route, 0 otherwise.
	Day int
	Err error
}

func (e *PlanError) Error() string {
	msg := string(e.Kind)
	if e.Day > 0 {
		msg = fmt.Sprintf("day %d: %s", e.Day, msg)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.HasBest {
		msg += fmt.Sprintf(" (closest distance %.2f km after %d attempts)", e.BestDistanceKm, e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PlanError) Unwrap() error { return e.Err }

// AsPlanError returns the *PlanError in err's chain, if any.
func AsPlanError(err error) (*PlanError, bool) {
	var pe *PlanError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
