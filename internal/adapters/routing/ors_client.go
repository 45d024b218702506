package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"github.com/orsreshef/travel-route-planner/internal/domain"
	"github.com/orsreshef/travel-route-planner/internal/platform/obs"
	"github.com/orsreshef/travel-route-planner/internal/ports"
)

const (
	DefaultBaseURL = "https://api.openrouteservice.org"
	ProviderName   = "openrouteservice"

	// MaxLegKm is the longest straight-line gap between consecutive waypoints
	// sent to the provider. Longer legs are rejected locally.
	MaxLegKm = 80.0

	// Fastest believable average speeds; anything faster marks the provider
	// duration as suspect.
	maxFootKmh    = 20.0
	maxCyclingKmh = 60.0
)

// ORSClient implements RouteOracle and Geocoder using OpenRouteService.
//
// Directions calls are neither rate limited nor retried here; the search
// controller owns both. Geocoding calls wait on the limiter given with
// WithLimiter, under the same provider key, so both draw on one quota.
// The client is safe for concurrent use.
type ORSClient struct {
	session      *http.Client
	apiKey       string
	baseURL      string
	retryBackoff time.Duration
	limiter      ports.RateLimiter
}

type Option func(*ORSClient)

func WithBaseURL(u string) Option {
	return func(o *ORSClient) { o.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *ORSClient) { o.session = c }
}

// WithRetryBackoff sets the first geocoding retry delay.
func WithRetryBackoff(d time.Duration) Option {
	return func(o *ORSClient) { o.retryBackoff = d }
}

// WithLimiter makes geocoding requests wait for a provider slot.
func WithLimiter(l ports.RateLimiter) Option {
	return func(o *ORSClient) { o.limiter = l }
}

func NewORSClient(apiKey string, opts ...Option) (*ORSClient, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	client := &ORSClient{
		session:      &http.Client{Timeout: 20 * time.Second},
		apiKey:       apiKey,
		baseURL:      DefaultBaseURL,
		retryBackoff: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

func (o *ORSClient) Name() string { return ProviderName }

func (o *ORSClient) wait(ctx context.Context) error {
	if o.limiter == nil {
		return nil
	}
	return o.limiter.Wait(ctx, ProviderName)
}

type directionsRequest struct {
	Coordinates  [][]float64 `json:"coordinates"`
	Elevation    bool        `json:"elevation"`
	Instructions bool        `json:"instructions"`
	Radiuses     []float64   `json:"radiuses,omitempty"`
}

// Route requests a path through waypoints in order.
func (o *ORSClient) Route(
	ctx context.Context,
	waypoints domain.WaypointSet,
	profile domain.Profile,
) (_ domain.CandidateRoute, err error) {
	defer obs.Time(ctx, "ors.Route")(&err)

	if err := precheck(waypoints, profile); err != nil {
		return domain.CandidateRoute{}, err
	}

	points := waypoints.Points()
	body := directionsRequest{
		Coordinates:  make([][]float64, 0, len(points)),
		Elevation:    true,
		Instructions: false,
	}
	for _, p := range points {
		body.Coordinates = append(body.Coordinates, p.CoordsToList())
	}
	if r := waypoints.SnapRadiusM(); r > 0 {
		body.Radiuses = make([]float64, len(points))
		for i := range body.Radiuses {
			body.Radiuses[i] = r
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return domain.CandidateRoute{}, fmt.Errorf("marshal directions request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/directions/%s/geojson", o.baseURL, profile)
	req, err := o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return domain.CandidateRoute{}, err
	}

	resp, err := o.do(req)
	if err != nil {
		return domain.CandidateRoute{}, classify(ctx, profile, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.CandidateRoute{}, classify(ctx, profile, err)
	}

	route, err := decodeDirections(raw, profile)
	if err != nil {
		return domain.CandidateRoute{}, &domain.OracleError{
			Kind:    domain.OracleUnroutable,
			Profile: profile,
			Message: "unreadable directions response",
			Err:     err,
		}
	}
	route.Waypoints = waypoints

	return route, nil
}

func precheck(waypoints domain.WaypointSet, profile domain.Profile) error {
	invalid := func(msg string) error {
		return &domain.OracleError{Kind: domain.OracleInvalidRequest, Profile: profile, Message: msg}
	}

	if waypoints.Len() < 2 {
		return invalid("at least 2 waypoints are required")
	}
	points := waypoints.Points()
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return invalid(fmt.Sprintf("waypoint %d: %v", i, err))
		}
		if i == 0 {
			continue
		}
		legKm := geo.DistanceHaversine(points[i-1].Point(), p.Point()) / 1000
		if legKm > MaxLegKm {
			return invalid(fmt.Sprintf("waypoints %d and %d are %.1f km apart (max %.0f)", i-1, i, legKm, MaxLegKm))
		}
	}
	return nil
}

func decodeDirections(raw []byte, profile domain.Profile) (domain.CandidateRoute, error) {
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return domain.CandidateRoute{}, fmt.Errorf("decode geojson: %w", err)
	}
	if len(fc.Features) == 0 {
		return domain.CandidateRoute{}, errors.New("no route in response")
	}

	feature := fc.Features[0]
	line, ok := feature.Geometry.(orb.LineString)
	if !ok {
		return domain.CandidateRoute{}, fmt.Errorf("unexpected geometry %T", feature.Geometry)
	}

	path := make([]domain.Coordinate, 0, len(line))
	for _, p := range line {
		path = append(path, domain.CoordinateFromPoint(p))
	}

	var distanceM, durationS float64
	if summary, ok := feature.Properties["summary"].(map[string]interface{}); ok {
		distanceM, _ = summary["distance"].(float64)
		durationS, _ = summary["duration"].(float64)
	}

	route := domain.CandidateRoute{
		Profile:        profile,
		Path:           path,
		DistanceKm:     distanceM / 1000,
		DurationMin:    durationS / 60,
		ElevationGainM: feature.Properties.MustFloat64("ascent", 0),
		RawPayload:     json.RawMessage(raw),
	}
	route.DurationSuspect = durationSuspect(route.DistanceKm, route.DurationMin, profile)

	return route, nil
}

// durationSuspect reports a duration that is missing or implies an average
// speed faster than the profile can travel.
func durationSuspect(distanceKm, durationMin float64, profile domain.Profile) bool {
	if distanceKm <= 0 {
		return false
	}
	if durationMin <= 0 || math.IsNaN(durationMin) {
		return true
	}
	maxKmh := maxFootKmh
	if profile.IsCycling() {
		maxKmh = maxCyclingKmh
	}
	return distanceKm/(durationMin/60) > maxKmh
}
