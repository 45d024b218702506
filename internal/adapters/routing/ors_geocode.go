package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/orsreshef/travel-route-planner/internal/domain"
	"github.com/orsreshef/travel-route-planner/internal/platform/obs"
	"github.com/orsreshef/travel-route-planner/internal/ports"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Resolve looks a city up with the OpenRouteService geocoder
// (/geocode/search). Transient failures are retried via doWithRetry; what
// still fails is returned as a *domain.OracleError so callers can tell an
// outage from an unknown place.
func (o *ORSClient) Resolve(
	ctx context.Context,
	country string,
	city string,
) (_ domain.Coordinate, err error) {
	defer obs.Time(ctx, "ors.Resolve")(&err)

	text := geocodeText(country, city)
	if text == "" {
		return domain.Coordinate{}, fmt.Errorf("resolve: %w: empty place name", ports.ErrLocationNotFound)
	}

	endpoint := o.baseURL + "/geocode/search"

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		if err := o.wait(ctx); err != nil {
			return nil, err
		}
		req, err := o.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", text)
		q.Set("layers", "locality,localadmin,county,region,country")
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("resolve %q: %w", text, classify(ctx, "", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Coordinate{}, fmt.Errorf("resolve %q: %w", text, &domain.OracleError{
			Kind:       domain.OracleTransient,
			StatusCode: resp.StatusCode,
			Message:    "unexpected geocode status",
		})
	}

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinate{}, fmt.Errorf("resolve %q: %w", text, &domain.OracleError{
			Kind:    domain.OracleTransient,
			Message: "decode geocode response",
			Err:     err,
		})
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinate{}, fmt.Errorf("resolve %q: %w", text, ports.ErrLocationNotFound)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) < 2 {
		return domain.Coordinate{}, fmt.Errorf("invalid coordinate format for %q", text)
	}

	return domain.Coordinate{Lng: coords[0], Lat: coords[1]}, nil
}

// geocodeText builds the "city, country" search text. An empty city searches
// for the country alone.
func geocodeText(country, city string) string {
	country, city = normalize(country), normalize(city)
	switch {
	case city == "":
		return country
	case country == "":
		return city
	default:
		return city + ", " + country
	}
}

// normalize collapses whitespace so equivalent names share cache keys.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
