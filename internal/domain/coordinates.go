package domain

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Immutable geographic coordinate in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Validate rejects NaN/Inf, out-of-range values and the (0,0) sentinel.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return fmt.Errorf("%w: non-finite value (%v, %v)", ErrInvalidCoordinate, c.Lat, c.Lng)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinate, c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinate, c.Lng)
	}
	if c.Lat == 0 && c.Lng == 0 {
		return fmt.Errorf("%w: (0,0) is not accepted", ErrInvalidCoordinate)
	}
	return nil
}

func (c Coordinate) Valid() bool { return c.Validate() == nil }

// Return coordinates as [lng, lat] for external API compatibility.
func (c Coordinate) CoordsToList() []float64 { return []float64{c.Lng, c.Lat} }

// Point converts to an orb point (x = lng, y = lat).
func (c Coordinate) Point() orb.Point { return orb.Point{c.Lng, c.Lat} }

func CoordinateFromPoint(p orb.Point) Coordinate {
	return Coordinate{Lat: p.Lat(), Lng: p.Lon()}
}

// LineString converts a path to an orb line string.
func LineString(path []Coordinate) orb.LineString {
	ls := make(orb.LineString, 0, len(path))
	for _, c := range path {
		ls = append(ls, c.Point())
	}
	return ls
}
