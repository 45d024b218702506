package domain

import (
	"errors"
	"fmt"
)

// WaypointSet is the ordered coordinate list sent to the routing provider.
// It is never mutated after construction; every search attempt gets its own set.
type WaypointSet struct {
	points      []Coordinate
	snapRadiusM float64
}

// NewWaypointSet copies points into a new set. snapRadiusM <= 0 leaves the
// provider default in place.
func NewWaypointSet(snapRadiusM float64, points ...Coordinate) (WaypointSet, error) {
	if len(points) < 2 {
		return WaypointSet{}, errors.New("waypoint set: at least 2 coordinates required")
	}
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return WaypointSet{}, fmt.Errorf("waypoint set: point %d: %w", i, err)
		}
	}

	cp := make([]Coordinate, len(points))
	copy(cp, points)
	return WaypointSet{points: cp, snapRadiusM: snapRadiusM}, nil
}

func (w WaypointSet) Len() int { return len(w.points) }

// Points returns a copy of the coordinates.
func (w WaypointSet) Points() []Coordinate {
	cp := make([]Coordinate, len(w.points))
	copy(cp, w.points)
	return cp
}

func (w WaypointSet) At(i int) Coordinate { return w.points[i] }

func (w WaypointSet) First() Coordinate {
	if len(w.points) == 0 {
		return Coordinate{}
	}
	return w.points[0]
}

func (w WaypointSet) Last() Coordinate {
	if len(w.points) == 0 {
		return Coordinate{}
	}
	return w.points[len(w.points)-1]
}

func (w WaypointSet) SnapRadiusM() float64 { return w.snapRadiusM }

func (w WaypointSet) IsZero() bool { return len(w.points) == 0 }
