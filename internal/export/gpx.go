package export

import (
	"errors"
	"fmt"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/orsreshef/travel-route-planner/internal/domain"
)

const creator = "travel-route-planner"

var ErrEmptyRoute = errors.New("route has no path")

// GPX renders a route as a GPX 1.1 document. Multi-day routes get one track
// per day so devices can load each day separately.
func GPX(r domain.RouteResult) ([]byte, error) {
	if len(r.Path) == 0 {
		return nil, ErrEmptyRoute
	}

	doc := gpx.GPX{
		Version:     "1.1",
		Creator:     creator,
		Name:        routeName(r),
		Description: fmt.Sprintf("%.1f km, %.0f min", r.DistanceKm, r.DurationMin),
	}

	if r.IsMultiDay && len(r.DayPlans) > 0 {
		for _, day := range r.DayPlans {
			doc.Tracks = append(doc.Tracks, track(fmt.Sprintf("Day %d", day.DayNumber), day.Path))
		}
	} else {
		doc.Tracks = append(doc.Tracks, track(routeName(r), r.Path))
	}

	out, err := doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return nil, fmt.Errorf("render gpx: %w", err)
	}
	return out, nil
}

func routeName(r domain.RouteResult) string {
	if r.IsMultiDay {
		return fmt.Sprintf("%d-day %s route", len(r.DayPlans), r.Activity)
	}
	return fmt.Sprintf("%s loop", r.Activity)
}

func track(name string, path []domain.Coordinate) gpx.GPXTrack {
	seg := gpx.GPXTrackSegment{Points: make([]gpx.GPXPoint, 0, len(path))}
	for _, c := range path {
		seg.Points = append(seg.Points, gpx.GPXPoint{
			Point: gpx.Point{Latitude: c.Lat, Longitude: c.Lng},
		})
	}
	return gpx.GPXTrack{Name: name, Segments: []gpx.GPXTrackSegment{seg}}
}
