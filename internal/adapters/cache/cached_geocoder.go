package cache

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/orsreshef/travel-route-planner/internal/domain"
	"github.com/orsreshef/travel-route-planner/internal/ports"
)

// CachedGeocoder consults a persistent cache before the wrapped geocoder and
// collapses concurrent lookups of the same place into one upstream call.
// Cache failures are logged and bypassed.
type CachedGeocoder struct {
	next   ports.Geocoder
	cache  ports.GeocodeCache
	group  singleflight.Group
	logger *zap.Logger
}

func NewCachedGeocoder(next ports.Geocoder, cache ports.GeocodeCache, logger *zap.Logger) *CachedGeocoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedGeocoder{next: next, cache: cache, logger: logger}
}

// PlaceKey is the cache key for a city in a country.
func PlaceKey(country, city string) string {
	norm := func(s string) string {
		return strings.ToLower(strings.Join(strings.Fields(s), " "))
	}
	return norm(country) + "|" + norm(city)
}

func (g *CachedGeocoder) Resolve(ctx context.Context, country, city string) (domain.Coordinate, error) {
	key := PlaceKey(country, city)

	if hits, err := g.cache.GetMany(ctx, []string{key}); err != nil {
		g.logger.Warn("geocode cache read failed", zap.String("place", key), zap.Error(err))
	} else if c, ok := hits[key]; ok {
		return c, nil
	}

	// The shared lookup runs detached from any one caller so a caller that
	// gives up does not fail the others waiting on the same place.
	shared := context.WithoutCancel(ctx)
	ch := g.group.DoChan(key, func() (any, error) {
		c, err := g.next.Resolve(shared, country, city)
		if err != nil {
			return nil, err
		}
		if err := g.cache.PutMany(shared, map[string]domain.Coordinate{key: c}); err != nil {
			g.logger.Warn("geocode cache write failed", zap.String("place", key), zap.Error(err))
		}
		return c, nil
	})

	select {
	case <-ctx.Done():
		return domain.Coordinate{}, fmt.Errorf("geocode %q: %w", key, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return domain.Coordinate{}, fmt.Errorf("geocode %q: %w", key, r.Err)
		}
		return r.Val.(domain.Coordinate), nil
	}
}
