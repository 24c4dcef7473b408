// Package address keeps a free-text delivery address and its map coordinates consistent.
package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/pkg/geocoding"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/types"
)

const (
	kindForward = "forward"
	kindReverse = "reverse"
	resultMiss  = "no_match"
)

type geocoder interface {
	Search(ctx context.Context, query string) (*geocoding.Place, error)
	Reverse(ctx context.Context, point types.GeoPoint) (*geocoding.Place, error)
}

// Resolver wraps the geocoding provider. Lookups are best effort and never return errors.
type Resolver struct {
	geo     geocoder
	logg    *logger.Logger
	metrics *metrics.Storefront
}

// NewResolver builds a resolver over geo.
func NewResolver(geo geocoder, logg *logger.Logger, m *metrics.Storefront) (*Resolver, error) {
	if geo == nil {
		return nil, fmt.Errorf("geocoder required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Resolver{geo: geo, logg: logg, metrics: m}, nil
}

// GeocodeForward returns the best match for text. ok is false on no match or provider failure.
func (r *Resolver) GeocodeForward(ctx context.Context, text string) (types.GeoPoint, bool) {
	place, err := r.geo.Search(ctx, text)
	if err != nil {
		r.observe(ctx, kindForward, err)
		return types.GeoPoint{}, false
	}
	r.observe(ctx, kindForward, nil)
	return place.Location, true
}

// GeocodeReverse returns the nearest address. On failure or an empty result it returns a label embedding
// the raw coordinates and ok is false.
func (r *Resolver) GeocodeReverse(ctx context.Context, lat, lng float64) (label string, ok bool) {
	point := types.GeoPoint{Lat: lat, Lng: lng}
	place, err := r.geo.Reverse(ctx, point)
	if err != nil {
		r.observe(ctx, kindReverse, err)
		return FallbackLabel(point), false
	}
	r.observe(ctx, kindReverse, nil)
	if label = strings.TrimSpace(place.DisplayName); label == "" {
		return FallbackLabel(point), false
	}
	return label, true
}

// FallbackLabel is the displayable address used when reverse geocoding fails.
func FallbackLabel(p types.GeoPoint) string {
	return "Coordonnées GPS: " + p.String()
}

func (r *Resolver) observe(ctx context.Context, kind string, err error) {
	switch {
	case err == nil:
		r.metrics.Geocode(kind, metrics.ResultOK)
	case errors.Is(err, geocoding.ErrNoMatch):
		r.metrics.Geocode(kind, resultMiss)
		r.logg.Debug(r.logg.WithField(ctx, "kind", kind), "geocoding found no match")
	default:
		r.metrics.Geocode(kind, metrics.ResultError)
		r.logg.WarnErr(r.logg.WithField(ctx, "kind", kind), "geocoding failed", err)
	}
}
