package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// GeoPoint is a WGS84 latitude/longitude pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both coordinates are finite and within WGS84 bounds.
func (g GeoPoint) Valid() bool {
	if math.IsNaN(g.Lat) || math.IsNaN(g.Lng) || math.IsInf(g.Lat, 0) || math.IsInf(g.Lng, 0) {
		return false
	}
	return g.Lat >= -90 && g.Lat <= 90 && g.Lng >= -180 && g.Lng <= 180
}

// String renders the point with six decimals, roughly 10cm of precision.
func (g GeoPoint) String() string {
	return fmt.Sprintf("%.6f, %.6f", g.Lat, g.Lng)
}

// ParseGeoPoint accepts "lat,lng" text as returned by geocoders that quote numbers.
func ParseGeoPoint(lat, lng string) (GeoPoint, error) {
	la, err := parseCoordinate(lat)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("geo point: lat %w", err)
	}
	ln, err := parseCoordinate(lng)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("geo point: lng %w", err)
	}
	p := GeoPoint{Lat: la, Lng: ln}
	if !p.Valid() {
		return GeoPoint{}, fmt.Errorf("geo point: out of range %s", p)
	}
	return p, nil
}

func parseCoordinate(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty coordinate")
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse coordinate %w", err)
	}
	return f, nil
}
