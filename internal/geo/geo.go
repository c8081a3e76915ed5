// Package geo resolves the coordinates a location-based request is for.
package geo

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var (
	// ErrUnsupported means no location source exists for the request.
	ErrUnsupported = errors.New("geolocation is not supported")
	// ErrUnavailable means a location was offered but could not be used.
	ErrUnavailable = errors.New("location is unavailable")
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lon float64 `yaml:"lon" json:"lon"`
}

func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func (p Point) String() string {
	return fmt.Sprintf("%g,%g", p.Lat, p.Lon)
}

// Locator reads coordinates from a request, falling back to a configured
// home location.
type Locator struct {
	fallback *Point
}

func NewLocator(fallback *Point) *Locator {
	return &Locator{fallback: fallback}
}

// FromQuery reads lat and lon from q. Without them it uses the fallback, and
// without a fallback it returns ErrUnsupported. Malformed or out-of-range
// coordinates return ErrUnavailable.
func (l *Locator) FromQuery(q url.Values) (Point, error) {
	latStr, lonStr := strings.TrimSpace(q.Get("lat")), strings.TrimSpace(q.Get("lon"))
	if latStr == "" && lonStr == "" {
		if l.fallback == nil {
			return Point{}, ErrUnsupported
		}
		return *l.fallback, nil
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return Point{}, fmt.Errorf("parse lat: %w", ErrUnavailable)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return Point{}, fmt.Errorf("parse lon: %w", ErrUnavailable)
	}
	p := Point{Lat: lat, Lon: lon}
	if !p.Valid() {
		return Point{}, fmt.Errorf("coordinates %s out of range: %w", p, ErrUnavailable)
	}
	return p, nil
}
