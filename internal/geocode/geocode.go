package geocode

import (
	"context"
	"errors"
	"strings"

	"github.com/Harshthakur24/Env-Dashboard/internal/models"
)

var ErrNotFound = errors.New("geocode not found")

type Geocoder interface {
	Geocode(ctx context.Context, query string) (lat float64, lon float64, displayName string, confidence float64, err error)
}

// BuildGeocodeQuery assembles the free-text query for a composting site,
// most specific part first.
func BuildGeocodeQuery(location string, country string) string {
	location = strings.TrimSpace(location)
	country = strings.TrimSpace(country)
	parts := []string{}
	if location != "" {
		parts = append(parts, location)
	}
	if country != "" {
		parts = append(parts, country)
	}
	return strings.Join(parts, ", ")
}

// ShouldGeocode reports whether a site still needs coordinates.
func ShouldGeocode(site models.SiteLocation, force bool) bool {
	if force {
		return true
	}
	return site.Lat == nil || site.Lon == nil
}
