// Package geo turns free-text places into coordinates and rates the distance
// between a candidate and a posting.
package geo

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a place cannot be resolved.
var ErrNotFound = errors.New("location not found")

// Location is a geocoded place. It is never mutated after creation.
type Location struct {
	Query       string  `json:"query"`
	DisplayName string  `json:"display_name,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	City        string  `json:"city,omitempty"`
	Country     string  `json:"country,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
}

// Provider performs a single external lookup.
type Provider interface {
	Lookup(ctx context.Context, query string) (*Location, error)
}

// Store is a second-level cache shared between processes.
type Store interface {
	Get(ctx context.Context, key string) (*Location, error)
	Set(ctx context.Context, key string, loc *Location) error
}

// Site is the job side of a location comparison.
type Site struct {
	Text   string
	Remote bool
	Hybrid bool
	// Stored coordinates, used instead of geocoding Text when both are set.
	Latitude  *float64
	Longitude *float64
}

func (s Site) hasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}
