package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Place is one entry of a places file.
type Place struct {
	Name        string   `json:"name" yaml:"name"`
	Aliases     []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Latitude    float64  `json:"latitude" yaml:"latitude"`
	Longitude   float64  `json:"longitude" yaml:"longitude"`
	Country     string   `json:"country,omitempty" yaml:"country,omitempty"`
	CountryCode string   `json:"country_code,omitempty" yaml:"country_code,omitempty"`
}

// Gazetteer is an offline Provider backed by a fixed list of places.
type Gazetteer struct {
	places map[string]Place
}

func NewGazetteer(places []Place) *Gazetteer {
	g := &Gazetteer{places: make(map[string]Place, len(places))}
	for _, p := range places {
		names := append([]string{p.Name}, p.Aliases...)
		for _, name := range names {
			if key := fold(name); key != "" {
				g.places[key] = p
			}
		}
	}
	return g
}

// LoadGazetteer reads a YAML or JSON list of places.
func LoadGazetteer(path string) (*Gazetteer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var places []Place
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &places)
	default:
		err = json.Unmarshal(data, &places)
	}
	if err != nil {
		return nil, fmt.Errorf("parse places file %s: %w", path, err)
	}
	return NewGazetteer(places), nil
}

func (g *Gazetteer) Len() int {
	return len(g.places)
}

// Lookup matches the whole query first and then its leading comma-separated
// part, so "Berlin, Germany" finds "Berlin".
func (g *Gazetteer) Lookup(ctx context.Context, query string) (*Location, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := []string{query}
	if head, _, found := strings.Cut(query, ","); found {
		candidates = append(candidates, head)
	}

	for _, c := range candidates {
		p, ok := g.places[fold(c)]
		if !ok {
			continue
		}
		return &Location{
			Query:       query,
			DisplayName: p.Name,
			Latitude:    p.Latitude,
			Longitude:   p.Longitude,
			City:        p.Name,
			Country:     p.Country,
			CountryCode: p.CountryCode,
		}, nil
	}
	return nil, ErrNotFound
}
