// Package source defines where tile payloads come from. A Source turns a
// tile coordinate into a fetchable URL; the loader is agnostic to which
// provider is behind it.
package source

import (
	"fmt"
	"strconv"
	"strings"

	"tilemap/internal/geo"
)

// Provider name constants for consistent naming across the engine.
const (
	ProviderOSM       = "openstreetmap"
	ProviderSatellite = "satellite"
)

// Source produces the URL for a tile coordinate.
type Source interface {
	// Name identifies the provider, used for logging and cache keys.
	Name() string
	// URL returns the fetch URL for the given tile.
	URL(coord geo.TileCoord) string
}

// osmSource serves the standard OpenStreetMap raster layer, rotating
// across the a/b/c subdomains.
type osmSource struct {
	subdomains []string
}

// OpenStreetMap returns the default OSM tile source.
func OpenStreetMap() Source {
	return &osmSource{subdomains: []string{"a", "b", "c"}}
}

func (s *osmSource) Name() string { return ProviderOSM }

func (s *osmSource) URL(coord geo.TileCoord) string {
	sub := s.subdomains[int(coord.X+coord.Y)%len(s.subdomains)]
	return fmt.Sprintf("https://%s.tile.openstreetmap.org/%d/%d/%d.png", sub, coord.Z, coord.X, coord.Y)
}

// satelliteSource serves Esri World Imagery. Note the z/y/x path order.
type satelliteSource struct{}

// Satellite returns the Esri World Imagery source.
func Satellite() Source {
	return satelliteSource{}
}

func (satelliteSource) Name() string { return ProviderSatellite }

func (satelliteSource) URL(coord geo.TileCoord) string {
	return fmt.Sprintf(
		"https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/%d/%d/%d",
		coord.Z, coord.Y, coord.X,
	)
}

// xyzSource expands a user-supplied {z}/{x}/{y} URL template, optionally
// rotating {s} across subdomains.
type xyzSource struct {
	name       string
	template   string
	subdomains []string
}

// XYZ builds a source from a URL template containing {z}, {x} and {y}
// placeholders. A {s} placeholder rotates across subdomains; when none are
// given, "a", "b" and "c" are used.
func XYZ(name, template string, subdomains ...string) (Source, error) {
	if name == "" {
		return nil, fmt.Errorf("source name is required")
	}
	for _, ph := range []string{"{z}", "{x}", "{y}"} {
		if !strings.Contains(template, ph) {
			return nil, fmt.Errorf("source %q: URL template is missing %s", name, ph)
		}
	}
	if len(subdomains) == 0 {
		subdomains = []string{"a", "b", "c"}
	}
	return &xyzSource{name: name, template: template, subdomains: subdomains}, nil
}

func (s *xyzSource) Name() string { return s.name }

func (s *xyzSource) URL(coord geo.TileCoord) string {
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(int(coord.Z)),
		"{x}", strconv.FormatUint(uint64(coord.X), 10),
		"{y}", strconv.FormatUint(uint64(coord.Y), 10),
		"{s}", s.subdomains[int(coord.X+coord.Y)%len(s.subdomains)],
	)
	return r.Replace(s.template)
}
