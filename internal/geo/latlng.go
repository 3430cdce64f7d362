package geo

import (
	"fmt"
	"math"
)

const (
	// EarthRadius is the spherical Mercator radius in meters.
	EarthRadius = 6378137.0

	// MaxLatitude is the highest latitude representable in Web Mercator.
	// Beyond this the projection diverges, so inputs are clamped to it.
	MaxLatitude = 85.0511287798

	// TileSize is the edge length of a raster tile in pixels.
	TileSize = 256
)

// LatLng is a geographic position in degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

func NewLatLng(lat, lng float64) LatLng {
	return LatLng{Lat: lat, Lng: lng}
}

// Valid reports whether the position is a finite point on the globe.
func (ll LatLng) Valid() bool {
	if math.IsNaN(ll.Lat) || math.IsNaN(ll.Lng) || math.IsInf(ll.Lat, 0) || math.IsInf(ll.Lng, 0) {
		return false
	}
	return ll.Lat >= -90 && ll.Lat <= 90 && ll.Lng >= -180 && ll.Lng <= 180
}

// DistanceTo returns the haversine distance to other in meters.
func (ll LatLng) DistanceTo(other LatLng) float64 {
	rad := math.Pi / 180
	lat1 := ll.Lat * rad
	lat2 := other.Lat * rad
	sinDLat := math.Sin((other.Lat - ll.Lat) * rad / 2)
	sinDLng := math.Sin((other.Lng - ll.Lng) * rad / 2)
	a := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLng*sinDLng
	return 2 * EarthRadius * math.Asin(math.Sqrt(a))
}

func (ll LatLng) String() string {
	return fmt.Sprintf("LatLng(%.6f, %.6f)", ll.Lat, ll.Lng)
}

// ClampLat limits a latitude to the Web Mercator range.
func ClampLat(lat float64) float64 {
	return math.Max(-MaxLatitude, math.Min(MaxLatitude, lat))
}

// WrapLng normalizes a longitude into [-180, 180).
func WrapLng(lng float64) float64 {
	wrapped := math.Mod(lng+180, 360)
	if wrapped < 0 {
		wrapped += 360
	}
	return wrapped - 180
}

// Point is a position in projected pixel space.
type Point struct {
	X float64
	Y float64
}

func (p Point) Add(o Point) Point      { return Point{p.X + o.X, p.Y + o.Y} }
func (p Point) Sub(o Point) Point      { return Point{p.X - o.X, p.Y - o.Y} }
func (p Point) Mul(s float64) Point    { return Point{p.X * s, p.Y * s} }
func (p Point) DistanceTo(o Point) float64 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	return math.Sqrt(dx*dx + dy*dy)
}
