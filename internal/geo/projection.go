package geo

import "math"

// mercatorScale maps spherical Mercator meters into the unit world square.
const mercatorScale = 0.5 / (math.Pi * EarthRadius)

// ZoomScale returns the size of the world in pixels at the given zoom.
func ZoomScale(zoom float64) float64 {
	return TileSize * math.Pow(2, zoom)
}

// projectMercator converts a geographic position into spherical Mercator
// meters. Latitude is clamped to the projectable range first.
func projectMercator(ll LatLng) Point {
	lat := ClampLat(ll.Lat)
	sin := math.Sin(lat * math.Pi / 180)
	return Point{
		X: EarthRadius * ll.Lng * math.Pi / 180,
		Y: EarthRadius * math.Log((1+sin)/(1-sin)) / 2,
	}
}

func unprojectMercator(p Point) LatLng {
	deg := 180 / math.Pi
	return LatLng{
		Lat: (2*math.Atan(math.Exp(p.Y/EarthRadius)) - math.Pi/2) * deg,
		Lng: p.X * deg / EarthRadius,
	}
}

// Project converts a geographic position into world pixel coordinates at
// the given zoom. The origin is the north-west corner of the world; X grows
// east and Y grows south.
func Project(ll LatLng, zoom float64) Point {
	m := projectMercator(ll)
	scale := ZoomScale(zoom)
	return Point{
		X: scale * (mercatorScale*m.X + 0.5),
		Y: scale * (-mercatorScale*m.Y + 0.5),
	}
}

// Unproject is the inverse of Project.
func Unproject(p Point, zoom float64) LatLng {
	scale := ZoomScale(zoom)
	return unprojectMercator(Point{
		X: (p.X/scale - 0.5) / mercatorScale,
		Y: -(p.Y/scale - 0.5) / mercatorScale,
	})
}

// Resolution returns the ground size of one pixel in meters at the equator
// for the given zoom.
func Resolution(zoom float64) float64 {
	return 2 * math.Pi * EarthRadius / ZoomScale(zoom)
}
