// Package viewport models the visible window onto the map: a center,
// a fractional zoom and a pixel size, with the math to move between
// screen space and geographic space.
package viewport

import (
	"math"

	"tilemap/internal/geo"
)

// zoomEpsilon is the smallest zoom change worth applying.
const zoomEpsilon = 0.001

// Viewport is a window onto the Web Mercator plane.
type Viewport struct {
	Center  geo.LatLng
	Zoom    float64
	Width   float64
	Height  float64
	MinZoom float64
	MaxZoom float64
}

// New builds a viewport at the given center, zoom and pixel size with the
// default zoom limits.
func New(center geo.LatLng, zoom, width, height float64) *Viewport {
	v := &Viewport{
		Center:  clampCenter(center),
		Width:   width,
		Height:  height,
		MinZoom: 0,
		MaxZoom: 19,
	}
	v.Zoom = v.clampZoom(zoom)
	return v
}

func clampCenter(ll geo.LatLng) geo.LatLng {
	return geo.LatLng{
		Lat: geo.ClampLat(ll.Lat),
		Lng: math.Max(-180, math.Min(180, ll.Lng)),
	}
}

func (v *Viewport) clampZoom(zoom float64) float64 {
	return math.Max(v.MinZoom, math.Min(v.MaxZoom, zoom))
}

// SetCenter moves the viewport, clamping the position into the projectable
// world square.
func (v *Viewport) SetCenter(ll geo.LatLng) {
	v.Center = clampCenter(ll)
}

// SetZoom sets the zoom, clamped to the viewport's limits.
func (v *Viewport) SetZoom(zoom float64) {
	v.Zoom = v.clampZoom(zoom)
}

// Resize updates the pixel size of the window.
func (v *Viewport) Resize(width, height float64) {
	v.Width = width
	v.Height = height
}

// Size returns the pixel dimensions as a point.
func (v *Viewport) Size() geo.Point {
	return geo.Point{X: v.Width, Y: v.Height}
}

// PixelOrigin is the world pixel position of the top-left screen corner at
// the current zoom.
func (v *Viewport) PixelOrigin() geo.Point {
	c := geo.Project(v.Center, v.Zoom)
	return geo.Point{X: c.X - v.Width/2, Y: c.Y - v.Height/2}
}

// ScreenToLatLng converts a screen position into a geographic one.
func (v *Viewport) ScreenToLatLng(p geo.Point) geo.LatLng {
	return geo.Unproject(v.PixelOrigin().Add(p), v.Zoom)
}

// LatLngToScreen converts a geographic position into screen pixels.
func (v *Viewport) LatLngToScreen(ll geo.LatLng) geo.Point {
	return geo.Project(ll, v.Zoom).Sub(v.PixelOrigin())
}

// Pan shifts the view by a screen-pixel delta.
func (v *Viewport) Pan(delta geo.Point) {
	c := geo.Project(v.Center, v.Zoom).Add(delta)
	v.Center = clampCenter(geo.Unproject(c, v.Zoom))
}

// ZoomTo changes the zoom while keeping the geographic point under focus
// (a screen position) fixed on screen. Changes below zoomEpsilon are
// ignored.
func (v *Viewport) ZoomTo(zoom float64, focus geo.Point) {
	zoom = v.clampZoom(zoom)
	if math.Abs(zoom-v.Zoom) < zoomEpsilon {
		return
	}
	anchor := v.ScreenToLatLng(focus)
	// Solve for the center that puts anchor back under focus at the new
	// zoom: project(center) = project(anchor) - focus + size/2.
	p := geo.Project(anchor, zoom).Sub(focus).Add(v.Size().Mul(0.5))
	v.Zoom = zoom
	v.Center = clampCenter(geo.Unproject(p, zoom))
}

// Bounds returns the geographic rectangle currently visible.
func (v *Viewport) Bounds() geo.LatLngBounds {
	origin := v.PixelOrigin()
	nw := geo.Unproject(origin, v.Zoom)
	se := geo.Unproject(origin.Add(v.Size()), v.Zoom)
	return geo.LatLngBounds{
		SouthWest: geo.LatLng{Lat: se.Lat, Lng: nw.Lng},
		NorthEast: geo.LatLng{Lat: nw.Lat, Lng: se.Lng},
	}
}

// FitBounds recenters on the bounds and picks the highest integer zoom at
// which the whole rectangle, plus padding pixels on each side, fits.
func (v *Viewport) FitBounds(b geo.LatLngBounds, padding float64) {
	nw := geo.LatLng{Lat: b.NorthEast.Lat, Lng: b.SouthWest.Lng}
	se := geo.LatLng{Lat: b.SouthWest.Lat, Lng: b.NorthEast.Lng}
	availW := v.Width - 2*padding
	availH := v.Height - 2*padding

	best := v.MinZoom
	for z := math.Ceil(v.MinZoom); z <= v.MaxZoom; z++ {
		size := geo.Project(se, z).Sub(geo.Project(nw, z))
		if size.X > availW || size.Y > availH {
			break
		}
		best = z
	}
	v.Zoom = v.clampZoom(best)
	v.Center = clampCenter(b.Center())
}

// Resolution returns the meters-per-pixel scale at the current zoom.
func (v *Viewport) Resolution() float64 {
	return geo.Resolution(v.Zoom)
}
