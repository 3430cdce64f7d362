package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tilemap/internal/geo"
)

func TestScreenRoundTrip(t *testing.T) {
	v := New(geo.LatLng{Lat: 37.7749, Lng: -122.4194}, 12, 800, 600)

	center := v.ScreenToLatLng(geo.Point{X: 400, Y: 300})
	assert.InDelta(t, v.Center.Lat, center.Lat, 1e-9)
	assert.InDelta(t, v.Center.Lng, center.Lng, 1e-9)

	corner := v.ScreenToLatLng(geo.Point{X: 0, Y: 0})
	back := v.LatLngToScreen(corner)
	assert.InDelta(t, 0, back.X, 1e-6)
	assert.InDelta(t, 0, back.Y, 1e-6)
}

func TestPan(t *testing.T) {
	v := New(geo.LatLng{Lat: 37.7749, Lng: -122.4194}, 12, 800, 600)
	before := v.Center

	v.Pan(geo.Point{X: 100, Y: 0})
	assert.Greater(t, v.Center.Lng, before.Lng)
	assert.InDelta(t, before.Lat, v.Center.Lat, 1e-9)

	v.Pan(geo.Point{X: -100, Y: 0})
	assert.InDelta(t, before.Lng, v.Center.Lng, 1e-9)
}

func TestZoomToKeepsFocusPointFixed(t *testing.T) {
	v := New(geo.LatLng{Lat: 37.7749, Lng: -122.4194}, 12, 800, 600)
	focus := geo.Point{X: 200, Y: 150}
	anchor := v.ScreenToLatLng(focus)

	v.ZoomTo(14, focus)

	after := v.LatLngToScreen(anchor)
	assert.InDelta(t, focus.X, after.X, 1)
	assert.InDelta(t, focus.Y, after.Y, 1)
}

func TestZoomToIgnoresTinyChange(t *testing.T) {
	v := New(geo.LatLng{Lat: 10, Lng: 10}, 8, 800, 600)
	before := *v
	v.ZoomTo(8.0005, geo.Point{X: 0, Y: 0})
	assert.Equal(t, before.Zoom, v.Zoom)
	assert.Equal(t, before.Center, v.Center)
}

func TestZoomClamping(t *testing.T) {
	v := New(geo.LatLng{Lat: 0, Lng: 0}, 5, 400, 400)
	v.SetZoom(99)
	assert.Equal(t, v.MaxZoom, v.Zoom)
	v.SetZoom(-3)
	assert.Equal(t, v.MinZoom, v.Zoom)
}

func TestCenterClamping(t *testing.T) {
	v := New(geo.LatLng{Lat: 89, Lng: 200}, 5, 400, 400)
	assert.Equal(t, geo.MaxLatitude, v.Center.Lat)
	assert.Equal(t, 180.0, v.Center.Lng)
}

func TestBoundsContainCenter(t *testing.T) {
	v := New(geo.LatLng{Lat: 37.7749, Lng: -122.4194}, 12, 800, 600)
	b := v.Bounds()
	assert.True(t, b.Contains(v.Center))
	assert.Less(t, b.SouthWest.Lat, b.NorthEast.Lat)
	assert.Less(t, b.SouthWest.Lng, b.NorthEast.Lng)
}

func TestFitBounds(t *testing.T) {
	v := New(geo.LatLng{Lat: 0, Lng: 0}, 2, 800, 600)
	target := geo.NewLatLngBounds(
		geo.LatLng{Lat: 37.6, Lng: -122.6},
		geo.LatLng{Lat: 37.9, Lng: -122.2},
	)

	v.FitBounds(target, 20)

	c := target.Center()
	assert.InDelta(t, c.Lat, v.Center.Lat, 1e-9)
	assert.InDelta(t, c.Lng, v.Center.Lng, 1e-9)
	require.Greater(t, v.Zoom, 2.0)

	// The fitted bounds must actually be visible.
	visible := v.Bounds()
	assert.True(t, visible.Contains(target.SouthWest))
	assert.True(t, visible.Contains(target.NorthEast))
}
