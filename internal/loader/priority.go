package loader

import (
	"math"

	"tilemap/internal/geo"
)

// AdaptivePriority classifies how urgently a tile is needed for the given
// view. Tiles more than two zoom levels off are background work; tiles
// whose center sits inside the visible bounds are visible; the rest scale
// down with their distance outside the bounds.
func AdaptivePriority(coord geo.TileCoord, visible geo.LatLngBounds, viewZoom float64) Priority {
	if math.Abs(float64(coord.Z)-viewZoom) > 2 {
		return PriorityBackground
	}

	center := coord.Center()
	if visible.Contains(center) {
		return PriorityVisible
	}

	// Overshoot beyond the bounds edge, in units of the bounds size.
	vc := visible.Center()
	latSpan := visible.LatSpan()
	lngSpan := visible.LngSpan()
	if latSpan <= 0 || lngSpan <= 0 {
		return PriorityBackground
	}
	dLat := math.Max(0, math.Abs(center.Lat-vc.Lat)-latSpan/2) / latSpan
	dLng := math.Max(0, math.Abs(center.Lng-vc.Lng)-lngSpan/2) / lngSpan
	d := math.Max(dLat, dLng)

	switch {
	case d < 0.1:
		return PriorityAdjacent
	case d < 0.2:
		return PriorityPrefetch
	default:
		return PriorityBackground
	}
}
