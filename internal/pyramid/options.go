package pyramid

import (
	"time"

	"tilemap/internal/geo"
)

// Options tunes the pyramid's geometry and retention behavior.
type Options struct {
	// TileSize is the pixel edge length used for tile-index arithmetic.
	TileSize int
	// MinZoom and MaxZoom clamp the target zoom and the levels created.
	MinZoom uint8
	MaxZoom uint8
	// KeepBuffer is the ring of extra tiles kept beyond the visible
	// rectangle to mask pan latency.
	KeepBuffer uint32
	// Bounds, when set, restricts loading and retention to a geographic
	// region expanded by BoundaryBuffer degrees.
	Bounds         *geo.LatLngBounds
	BoundaryBuffer float64
	// RetentionWindow is how long a loaded, non-current, non-retained
	// tile survives pruning.
	RetentionWindow time.Duration
	// FadeDuration is the opacity ramp applied to freshly loaded tiles.
	FadeDuration time.Duration
	// MaxLevelDistance removes whole levels further than this many zoom
	// steps from the target.
	MaxLevelDistance int
}

func DefaultOptions() Options {
	return Options{
		TileSize:         geo.TileSize,
		MinZoom:          0,
		MaxZoom:          19,
		KeepBuffer:       2,
		BoundaryBuffer:   0.1,
		RetentionWindow:  30 * time.Second,
		FadeDuration:     200 * time.Millisecond,
		MaxLevelDistance: 2,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TileSize <= 0 {
		o.TileSize = d.TileSize
	}
	if o.MaxZoom == 0 {
		o.MaxZoom = d.MaxZoom
	}
	if o.RetentionWindow <= 0 {
		o.RetentionWindow = d.RetentionWindow
	}
	if o.FadeDuration <= 0 {
		o.FadeDuration = d.FadeDuration
	}
	if o.MaxLevelDistance <= 0 {
		o.MaxLevelDistance = d.MaxLevelDistance
	}
	return o
}
