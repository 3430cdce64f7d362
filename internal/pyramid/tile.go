package pyramid

import (
	"time"

	"tilemap/internal/geo"
)

// TileState tracks one tile's lifecycle inside a pyramid level.
type TileState struct {
	Coord geo.TileCoord
	// Data is the raw payload, shared with the cache. Nil until loaded.
	Data []byte
	// Loading is true while a fetch is queued or in flight.
	Loading bool
	// Err is the terminal load error, set after retries are exhausted.
	Err error
	// Current marks tiles inside the buffered visible range this update.
	Current bool
	// Retain blocks pruning for one pass, used for zoom-transition
	// fallbacks.
	Retain   bool
	LoadedAt time.Time
}

func newTileState(coord geo.TileCoord) *TileState {
	return &TileState{Coord: coord}
}

// Loaded reports whether the tile has a payload.
func (t *TileState) Loaded() bool { return t.Data != nil }

func (t *TileState) markLoaded(data []byte, at time.Time) {
	t.Data = data
	t.Loading = false
	t.Err = nil
	t.LoadedAt = at
}

func (t *TileState) markErrored(err error) {
	t.Loading = false
	t.Err = err
}

// level is one zoom tier of the pyramid.
type level struct {
	zoom  uint8
	tiles map[geo.TileCoord]*TileState
}

func newLevel(zoom uint8) *level {
	return &level{zoom: zoom, tiles: make(map[geo.TileCoord]*TileState)}
}

func (l *level) tile(coord geo.TileCoord) (*TileState, bool) {
	t, ok := l.tiles[coord]
	return t, ok
}

func (l *level) ensure(coord geo.TileCoord) *TileState {
	if t, ok := l.tiles[coord]; ok {
		return t
	}
	t := newTileState(coord)
	l.tiles[coord] = t
	return t
}
