package pyramid

import (
	"math"
	"sort"

	"tilemap/internal/geo"
	"tilemap/internal/viewport"
)

// parentFallbackDepth is how many zoom levels up the render pass will walk
// looking for a stand-in while the target tile loads.
const parentFallbackDepth = 3

// RenderTile is one draw instruction handed to the external render sink:
// raw payload bytes plus a screen-space rectangle and opacity. The
// pyramid never decodes or draws pixels itself.
type RenderTile struct {
	Coord geo.TileCoord
	Data  []byte
	// Origin is the top-left corner in screen pixels.
	Origin geo.Point
	// Size is the on-screen edge length; parent fallbacks draw larger
	// than one tile.
	Size    float64
	Opacity float64
}

// RenderTiles produces the draw list for the current view: every visible
// tile that has data, with lower-resolution parents standing in for tiles
// still loading. Parents sort first so they draw underneath.
func (p *Pyramid) RenderTiles(v *viewport.Viewport) []RenderTile {
	target := p.TargetZoom(v.Zoom)
	visible := p.visibleRange(v, target)
	now := p.now()

	var out []RenderTile
	fallbacks := make(map[geo.TileCoord]bool)

	for _, c := range visible.Coords() {
		if data, ok := p.tileData(c); ok {
			rt := p.renderTile(v, c, data)
			st := p.findTile(c)
			if st != nil && st.Loaded() {
				rt.Opacity = p.fadeOpacity(now.Sub(st.LoadedAt).Seconds())
			}
			out = append(out, rt)
			continue
		}
		// Walk up the pyramid for the nearest loaded ancestor.
		parent := c
		for i := 0; i < parentFallbackDepth; i++ {
			var ok bool
			parent, ok = parent.Parent()
			if !ok {
				break
			}
			if fallbacks[parent] {
				break
			}
			if data, found := p.tileData(parent); found {
				fallbacks[parent] = true
				out = append(out, p.renderTile(v, parent, data))
				break
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Coord.Z < out[j].Coord.Z })
	return out
}

// tileData returns payload bytes from live state first, then the cache.
func (p *Pyramid) tileData(c geo.TileCoord) ([]byte, bool) {
	if st := p.findTile(c); st != nil && st.Loaded() {
		return st.Data, true
	}
	return p.cache.Peek(c)
}

func (p *Pyramid) renderTile(v *viewport.Viewport, c geo.TileCoord, data []byte) RenderTile {
	scale := math.Pow(2, v.Zoom-float64(c.Z))
	ts := float64(p.opts.TileSize)
	origin := geo.Point{
		X: float64(c.X) * ts * scale,
		Y: float64(c.Y) * ts * scale,
	}.Sub(v.PixelOrigin())
	return RenderTile{
		Coord:   c,
		Data:    data,
		Origin:  origin,
		Size:    ts * scale,
		Opacity: 1,
	}
}

func (p *Pyramid) fadeOpacity(ageSeconds float64) float64 {
	fade := p.opts.FadeDuration.Seconds()
	if fade <= 0 || ageSeconds >= fade {
		return 1
	}
	if ageSeconds < 0 {
		return 0
	}
	return ageSeconds / fade
}
