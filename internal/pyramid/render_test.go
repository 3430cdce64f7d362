package pyramid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tilemap/internal/geo"
	"tilemap/internal/viewport"
)

func TestRenderTilesCoverLoadedView(t *testing.T) {
	p, _ := newTestPyramid(t, DefaultOptions())
	v := sfViewport()

	visible := p.VisibleRange(v)
	for _, c := range visible.Coords() {
		lv := p.ensureLevel(12)
		lv.ensure(c).markLoaded(pngPayload, p.now().Add(-time.Second))
	}

	out := p.RenderTiles(v)
	require.Len(t, out, visible.Count())
	for _, rt := range out {
		assert.Equal(t, pngPayload, rt.Data)
		assert.InDelta(t, 256.0, rt.Size, 1e-9)
		assert.Equal(t, 1.0, rt.Opacity)
	}
}

func TestRenderTileScreenPlacement(t *testing.T) {
	p, _ := newTestPyramid(t, DefaultOptions())
	v := sfViewport()

	sf := geo.TileAt(v.Center, 12)
	lv := p.ensureLevel(12)
	lv.ensure(sf).markLoaded(pngPayload, p.now().Add(-time.Second))

	out := p.RenderTiles(v)
	var found *RenderTile
	for i := range out {
		if out[i].Coord == sf {
			found = &out[i]
		}
	}
	require.NotNil(t, found)

	// The tile containing the center must cover the screen center.
	cx, cy := 400.0, 300.0
	assert.LessOrEqual(t, found.Origin.X, cx)
	assert.LessOrEqual(t, found.Origin.Y, cy)
	assert.GreaterOrEqual(t, found.Origin.X+found.Size, cx)
	assert.GreaterOrEqual(t, found.Origin.Y+found.Size, cy)
}

func TestRenderFallsBackToParent(t *testing.T) {
	p, _ := newTestPyramid(t, DefaultOptions())
	v := sfViewport()

	// No target-level tiles; one grandparent in cache.
	sf := geo.TileAt(v.Center, 12)
	parent, ok := sf.Parent()
	require.True(t, ok)
	grand, ok := parent.Parent()
	require.True(t, ok)
	p.cache.Put(grand, pngPayload)

	out := p.RenderTiles(v)
	require.NotEmpty(t, out)

	var found bool
	for _, rt := range out {
		if rt.Coord == grand {
			found = true
			// A z10 stand-in at a z12 view draws four times larger.
			assert.InDelta(t, 1024.0, rt.Size, 1e-9)
		}
		assert.LessOrEqual(t, int(rt.Coord.Z), 12)
	}
	assert.True(t, found)
}

func TestRenderParentsSortBeforeChildren(t *testing.T) {
	p, _ := newTestPyramid(t, DefaultOptions())
	v := sfViewport()

	visible := p.VisibleRange(v)
	lv := p.ensureLevel(12)
	coords := visible.Coords()
	// Load all but the first tile; give the missing one a cached parent.
	for _, c := range coords[1:] {
		lv.ensure(c).markLoaded(pngPayload, p.now().Add(-time.Second))
	}
	parent, ok := coords[0].Parent()
	require.True(t, ok)
	p.cache.Put(parent, pngPayload)

	out := p.RenderTiles(v)
	require.NotEmpty(t, out)
	assert.Equal(t, parent, out[0].Coord, "fallback parent draws first")
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i].Coord.Z, out[i-1].Coord.Z)
	}
}

func TestFreshTilesFadeIn(t *testing.T) {
	p, _ := newTestPyramid(t, DefaultOptions())
	v := sfViewport()

	sf := geo.TileAt(v.Center, 12)
	lv := p.ensureLevel(12)
	lv.ensure(sf).markLoaded(pngPayload, p.now())

	out := p.RenderTiles(v)
	for _, rt := range out {
		if rt.Coord == sf {
			assert.Less(t, rt.Opacity, 1.0)
		}
	}
}

func TestRenderEmptyPyramid(t *testing.T) {
	p, _ := newTestPyramid(t, DefaultOptions())
	v := viewport.New(geo.LatLng{Lat: 0, Lng: 0}, 2, 400, 400)
	assert.Empty(t, p.RenderTiles(v))
}
