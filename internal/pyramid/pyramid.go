// Package pyramid keeps a multi-resolution set of tiles consistent with a
// moving viewport: it decides which tiles must exist, feeds the loader,
// retains fallbacks across zoom transitions and prunes what is no longer
// needed.
package pyramid

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"tilemap/internal/cache"
	"tilemap/internal/geo"
	"tilemap/internal/loader"
	"tilemap/internal/viewport"
)

// childRetentionLimit bounds how many current tiles get their children
// retained per update; retention is best-effort.
const childRetentionLimit = 4

// Pyramid orchestrates tile state across zoom levels. It is not safe for
// concurrent use; the owner drives it from a single update loop.
type Pyramid struct {
	opts   Options
	cache  *cache.Cache
	loader *loader.Loader
	log    *zap.Logger

	levels map[uint8]*level
	now    func() time.Time
}

// New builds a pyramid backed by the given cache and loader. The loader's
// cached-tile predicate is pointed at the cache so prefetching skips
// warm tiles.
func New(opts Options, c *cache.Cache, l *loader.Loader, log *zap.Logger) *Pyramid {
	opts = opts.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	l.SetCachedFunc(c.Contains)
	return &Pyramid{
		opts:   opts,
		cache:  c,
		loader: l,
		log:    log.Named("pyramid"),
		levels: make(map[uint8]*level),
		now:    time.Now,
	}
}

// TargetZoom is the integer pyramid level for a fractional viewport zoom.
func (p *Pyramid) TargetZoom(zoom float64) uint8 {
	z := math.Floor(zoom)
	if z < float64(p.opts.MinZoom) {
		z = float64(p.opts.MinZoom)
	}
	if z > float64(p.opts.MaxZoom) {
		z = float64(p.opts.MaxZoom)
	}
	return uint8(z)
}

// Update runs one pyramid pass against the viewport: drain finished
// loads, mark and request the tiles the view needs, retain fallbacks and
// prune the rest.
func (p *Pyramid) Update(v *viewport.Viewport) {
	p.drainResults()

	target := p.TargetZoom(v.Zoom)
	visible := p.visibleRange(v, target)
	buffered := visible.Expand(p.opts.KeepBuffer)

	p.resetCurrent()
	p.markCurrent(buffered)
	p.requestMissing(visible, buffered)
	p.retainParents(target)
	p.retainChildren(target)
	p.prune(target)

	p.loader.UpdateViewport(v.Center, v.Bounds(), target)
}

// VisibleRange returns the tile rectangle covering the viewport at the
// pyramid's target zoom for the given view.
func (p *Pyramid) VisibleRange(v *viewport.Viewport) geo.TileRange {
	return p.visibleRange(v, p.TargetZoom(v.Zoom))
}

// BufferedRange is VisibleRange expanded by the keep buffer.
func (p *Pyramid) BufferedRange(v *viewport.Viewport) geo.TileRange {
	return p.VisibleRange(v).Expand(p.opts.KeepBuffer)
}

// visibleRange projects the viewport rectangle into tile indices at zoom
// z. The viewport may sit at a fractional zoom; the pixel bounds are
// scaled down to the level's resolution first.
func (p *Pyramid) visibleRange(v *viewport.Viewport, z uint8) geo.TileRange {
	c := geo.Project(v.Center, float64(z))
	scale := math.Pow(2, v.Zoom-float64(z))
	halfW := v.Width / (2 * scale)
	halfH := v.Height / (2 * scale)
	ts := float64(p.opts.TileSize)

	minX := math.Floor((c.X - halfW) / ts)
	minY := math.Floor((c.Y - halfH) / ts)
	maxX := math.Ceil((c.X+halfW)/ts) - 1
	maxY := math.Ceil((c.Y+halfH)/ts) - 1

	max := float64(uint32(1)<<z - 1)
	clamp := func(f float64) uint32 {
		if f < 0 {
			return 0
		}
		if f > max {
			return uint32(max)
		}
		return uint32(f)
	}
	return geo.TileRange{
		MinX: clamp(minX), MinY: clamp(minY),
		MaxX: clamp(maxX), MaxY: clamp(maxY),
		Zoom: z,
	}
}

func (p *Pyramid) ensureLevel(z uint8) *level {
	if l, ok := p.levels[z]; ok {
		return l
	}
	l := newLevel(z)
	p.levels[z] = l
	return l
}

func (p *Pyramid) resetCurrent() {
	for _, lv := range p.levels {
		for _, t := range lv.tiles {
			t.Current = false
		}
	}
}

func (p *Pyramid) markCurrent(buffered geo.TileRange) {
	lv := p.ensureLevel(buffered.Zoom)
	for _, c := range buffered.Coords() {
		if !p.withinBoundary(c) {
			continue
		}
		lv.ensure(c).Current = true
	}
}

// requestMissing queues loads for current tiles without data, serving
// from cache where possible. Visible tiles outrank the keep-buffer ring,
// and within each set tiles closer to the view center go first.
func (p *Pyramid) requestMissing(visible, buffered geo.TileRange) {
	lv := p.ensureLevel(buffered.Zoom)

	var visibleSet, bufferSet []geo.TileCoord
	for _, c := range buffered.Coords() {
		if !p.withinBoundary(c) {
			continue
		}
		if visible.Contains(c) {
			visibleSet = append(visibleSet, c)
		} else {
			bufferSet = append(bufferSet, c)
		}
	}
	cx, cy := buffered.Center()
	sortByDistance(visibleSet, cx, cy)
	sortByDistance(bufferSet, cx, cy)

	p.requestSet(lv, visibleSet, loader.PriorityVisible)
	p.requestSet(lv, bufferSet, loader.PriorityAdjacent)
}

func (p *Pyramid) requestSet(lv *level, coords []geo.TileCoord, prio loader.Priority) {
	for _, c := range coords {
		t := lv.ensure(c)
		if t.Loaded() || t.Loading {
			continue
		}
		if data, ok := p.cache.Get(c); ok {
			t.markLoaded(data, p.now())
			continue
		}
		if p.loader.Enqueue(c, prio) || p.loader.IsPending(c) {
			t.Loading = true
			t.Err = nil
		}
	}
}

func sortByDistance(coords []geo.TileCoord, cx, cy float64) {
	sort.Slice(coords, func(i, j int) bool {
		return tileDist(coords[i], cx, cy) < tileDist(coords[j], cx, cy)
	})
}

func tileDist(c geo.TileCoord, cx, cy float64) float64 {
	dx := float64(c.X) - cx
	dy := float64(c.Y) - cy
	return dx*dx + dy*dy
}

// retainParents keeps one-level-up fallbacks alive under every current
// tile that has no data yet, loading them from cache when possible or at
// background priority otherwise.
func (p *Pyramid) retainParents(target uint8) {
	if target == 0 || target <= p.opts.MinZoom {
		return
	}
	lv, ok := p.levels[target]
	if !ok {
		return
	}
	parentLv := p.ensureLevel(target - 1)
	for _, t := range lv.tiles {
		if !t.Current || t.Loaded() {
			continue
		}
		parent, ok := t.Coord.Parent()
		if !ok {
			continue
		}
		pt := parentLv.ensure(parent)
		pt.Retain = true
		if pt.Loaded() || pt.Loading {
			continue
		}
		if data, ok := p.cache.Get(parent); ok {
			pt.markLoaded(data, p.now())
			continue
		}
		if p.loader.Enqueue(parent, loader.PriorityBackground) || p.loader.IsPending(parent) {
			pt.Loading = true
		}
	}
}

// retainChildren marks already-loaded children of a few current tiles so
// zooming in has something to show immediately. No loads are issued.
func (p *Pyramid) retainChildren(target uint8) {
	if target >= p.opts.MaxZoom {
		return
	}
	lv, ok := p.levels[target]
	if !ok {
		return
	}
	childLv, ok := p.levels[target+1]
	if !ok {
		return
	}
	taken := 0
	for _, t := range lv.tiles {
		if !t.Current {
			continue
		}
		if taken >= childRetentionLimit {
			break
		}
		taken++
		for _, c := range t.Coord.Children() {
			if ct, ok := childLv.tile(c); ok && ct.Loaded() {
				ct.Retain = true
			}
		}
	}
}

// prune drops tiles that are neither current nor retained and have aged
// out, tiles outside the configured boundary, and whole levels too far
// from the target zoom.
func (p *Pyramid) prune(target uint8) {
	now := p.now()
	for z, lv := range p.levels {
		if levelDistance(z, target) > p.opts.MaxLevelDistance {
			delete(p.levels, z)
			continue
		}
		for coord, t := range lv.tiles {
			if !p.withinBoundary(coord) {
				delete(lv.tiles, coord)
				continue
			}
			if t.Current {
				continue
			}
			if t.Retain {
				// Retention lasts a single pass; it must be re-earned
				// on the next update.
				t.Retain = false
				continue
			}
			if t.Loaded() && now.Sub(t.LoadedAt) < p.opts.RetentionWindow {
				continue
			}
			delete(lv.tiles, coord)
		}
		if len(lv.tiles) == 0 && z != target {
			delete(p.levels, z)
		}
	}
}

func levelDistance(z, target uint8) int {
	d := int(z) - int(target)
	if d < 0 {
		d = -d
	}
	return d
}

// withinBoundary reports whether a tile's footprint intersects the
// configured bounds, expanded by the boundary buffer. Without configured
// bounds every valid tile passes.
func (p *Pyramid) withinBoundary(c geo.TileCoord) bool {
	if !c.Valid() {
		return false
	}
	if p.opts.Bounds == nil {
		return true
	}
	return p.opts.Bounds.Pad(p.opts.BoundaryBuffer).Intersects(c.Bounds())
}

// drainResults folds finished loads into tile state and the shared cache.
// Results for tiles pruned in the meantime still land in the cache.
func (p *Pyramid) drainResults() {
	p.loader.Drain(func(r loader.Result) {
		st := p.findTile(r.Coord)
		if r.Err != nil {
			p.log.Debug("tile load failed",
				zap.Stringer("tile", r.Coord),
				zap.Int("retries", r.Retries),
				zap.Error(r.Err))
			if st != nil {
				st.markErrored(r.Err)
			}
			return
		}
		p.cache.Put(r.Coord, r.Data)
		if st != nil {
			st.markLoaded(r.Data, p.now())
		}
	})
}

func (p *Pyramid) findTile(c geo.TileCoord) *TileState {
	lv, ok := p.levels[c.Z]
	if !ok {
		return nil
	}
	t, _ := lv.tile(c)
	return t
}

// TileCount returns the number of tile states across all levels.
func (p *Pyramid) TileCount() int {
	n := 0
	for _, lv := range p.levels {
		n += len(lv.tiles)
	}
	return n
}

// LevelZooms lists the zooms with live levels, unordered.
func (p *Pyramid) LevelZooms() []uint8 {
	out := make([]uint8, 0, len(p.levels))
	for z := range p.levels {
		out = append(out, z)
	}
	return out
}
