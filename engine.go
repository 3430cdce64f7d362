// Package tilemap wires the tile engine together: a viewport, a tile
// pyramid, a priority loader and an LRU cache behind one facade. The
// caller drives it from its render loop and draws whatever Update
// returns.
package tilemap

import (
	"fmt"

	"go.uber.org/zap"

	"tilemap/internal/cache"
	"tilemap/internal/config"
	"tilemap/internal/geo"
	"tilemap/internal/handlers/tileserver"
	"tilemap/internal/loader"
	"tilemap/internal/pyramid"
	"tilemap/internal/source"
	"tilemap/internal/viewport"
	"tilemap/pkg/logger"
)

// Engine is the top-level tile engine facade. Not safe for concurrent
// use; drive it from a single goroutine.
type Engine struct {
	cfg  *config.Config
	log  *zap.Logger
	view *viewport.Viewport

	cache   *cache.Cache
	loader  *loader.Loader
	pyramid *pyramid.Pyramid
	debug   *tileserver.Server
}

// Option customizes engine construction.
type Option func(*engineOptions)

type engineOptions struct {
	fetcher loader.Fetcher
	log     *zap.Logger
	bounds  *geo.LatLngBounds
	debug   bool
}

// WithFetcher injects the fetcher used for tile downloads. Tests use this
// to avoid the network.
func WithFetcher(f loader.Fetcher) Option {
	return func(o *engineOptions) { o.fetcher = f }
}

// WithLogger injects a pre-built logger instead of one derived from the
// configured level.
func WithLogger(l *zap.Logger) Option {
	return func(o *engineOptions) { o.log = l }
}

// WithBounds restricts loading and retention to a geographic region.
func WithBounds(b geo.LatLngBounds) Option {
	return func(o *engineOptions) { o.bounds = &b }
}

// WithDebugServer starts a loopback HTTP server exposing cached tiles and
// prometheus metrics.
func WithDebugServer() Option {
	return func(o *engineOptions) { o.debug = true }
}

// New builds an engine fetching from src under the given configuration.
// A nil cfg loads from the environment.
func New(cfg *config.Config, src source.Source, opts ...Option) (*Engine, error) {
	if cfg == nil {
		var err error
		cfg, err = config.New()
		if err != nil {
			return nil, err
		}
	}
	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}

	log := o.log
	if log == nil {
		var err error
		log, err = logger.New(cfg.Logger.Level)
		if err != nil {
			return nil, err
		}
	}

	c, err := cache.New(cfg.Cache.Capacity)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}

	l := loader.New(loader.Config{
		MaxConcurrent:    cfg.Loader.MaxConcurrent,
		MaxRetries:       cfg.Loader.MaxRetries,
		RetryDelay:       cfg.Loader.RetryDelay,
		QueueCapacity:    cfg.Loader.QueueCapacity,
		PrefetchEnabled:  cfg.Loader.PrefetchEnabled,
		MaxPrefetchTiles: cfg.Loader.MaxPrefetchTiles,
		NetworkAdaptive:  cfg.Loader.NetworkAdaptive,
	}, src, o.fetcher, log)

	popts := pyramid.DefaultOptions()
	popts.TileSize = cfg.Pyramid.TileSize
	popts.MinZoom = cfg.Pyramid.MinZoom
	popts.MaxZoom = cfg.Pyramid.MaxZoom
	popts.KeepBuffer = cfg.Pyramid.KeepBuffer
	popts.RetentionWindow = cfg.Pyramid.RetentionWindow
	popts.Bounds = o.bounds

	view := viewport.New(geo.LatLng{}, float64(cfg.Pyramid.MinZoom), 800, 600)
	view.MinZoom = float64(cfg.Pyramid.MinZoom)
	view.MaxZoom = float64(cfg.Pyramid.MaxZoom)

	e := &Engine{
		cfg:     cfg,
		log:     log,
		view:    view,
		cache:   c,
		loader:  l,
		pyramid: pyramid.New(popts, c, l, log),
	}
	if o.debug {
		e.debug = tileserver.NewServer(c, log)
		if err := e.debug.Start(); err != nil {
			l.Close()
			return nil, err
		}
	}
	log.Info("tile engine ready",
		zap.String("source", src.Name()),
		zap.Int("cache_capacity", cfg.Cache.Capacity),
		zap.Int("max_concurrent", cfg.Loader.MaxConcurrent))
	return e, nil
}

// Viewport exposes the engine's viewport for reading.
func (e *Engine) Viewport() *viewport.Viewport { return e.view }

// SetCenter recenters the view.
func (e *Engine) SetCenter(ll geo.LatLng) { e.view.SetCenter(ll) }

// SetZoom sets the view zoom, clamped to the configured limits.
func (e *Engine) SetZoom(zoom float64) { e.view.SetZoom(zoom) }

// Pan shifts the view by a screen-pixel delta.
func (e *Engine) Pan(dx, dy float64) { e.view.Pan(geo.Point{X: dx, Y: dy}) }

// ZoomTo zooms while keeping the point under the given screen position
// fixed, the usual scroll-wheel behavior.
func (e *Engine) ZoomTo(zoom float64, focusX, focusY float64) {
	e.view.ZoomTo(zoom, geo.Point{X: focusX, Y: focusY})
}

// FitBounds frames a geographic rectangle with the given pixel padding.
func (e *Engine) FitBounds(b geo.LatLngBounds, padding float64) {
	e.view.FitBounds(b, padding)
}

// Resize updates the view's pixel size.
func (e *Engine) Resize(width, height float64) { e.view.Resize(width, height) }

// Update runs one engine tick: fold in finished loads, request what the
// view needs, prune stale state, and return the draw list for the render
// sink.
func (e *Engine) Update() []pyramid.RenderTile {
	e.pyramid.Update(e.view)
	return e.pyramid.RenderTiles(e.view)
}

// DebugURL returns the debug server's base URL, or "" when it is not
// running.
func (e *Engine) DebugURL() string {
	if e.debug == nil {
		return ""
	}
	return e.debug.URL()
}

// Close stops background loading. The engine must not be used after.
func (e *Engine) Close() {
	if e.debug != nil {
		_ = e.debug.Close()
	}
	e.loader.Close()
	_ = e.log.Sync()
}
