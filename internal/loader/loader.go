// Package loader schedules and performs tile fetches: a priority queue
// feeding a bounded worker pool, with per-tile deduplication, retry,
// movement-based prefetch and network-aware throttling.
package loader

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"tilemap/internal/geo"
	"tilemap/internal/source"
	"tilemap/pkg/metrics"
)

// Config tunes the loader's scheduling and fetch behavior.
type Config struct {
	// MaxConcurrent bounds in-flight fetches.
	MaxConcurrent int
	// MaxRetries is the number of additional attempts after a failure.
	MaxRetries int
	// RetryDelay is the fixed wait between attempts.
	RetryDelay time.Duration
	// QueueCapacity bounds the number of waiting tasks. New tasks are
	// rejected when the queue is full.
	QueueCapacity int
	// ResultBuffer sizes the result channel the consumer drains.
	ResultBuffer int
	// PrefetchEnabled turns movement-based prefetching on.
	PrefetchEnabled bool
	// MaxPrefetchTiles caps tiles queued per prediction.
	MaxPrefetchTiles int
	// NetworkAdaptive scales effective concurrency with network health.
	NetworkAdaptive bool
}

// DefaultConfig is the balanced profile.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:    64,
		MaxRetries:       2,
		RetryDelay:       100 * time.Millisecond,
		QueueCapacity:    1000,
		ResultBuffer:     256,
		PrefetchEnabled:  true,
		MaxPrefetchTiles: 16,
		NetworkAdaptive:  true,
	}
}

// LowResourceConfig trades throughput for a small footprint.
func LowResourceConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxConcurrent = 16
	cfg.QueueCapacity = 256
	cfg.ResultBuffer = 64
	cfg.PrefetchEnabled = false
	return cfg
}

// HighPerformanceConfig saturates fast connections.
func HighPerformanceConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxConcurrent = 128
	cfg.QueueCapacity = 2000
	cfg.ResultBuffer = 512
	cfg.MaxPrefetchTiles = 32
	return cfg
}

// TestingConfig keeps everything small and deterministic.
func TestingConfig() Config {
	return Config{
		MaxConcurrent:    1,
		MaxRetries:       1,
		RetryDelay:       time.Millisecond,
		QueueCapacity:    64,
		ResultBuffer:     64,
		PrefetchEnabled:  false,
		MaxPrefetchTiles: 4,
		NetworkAdaptive:  false,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxConcurrent < 1 {
		c.MaxConcurrent = d.MaxConcurrent
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.QueueCapacity < 1 {
		c.QueueCapacity = d.QueueCapacity
	}
	if c.ResultBuffer < 1 {
		c.ResultBuffer = d.ResultBuffer
	}
	if c.MaxPrefetchTiles < 1 {
		c.MaxPrefetchTiles = d.MaxPrefetchTiles
	}
	return c
}

// Loader fetches tiles asynchronously. Producers enqueue coordinates; a
// dispatcher goroutine hands the highest-priority task to a bounded set of
// fetch goroutines; the consumer drains results on its own schedule.
type Loader struct {
	cfg     Config
	src     source.Source
	fetcher Fetcher
	log     *zap.Logger

	mu      sync.Mutex
	queue   taskHeap
	pending map[geo.TileCoord]struct{}
	seq     atomic.Uint64

	wake    chan struct{}
	slot    chan struct{}
	results chan Result

	inFlight atomic.Int32

	movement *MovementPattern
	network  *NetworkMetrics

	// cached filters prefetch candidates already known to the consumer.
	cached func(geo.TileCoord) bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// New builds a loader fetching from src via fetcher and starts its
// dispatcher. A nil fetcher gets a default HTTP fetcher; a nil logger is
// replaced with a no-op one. Close must be called to release the
// dispatcher.
func New(cfg Config, src source.Source, fetcher Fetcher, log *zap.Logger) *Loader {
	cfg = cfg.withDefaults()
	if fetcher == nil {
		fetcher = NewHTTPFetcher(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &Loader{
		cfg:      cfg,
		src:      src,
		fetcher:  fetcher,
		log:      log.Named("loader"),
		pending:  make(map[geo.TileCoord]struct{}),
		wake:     make(chan struct{}, 1),
		slot:     make(chan struct{}, 1),
		results:  make(chan Result, cfg.ResultBuffer),
		movement: NewMovementPattern(),
		network:  NewNetworkMetrics(),
		ctx:      ctx,
		cancel:   cancel,
	}
	l.wg.Add(1)
	go l.dispatch()
	return l
}

// SetCachedFunc installs a predicate used to skip prefetching tiles the
// consumer already holds. Must be called before the first Enqueue.
func (l *Loader) SetCachedFunc(fn func(geo.TileCoord) bool) {
	l.cached = fn
}

// Network exposes the loader's network health tracker.
func (l *Loader) Network() *NetworkMetrics { return l.network }

// Enqueue schedules a tile load. Returns false when the tile is already
// queued or in flight, when the coordinate is invalid, when the queue is
// full, or when the loader is closed. Never blocks.
func (l *Loader) Enqueue(coord geo.TileCoord, priority Priority) bool {
	if l.closed.Load() || !coord.Valid() {
		return false
	}

	l.mu.Lock()
	if _, dup := l.pending[coord]; dup {
		l.mu.Unlock()
		return false
	}
	if len(l.queue) >= l.cfg.QueueCapacity {
		l.mu.Unlock()
		l.log.Debug("queue full, dropping task",
			zap.Stringer("tile", coord),
			zap.Stringer("priority", priority))
		return false
	}
	l.pending[coord] = struct{}{}
	heap.Push(&l.queue, Task{Coord: coord, Priority: priority, seq: l.seq.Add(1)})
	depth := len(l.queue)
	l.mu.Unlock()

	metrics.QueueDepth.Set(float64(depth))
	metrics.PendingTiles.Set(float64(depth))

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// EnqueueBatch schedules many tiles at one priority and returns how many
// were accepted.
func (l *Loader) EnqueueBatch(coords []geo.TileCoord, priority Priority) int {
	n := 0
	for _, c := range coords {
		if l.Enqueue(c, priority) {
			n++
		}
	}
	return n
}

// IsPending reports whether a tile is queued or in flight.
func (l *Loader) IsPending(coord geo.TileCoord) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.pending[coord]
	return ok
}

// QueueLen returns the number of waiting tasks.
func (l *Loader) QueueLen() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Drain hands every already-completed result to fn without blocking and
// returns how many were delivered. The pending entry for each tile is
// cleared here, so a re-request for a drained tile is accepted again.
func (l *Loader) Drain(fn func(Result)) int {
	n := 0
	for {
		select {
		case r := <-l.results:
			l.mu.Lock()
			delete(l.pending, r.Coord)
			l.mu.Unlock()
			fn(r)
			n++
		default:
			return n
		}
	}
}

// UpdateViewport feeds the movement predictor with the current center and,
// when the predicted heading is confident enough, prefetches tiles around
// the predicted center.
func (l *Loader) UpdateViewport(center geo.LatLng, visible geo.LatLngBounds, zoom uint8) {
	l.movement.Record(center)
	if !l.cfg.PrefetchEnabled {
		return
	}

	predicted, confidence := l.movement.Predict()
	if confidence <= PrefetchConfidence {
		return
	}

	// Shift the visible window to the predicted center and queue whatever
	// is new there.
	dLat := predicted.Lat - center.Lat
	dLng := predicted.Lng - center.Lng
	shifted := geo.LatLngBounds{
		SouthWest: geo.LatLng{Lat: visible.SouthWest.Lat + dLat, Lng: visible.SouthWest.Lng + dLng},
		NorthEast: geo.LatLng{Lat: visible.NorthEast.Lat + dLat, Lng: visible.NorthEast.Lng + dLng},
	}

	queued := 0
	for _, c := range geo.TilesInBounds(shifted, zoom).Coords() {
		if queued >= l.cfg.MaxPrefetchTiles {
			break
		}
		if visible.Intersects(c.Bounds()) {
			continue // already handled by the visible pass
		}
		if l.cached != nil && l.cached(c) {
			continue
		}
		prio := AdaptivePriority(c, visible, float64(zoom))
		if prio > PriorityPrefetch {
			prio = PriorityPrefetch
		}
		if l.Enqueue(c, prio) {
			queued++
		}
	}
	if queued > 0 {
		l.log.Debug("prefetching along predicted heading",
			zap.Int("tiles", queued),
			zap.Float64("confidence", confidence))
	}
}

// Close stops the dispatcher and waits for in-flight fetches to finish.
func (l *Loader) Close() {
	if !l.closed.CompareAndSwap(false, true) {
		return
	}
	l.cancel()
	l.wg.Wait()
}

func (l *Loader) pop() (Task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return Task{}, false
	}
	t := heap.Pop(&l.queue).(Task)
	metrics.QueueDepth.Set(float64(len(l.queue)))
	return t, true
}

func (l *Loader) concurrencyLimit() int {
	if !l.cfg.NetworkAdaptive {
		return l.cfg.MaxConcurrent
	}
	return l.network.ConcurrencyLimit(l.cfg.MaxConcurrent)
}

// dispatch pulls the best task whenever capacity allows. It parks on the
// wake channel when idle and on the slot channel when at the adaptive
// limit; the semaphore is the hard upper bound.
func (l *Loader) dispatch() {
	defer l.wg.Done()
	sem := semaphore.NewWeighted(int64(l.cfg.MaxConcurrent))

	for {
		select {
		case <-l.ctx.Done():
			return
		default:
		}

		if int(l.inFlight.Load()) >= l.concurrencyLimit() {
			select {
			case <-l.slot:
			case <-l.ctx.Done():
				return
			}
			continue
		}

		task, ok := l.pop()
		if !ok {
			select {
			case <-l.wake:
			case <-l.ctx.Done():
				return
			}
			continue
		}

		if err := sem.Acquire(l.ctx, 1); err != nil {
			return
		}
		l.inFlight.Add(1)
		l.wg.Add(1)
		go func(t Task) {
			defer l.wg.Done()
			defer sem.Release(1)
			l.fetch(t)
			l.inFlight.Add(-1)
			select {
			case l.slot <- struct{}{}:
			default:
			}
		}(task)
	}
}

// fetch performs one task's load, including retries, and posts the result.
func (l *Loader) fetch(t Task) {
	url := l.src.URL(t.Coord)

	var data []byte
	var err error
	var retries int
	start := time.Now()

	for attempt := 0; ; attempt++ {
		attemptStart := time.Now()
		data, err = l.fetcher.Fetch(l.ctx, url)
		if err == nil {
			err = validatePayload(data)
		}
		elapsed := time.Since(attemptStart)
		l.network.Record(elapsed, err == nil)
		metrics.TileFetches.Inc()
		metrics.TileFetchLatency.Observe(elapsed.Seconds())

		if err == nil {
			break
		}
		metrics.TileFetchFailures.Inc()
		if attempt >= l.cfg.MaxRetries {
			l.log.Warn("tile failed after retries",
				zap.Stringer("tile", t.Coord),
				zap.Int("attempts", attempt+1),
				zap.Error(err))
			break
		}
		retries++
		select {
		case <-time.After(l.cfg.RetryDelay):
		case <-l.ctx.Done():
			l.postResult(Result{Coord: t.Coord, Err: l.ctx.Err(), Duration: time.Since(start), Retries: retries})
			return
		}
	}

	if err != nil {
		data = nil
	}
	l.postResult(Result{
		Coord:    t.Coord,
		Data:     data,
		Err:      err,
		Duration: time.Since(start),
		Retries:  retries,
	})
}

func (l *Loader) postResult(r Result) {
	select {
	case l.results <- r:
	case <-l.ctx.Done():
	}
}
