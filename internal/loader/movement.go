package loader

import (
	"math"
	"sync"
	"time"

	"tilemap/internal/geo"
)

const (
	movementWindow    = 5 * time.Second
	predictionHorizon = 1 * time.Second
	// PrefetchConfidence is the minimum prediction confidence at which
	// prefetching kicks in.
	PrefetchConfidence = 0.3
)

type movementSample struct {
	center geo.LatLng
	at     time.Time
}

// MovementPattern tracks recent viewport centers and extrapolates where
// the view is heading.
type MovementPattern struct {
	mu      sync.Mutex
	samples []movementSample
	now     func() time.Time
}

func NewMovementPattern() *MovementPattern {
	return &MovementPattern{now: time.Now}
}

// Record adds a center sample and drops samples older than the rolling
// window.
func (m *MovementPattern) Record(center geo.LatLng) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.samples = append(m.samples, movementSample{center: center, at: now})
	cutoff := now.Add(-movementWindow)
	for len(m.samples) > 0 && m.samples[0].at.Before(cutoff) {
		m.samples = m.samples[1:]
	}
}

// Predict extrapolates the viewport center one horizon ahead and returns
// it with a confidence in [0, 1]. Confidence is low when the view is
// stationary, sparsely sampled or changing direction.
func (m *MovementPattern) Predict() (geo.LatLng, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.samples) < 3 {
		return geo.LatLng{}, 0
	}

	// Per-pair velocities in degrees per second.
	type velocity struct{ lat, lng float64 }
	var vels []velocity
	for i := 1; i < len(m.samples); i++ {
		dt := m.samples[i].at.Sub(m.samples[i-1].at).Seconds()
		if dt <= 0 {
			continue
		}
		vels = append(vels, velocity{
			lat: (m.samples[i].center.Lat - m.samples[i-1].center.Lat) / dt,
			lng: (m.samples[i].center.Lng - m.samples[i-1].center.Lng) / dt,
		})
	}
	if len(vels) == 0 {
		return geo.LatLng{}, 0
	}

	var mean velocity
	for _, v := range vels {
		mean.lat += v.lat
		mean.lng += v.lng
	}
	mean.lat /= float64(len(vels))
	mean.lng /= float64(len(vels))

	speed := math.Hypot(mean.lat, mean.lng)
	if speed < 1e-7 {
		return geo.LatLng{}, 0
	}

	// Direction consistency: average cosine similarity of each velocity
	// against the mean. Erratic movement scores near zero.
	var consistency float64
	var counted int
	for _, v := range vels {
		n := math.Hypot(v.lat, v.lng)
		if n < 1e-9 {
			continue
		}
		cos := (v.lat*mean.lat + v.lng*mean.lng) / (n * speed)
		consistency += math.Max(0, cos)
		counted++
	}
	if counted == 0 {
		return geo.LatLng{}, 0
	}
	confidence := consistency / float64(counted)
	confidence = math.Max(0, math.Min(1, confidence))

	last := m.samples[len(m.samples)-1].center
	horizon := predictionHorizon.Seconds()
	predicted := geo.LatLng{
		Lat: geo.ClampLat(last.Lat + mean.lat*horizon),
		Lng: geo.WrapLng(last.Lng + mean.lng*horizon),
	}
	return predicted, confidence
}

// Reset drops all recorded samples.
func (m *MovementPattern) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = m.samples[:0]
}
