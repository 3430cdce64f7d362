package loader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tilemap/internal/geo"
)

// fakeClock advances a fixed time by hand.
type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestPredictNeedsSamples(t *testing.T) {
	m := NewMovementPattern()
	clock := newFakeClock()
	m.now = clock.now

	_, confidence := m.Predict()
	assert.Zero(t, confidence)

	m.Record(geo.LatLng{Lat: 10, Lng: 10})
	clock.advance(100 * time.Millisecond)
	m.Record(geo.LatLng{Lat: 10, Lng: 10.01})
	_, confidence = m.Predict()
	assert.Zero(t, confidence)
}

func TestPredictSteadyEastwardPan(t *testing.T) {
	m := NewMovementPattern()
	clock := newFakeClock()
	m.now = clock.now

	// Pan east at 0.1 deg/s, sampled every 100ms.
	for i := 0; i < 10; i++ {
		m.Record(geo.LatLng{Lat: 37.0, Lng: -122.0 + 0.01*float64(i)})
		clock.advance(100 * time.Millisecond)
	}

	predicted, confidence := m.Predict()
	require.Greater(t, confidence, PrefetchConfidence)

	// One second ahead of the last sample at the same speed.
	last := -122.0 + 0.01*9
	assert.InDelta(t, last+0.1, predicted.Lng, 0.01)
	assert.InDelta(t, 37.0, predicted.Lat, 1e-6)
}

func TestPredictStationaryHasNoConfidence(t *testing.T) {
	m := NewMovementPattern()
	clock := newFakeClock()
	m.now = clock.now

	for i := 0; i < 10; i++ {
		m.Record(geo.LatLng{Lat: 37.0, Lng: -122.0})
		clock.advance(100 * time.Millisecond)
	}

	_, confidence := m.Predict()
	assert.Zero(t, confidence)
}

func TestPredictErraticMovementLowConfidence(t *testing.T) {
	m := NewMovementPattern()
	clock := newFakeClock()
	m.now = clock.now

	steady := NewMovementPattern()
	steadyClock := newFakeClock()
	steady.now = steadyClock.now

	// Alternate direction every sample versus a steady pan.
	for i := 0; i < 10; i++ {
		sign := 1.0
		if i%2 == 0 {
			sign = -1.0
		}
		m.Record(geo.LatLng{Lat: 37.0, Lng: -122.0 + sign*0.01})
		clock.advance(100 * time.Millisecond)

		steady.Record(geo.LatLng{Lat: 37.0, Lng: -122.0 + 0.01*float64(i)})
		steadyClock.advance(100 * time.Millisecond)
	}

	_, erratic := m.Predict()
	_, confident := steady.Predict()
	assert.Less(t, erratic, confident)
}

func TestRecordDropsOldSamples(t *testing.T) {
	m := NewMovementPattern()
	clock := newFakeClock()
	m.now = clock.now

	for i := 0; i < 5; i++ {
		m.Record(geo.LatLng{Lat: 37.0, Lng: -122.0 + 0.01*float64(i)})
		clock.advance(100 * time.Millisecond)
	}

	// After a long pause only the newest sample survives the window, so
	// prediction loses its basis.
	clock.advance(10 * time.Second)
	m.Record(geo.LatLng{Lat: 37.0, Lng: -121.0})
	_, confidence := m.Predict()
	assert.Zero(t, confidence)
}

func TestReset(t *testing.T) {
	m := NewMovementPattern()
	clock := newFakeClock()
	m.now = clock.now

	for i := 0; i < 5; i++ {
		m.Record(geo.LatLng{Lat: 37.0, Lng: -122.0 + 0.01*float64(i)})
		clock.advance(100 * time.Millisecond)
	}
	m.Reset()
	_, confidence := m.Predict()
	assert.Zero(t, confidence)
}
