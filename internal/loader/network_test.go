package loader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConditionGoodByDefault(t *testing.T) {
	n := NewNetworkMetrics()
	assert.Equal(t, NetworkGood, n.Condition())
	assert.Equal(t, 64, n.ConcurrencyLimit(64))
}

func TestConditionPoorOnFailureRate(t *testing.T) {
	n := NewNetworkMetrics()
	clock := newFakeClock()
	n.now = clock.now

	// 6 successes and 4 failures inside the last 10 attempts: 40% failure
	// rate pushes the condition to poor and halves concurrency.
	for i := 0; i < 6; i++ {
		n.Record(100*time.Millisecond, true)
		clock.advance(time.Second)
	}
	for i := 0; i < 4; i++ {
		n.Record(100*time.Millisecond, false)
		clock.advance(time.Second)
	}

	assert.Equal(t, NetworkPoor, n.Condition())
	assert.Equal(t, 32, n.ConcurrencyLimit(64))
	assert.Equal(t, 1, n.ConcurrencyLimit(1))
}

func TestConditionFairOnModerateLatency(t *testing.T) {
	n := NewNetworkMetrics()
	clock := newFakeClock()
	n.now = clock.now

	for i := 0; i < 10; i++ {
		n.Record(800*time.Millisecond, true)
		clock.advance(time.Second)
	}

	assert.Equal(t, NetworkFair, n.Condition())
	assert.Equal(t, 48, n.ConcurrencyLimit(64))
}

func TestConditionPoorOnHighLatency(t *testing.T) {
	n := NewNetworkMetrics()
	clock := newFakeClock()
	n.now = clock.now

	for i := 0; i < 10; i++ {
		n.Record(3*time.Second, true)
		clock.advance(time.Second)
	}

	assert.Equal(t, NetworkPoor, n.Condition())
}

func TestOldAttemptsAgeOut(t *testing.T) {
	n := NewNetworkMetrics()
	clock := newFakeClock()
	n.now = clock.now

	for i := 0; i < 10; i++ {
		n.Record(100*time.Millisecond, false)
		clock.advance(time.Second)
	}
	assert.Equal(t, NetworkPoor, n.Condition())

	// After the window passes, a run of healthy fetches restores the
	// condition.
	clock.advance(networkWindow + time.Second)
	for i := 0; i < 5; i++ {
		n.Record(100*time.Millisecond, true)
		clock.advance(100 * time.Millisecond)
	}
	assert.Equal(t, NetworkGood, n.Condition())
}

func TestConcurrencyLimitNeverBelowOne(t *testing.T) {
	n := NewNetworkMetrics()
	clock := newFakeClock()
	n.now = clock.now
	for i := 0; i < 10; i++ {
		n.Record(time.Second, false)
		clock.advance(time.Second)
	}
	assert.Equal(t, 1, n.ConcurrencyLimit(1))
	assert.Equal(t, 1, n.ConcurrencyLimit(2))
}
