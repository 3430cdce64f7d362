package loader

import (
	"sync"
	"time"
)

// NetworkCondition summarizes recent transfer health.
type NetworkCondition int

const (
	NetworkGood NetworkCondition = iota
	NetworkFair
	NetworkPoor
)

func (c NetworkCondition) String() string {
	switch c {
	case NetworkGood:
		return "good"
	case NetworkFair:
		return "fair"
	case NetworkPoor:
		return "poor"
	default:
		return "unknown"
	}
}

const (
	networkWindow = 30 * time.Second
	// conditionSampleSize is how many recent attempts the failure rate
	// looks at.
	conditionSampleSize = 10

	poorFailureRate = 0.3
	poorLatency     = 2 * time.Second
	fairLatency     = 500 * time.Millisecond
)

type attempt struct {
	at       time.Time
	duration time.Duration
	ok       bool
}

// NetworkMetrics keeps a rolling window of fetch outcomes and derives a
// coarse condition from it.
type NetworkMetrics struct {
	mu       sync.Mutex
	attempts []attempt
	now      func() time.Time
}

func NewNetworkMetrics() *NetworkMetrics {
	return &NetworkMetrics{now: time.Now}
}

// Record adds one fetch attempt's outcome.
func (n *NetworkMetrics) Record(duration time.Duration, ok bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	n.attempts = append(n.attempts, attempt{at: now, duration: duration, ok: ok})
	cutoff := now.Add(-networkWindow)
	for len(n.attempts) > 0 && n.attempts[0].at.Before(cutoff) {
		n.attempts = n.attempts[1:]
	}
}

// Condition classifies the recent window. Poor when the failure rate over
// the last few attempts exceeds 30% or average latency exceeds 2s; Fair
// when average latency exceeds 500ms; Good otherwise.
func (n *NetworkMetrics) Condition() NetworkCondition {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.attempts) == 0 {
		return NetworkGood
	}

	recent := n.attempts
	if len(recent) > conditionSampleSize {
		recent = recent[len(recent)-conditionSampleSize:]
	}
	var failures int
	for _, a := range recent {
		if !a.ok {
			failures++
		}
	}
	if float64(failures)/float64(len(recent)) > poorFailureRate {
		return NetworkPoor
	}

	var total time.Duration
	var succeeded int
	for _, a := range n.attempts {
		if a.ok {
			total += a.duration
			succeeded++
		}
	}
	if succeeded == 0 {
		return NetworkGood
	}
	avg := total / time.Duration(succeeded)
	switch {
	case avg > poorLatency:
		return NetworkPoor
	case avg > fairLatency:
		return NetworkFair
	default:
		return NetworkGood
	}
}

// ConcurrencyLimit scales a base worker count by the current condition:
// full on good, three quarters on fair, half on poor, never below one.
func (n *NetworkMetrics) ConcurrencyLimit(base int) int {
	var limit int
	switch n.Condition() {
	case NetworkPoor:
		limit = base / 2
	case NetworkFair:
		limit = base * 3 / 4
	default:
		limit = base
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}
