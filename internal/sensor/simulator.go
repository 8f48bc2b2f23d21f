package sensor

import (
	"math/rand"
	"sync"
	"time"
)

const (
	flameProbability = 0.05
)

// walkScale is the maximum per-tick step of each drifting metric.
var walkScale = map[Kind]float64{
	Temperature: 1.0,
	Humidity:    1.5,
	Gas:         10,
}

// Simulator advances a bounded random walk over the metrics. It is safe
// for concurrent use.
type Simulator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	reading Reading
}

// NewSimulator returns a Simulator starting at initial, drawing from rng.
func NewSimulator(rng *rand.Rand, initial Reading) *Simulator {
	for _, k := range Kinds {
		initial = initial.With(k, initial.Value(k))
	}

	return &Simulator{
		rng:     rng,
		reading: initial,
	}
}

// NewSeededSimulator returns a Simulator at the initial reading. A zero
// seed is replaced by the current time.
func NewSeededSimulator(seed int64) *Simulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	//nolint:gosec // G404: simulation, not security sensitive
	return NewSimulator(rand.New(rand.NewSource(seed)), InitialReading())
}

// Step advances every metric once and returns the new snapshot.
func (s *Simulator) Step(now time.Time) Reading {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.reading
	for _, k := range []Kind{Temperature, Humidity, Gas} {
		delta := (s.rng.Float64()*2 - 1) * walkScale[k]
		r = r.With(k, r.Value(k)+delta)
	}

	// Flame models an instantaneous event rather than a drift.
	flame := 0.0
	if s.rng.Float64() < flameProbability {
		flame = s.rng.Float64() * 100
	}
	r = r.With(Flame, flame)
	r.Timestamp = now

	s.reading = r

	return r
}

// Reading returns the latest snapshot.
func (s *Simulator) Reading() Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reading
}

// Set overrides a metric. The value is clamped to its bounds.
func (s *Simulator) Set(k Kind, v float64) Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reading = s.reading.With(k, v)
	return s.reading
}
