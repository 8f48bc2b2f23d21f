package alert

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/kitchenctl/internal/logger"
	"codeberg.org/mutker/kitchenctl/internal/notify"
	"codeberg.org/mutker/kitchenctl/internal/sensor"
)

// ReadingSource produces one reading per slow tick.
type ReadingSource interface {
	Step(now time.Time) sensor.Reading
}

// Sink receives fired alerts.
type Sink interface {
	Create(ctx context.Context, kind notify.Kind, message string) (notify.Notification, error)
}

// Observer receives every evaluated reading. Used for telemetry.
type Observer interface {
	Evaluated(r sensor.Reading, d Decision)
}

// Monitor runs the sensor/alert pipeline once per slow tick. The reading
// and debounce state are updated under one lock; the sink is called after
// the lock is released.
type Monitor struct {
	mu        sync.Mutex
	source    ReadingSource
	evaluator *Evaluator
	reading   sensor.Reading
	sink      Sink
	observer  Observer
	log       logger.Logger
}

// NewMonitor wires a reading source, an evaluator and a sink.
func NewMonitor(source ReadingSource, evaluator *Evaluator, sink Sink) *Monitor {
	return &Monitor{
		source:    source,
		evaluator: evaluator,
		sink:      sink,
		log:       logger.For("alert"),
	}
}

// SetObserver registers an observer. Call before the first Tick.
func (m *Monitor) SetObserver(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer = o
}

// Tick advances the simulation, evaluates it and emits at most one alert.
func (m *Monitor) Tick(ctx context.Context, now time.Time) Decision {
	m.mu.Lock()
	r := m.source.Step(now)
	d := m.evaluator.Evaluate(r, now)
	m.reading = r
	observer := m.observer
	m.mu.Unlock()

	if observer != nil {
		observer.Evaluated(r, d)
	}

	m.log.Debug().
		Float64("temperature", r.Temperature).
		Float64("humidity", r.Humidity).
		Float64("gas", r.Gas).
		Float64("flame", r.Flame).
		Str("status", d.Status.String()).
		Msg("Sensor tick")

	if !d.Fire {
		return d
	}

	m.log.Info().
		Str("driver", d.Driver.String()).
		Str("message", d.Message).
		Msg("Danger alert fired")

	if _, err := m.sink.Create(ctx, notify.KindDanger, d.Message); err != nil {
		m.log.Error().Err(err).Msg("Failed to record danger notification")
	}

	return d
}

// Reading returns the latest reading.
func (m *Monitor) Reading() sensor.Reading {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reading
}

// Status returns the latest aggregate status.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evaluator.Status()
}

// Prime records an initial reading without evaluating alerts.
func (m *Monitor) Prime(r sensor.Reading) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reading = r
}
