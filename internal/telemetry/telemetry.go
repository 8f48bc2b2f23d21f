// Package telemetry exports engine metrics to Prometheus.
package telemetry

import (
	"net/http"
	"time"

	"codeberg.org/mutker/kitchenctl/internal/alert"
	"codeberg.org/mutker/kitchenctl/internal/clock"
	"codeberg.org/mutker/kitchenctl/internal/errors"
	"codeberg.org/mutker/kitchenctl/internal/notify"
	"codeberg.org/mutker/kitchenctl/internal/sensor"
	"codeberg.org/mutker/kitchenctl/internal/timer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the engine metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	ticks         *prometheus.CounterVec
	tickDuration  *prometheus.HistogramVec
	sensorValue   *prometheus.GaugeVec
	severity      *prometheus.GaugeVec
	danger        prometheus.Gauge
	alerts        *prometheus.CounterVec
	notifications *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
	activeTimers  prometheus.Gauge
	completed     prometheus.Counter
}

func NewCollector(cfg Config) (*Collector, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	if cfg.WithRuntime {
		if err := reg.Register(collectors.NewGoCollector()); err != nil {
			return nil, errFactory.Wrap(ErrRegister, err)
		}
		if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
			return nil, errFactory.Wrap(ErrRegister, err)
		}
	}

	f := promauto.With(reg)
	ns := cfg.Namespace

	return &Collector{
		registry: reg,
		ticks: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "ticks_total",
				Help:      "Total number of clock ticks processed",
			},
			[]string{"cadence"},
		),
		tickDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "tick_duration_seconds",
				Help:      "Time spent handling one tick batch",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"cadence"},
		),
		sensorValue: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Name:      "sensor_value",
				Help:      "Latest simulated sensor value",
			},
			[]string{"metric", "unit"},
		),
		severity: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Name:      "sensor_severity",
				Help:      "Latest severity per metric (0 normal, 1 warning, 2 critical)",
			},
			[]string{"metric"},
		),
		danger: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: ns,
				Name:      "danger",
				Help:      "1 while the kitchen is in danger",
			},
		),
		alerts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "alerts_total",
				Help:      "Danger alerts fired, by driving metric",
			},
			[]string{"metric"},
		),
		notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "notifications_total",
				Help:      "Notifications recorded",
			},
			[]string{"kind"},
		),
		deliveries: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "deliveries_total",
				Help:      "External delivery attempts by result",
			},
			[]string{"kind", "result"},
		),
		activeTimers: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: ns,
				Name:      "timers_running",
				Help:      "Number of running countdown timers",
			},
		),
		completed: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "timers_completed_total",
				Help:      "Countdown timers that reached zero",
			},
		),
	}, nil
}

func (c *Collector) TickObserved(cadence clock.Cadence, d time.Duration) {
	c.ticks.WithLabelValues(string(cadence)).Inc()
	c.tickDuration.WithLabelValues(string(cadence)).Observe(d.Seconds())
}

func (c *Collector) Evaluated(r sensor.Reading, d alert.Decision) {
	for _, k := range sensor.Kinds {
		c.sensorValue.WithLabelValues(k.String(), k.Unit()).Set(r.Value(k))
		c.severity.WithLabelValues(k.String()).Set(float64(d.Severities[k]))
	}

	if d.Status == alert.Danger {
		c.danger.Set(1)
	} else {
		c.danger.Set(0)
	}

	if d.Fire {
		c.alerts.WithLabelValues(d.Driver.String()).Inc()
	}
}

func (c *Collector) NotificationCreated(kind notify.Kind) {
	c.notifications.WithLabelValues(string(kind)).Inc()
}

func (c *Collector) DeliveryCompleted(kind notify.Kind, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
		if errors.HasCode(err, errors.ErrTimeout) {
			result = "timeout"
		}
	}
	c.deliveries.WithLabelValues(string(kind), result).Inc()
}

func (c *Collector) TimerCompleted(timer.Timer) {
	c.completed.Inc()
}

func (c *Collector) SetActiveTimers(n int) {
	c.activeTimers.Set(float64(n))
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
