// Package engine wires the clock, the sensor pipeline, the notification
// center and the timer manager together and exposes their commands and
// queries.
package engine

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/kitchenctl/internal/alert"
	"codeberg.org/mutker/kitchenctl/internal/clock"
	"codeberg.org/mutker/kitchenctl/internal/errors"
	"codeberg.org/mutker/kitchenctl/internal/logger"
	"codeberg.org/mutker/kitchenctl/internal/notify"
	"codeberg.org/mutker/kitchenctl/internal/sensor"
	"codeberg.org/mutker/kitchenctl/internal/telemetry"
	"codeberg.org/mutker/kitchenctl/internal/timer"
)

type Engine struct {
	source   *clock.Source
	monitor  *alert.Monitor
	center   *notify.Center
	timers   *timer.Manager
	recorder telemetry.Recorder
	log      logger.Logger

	stopOnce sync.Once
	stopErr  error
}

type options struct {
	sched      clock.Scheduler
	store      notify.Store
	dispatcher notify.Dispatcher
	recorder   telemetry.Recorder
	source     alert.ReadingSource
	notifyOpts []notify.Option
	timerOpts  []timer.Option
}

// Option configures an Engine.
type Option func(*options)

// WithScheduler replaces the wall clock, e.g. with clock.NewManual.
func WithScheduler(s clock.Scheduler) Option {
	return func(o *options) { o.sched = s }
}

// WithStore sets the notification store. Defaults to memory.
func WithStore(s notify.Store) Option {
	return func(o *options) { o.store = s }
}

// WithDispatcher sets the external delivery channel.
func WithDispatcher(d notify.Dispatcher) Option {
	return func(o *options) { o.dispatcher = d }
}

// WithRecorder sets the telemetry recorder.
func WithRecorder(r telemetry.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithReadingSource replaces the seeded simulator.
func WithReadingSource(s alert.ReadingSource) Option {
	return func(o *options) { o.source = s }
}

// WithNotifyOptions passes extra options to the notification center.
func WithNotifyOptions(opts ...notify.Option) Option {
	return func(o *options) { o.notifyOpts = append(o.notifyOpts, opts...) }
}

// WithTimerOptions passes extra options to the timer manager.
func WithTimerOptions(opts ...timer.Option) Option {
	return func(o *options) { o.timerOpts = append(o.timerOpts, opts...) }
}

// New builds an Engine. It does not start the clock.
func New(cfg Config, opts ...Option) (*Engine, error) {
	o := &options{
		sched:    clock.Real(),
		recorder: telemetry.Nop{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.store == nil {
		o.store = notify.NewMemoryStore()
	}

	source, err := clock.NewSource(o.sched, cfg.FastInterval, cfg.SlowInterval)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		source:   source,
		recorder: o.recorder,
		log:      logger.For("engine"),
	}

	centerOpts := append([]notify.Option{
		notify.WithDeliveryTimeout(cfg.DeliveryTimeout),
		notify.WithSettings(cfg.Settings),
		notify.WithPermission(cfg.Permission),
		notify.WithObserver(o.recorder),
		notify.WithClock(o.sched.Now),
	}, o.notifyOpts...)
	e.center = notify.NewCenter(o.store, o.dispatcher, centerOpts...)

	readings := o.source
	initial := sensor.InitialReading()
	if readings == nil {
		sim := sensor.NewSeededSimulator(cfg.Seed)
		initial = sim.Reading()
		readings = sim
	}

	e.monitor = alert.NewMonitor(readings, alert.NewEvaluator(cfg.AlertCooldown), e.center)
	e.monitor.SetObserver(o.recorder)
	e.monitor.Prime(initial)

	timerOpts := append([]timer.Option{timer.WithCompletionHandler(e.timerCompleted)}, o.timerOpts...)
	e.timers = timer.NewManager(timerOpts...)

	source.On(clock.Fast, e.fastTick)
	source.On(clock.Slow, e.slowTick)
	source.Observe(o.recorder.TickObserved)

	return e, nil
}

func (e *Engine) fastTick(_ context.Context, _ time.Time) {
	e.timers.Tick()
	e.recorder.SetActiveTimers(e.timers.Active())
}

func (e *Engine) slowTick(ctx context.Context, now time.Time) {
	e.monitor.Tick(ctx, now)
}

func (e *Engine) timerCompleted(t timer.Timer) {
	e.recorder.TimerCompleted(t)
}

// Start launches the clock. The engine runs until ctx is done or Stop is
// called.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.source.Start(ctx); err != nil {
		return err
	}

	e.log.Info().Msg("Engine started")

	return nil
}

// Stop halts both cadences, waits for in-flight deliveries and closes
// the store. Later calls return the first result.
func (e *Engine) Stop() error {
	e.stopOnce.Do(func() {
		e.source.Stop()

		if err := e.center.Close(); err != nil {
			e.stopErr = errors.New().Wrap(errors.ErrCloseEngine, err)
			e.log.Error().Err(err).Msg("Failed to close notification store")
			return
		}

		e.log.Info().Msg("Engine stopped")
	})

	return e.stopErr
}
