package clock

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/kitchenctl/internal/errors"
	"codeberg.org/mutker/kitchenctl/internal/logger"
)

// Source drives two independent cadences. Each cadence runs in its own
// goroutine, so a slow handler on one cadence never delays the other.
type Source struct {
	sched    Scheduler
	fast     time.Duration
	slow     time.Duration
	handlers map[Cadence][]Handler
	observer func(Cadence, time.Duration)
	log      logger.Logger

	mu       sync.Mutex
	started  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewSource creates a Source with the given cadences.
func NewSource(sched Scheduler, fast, slow time.Duration) (*Source, error) {
	if fast <= 0 || slow <= 0 {
		return nil, errors.New().WithData(errors.ErrInvalidInterval, struct {
			Fast time.Duration
			Slow time.Duration
		}{fast, slow})
	}

	return &Source{
		sched:    sched,
		fast:     fast,
		slow:     slow,
		handlers: make(map[Cadence][]Handler),
		log:      logger.For("clock"),
	}, nil
}

// On registers a handler for a cadence. Handlers must be registered
// before Start.
func (s *Source) On(c Cadence, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[c] = append(s.handlers[c], h)
}

// Observe registers a callback receiving the duration of every tick batch.
func (s *Source) Observe(fn func(Cadence, time.Duration)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}

// Now returns the scheduler's current time.
func (s *Source) Now() time.Time {
	return s.sched.Now()
}

// Start launches both cadences. It returns an error if called twice.
func (s *Source) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New().WithMessage(errors.ErrClockStart, "clock source already started")
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)

	for c, d := range map[Cadence]time.Duration{Fast: s.fast, Slow: s.slow} {
		handlers := append([]Handler(nil), s.handlers[c]...)
		ticker := s.sched.NewTicker(d)

		s.wg.Add(1)
		go s.run(ctx, c, ticker, handlers, s.observer)
	}

	s.log.Debug().
		Dur("fast", s.fast).
		Dur("slow", s.slow).
		Msg("Clock source started")

	return nil
}

func (s *Source) run(ctx context.Context, c Cadence, ticker Ticker, handlers []Handler, observe func(Cadence, time.Duration)) {
	defer s.wg.Done()
	defer ticker.Stop()

	// A batch that has started runs to completion even if Stop cancels ctx.
	batchCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C():
			// A tick that races with cancellation is dropped.
			if ctx.Err() != nil {
				return
			}

			started := time.Now()
			for _, h := range handlers {
				h(batchCtx, now)
			}
			if observe != nil {
				observe(c, time.Since(started))
			}
		}
	}
}

// Stop halts both cadences and waits for in-flight batches to finish.
// It is safe to call more than once, and before Start.
func (s *Source) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		cancel := s.cancel
		s.started = true
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		s.wg.Wait()

		s.log.Debug().Msg("Clock source stopped")
	})
}
