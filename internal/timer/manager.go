package timer

import (
	"strings"
	"sync"

	"codeberg.org/mutker/kitchenctl/internal/errors"
	"codeberg.org/mutker/kitchenctl/internal/logger"
	"github.com/google/uuid"
)

// CompletionHandler is called once for every timer that reaches zero.
type CompletionHandler func(Timer)

// Manager owns the timer registry. Every command and every tick is applied
// as one batch under the registry lock.
type Manager struct {
	mu         sync.Mutex
	timers     map[string]*Timer
	order      []string
	newID      func() string
	onComplete CompletionHandler
	log        logger.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

// WithCompletionHandler registers the handler for completed timers.
func WithCompletionHandler(h CompletionHandler) Option {
	return func(m *Manager) { m.onComplete = h }
}

// NewManager returns an empty registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		timers: make(map[string]*Timer),
		newID:  uuid.NewString,
		log:    logger.For("timer"),
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Add creates an Idle timer.
func (m *Manager) Add(name string, durationSeconds int) (Timer, error) {
	errFactory := errors.New()

	name = strings.TrimSpace(name)
	if name == "" {
		return Timer{}, errFactory.WithData(errors.ErrInvalidInput, "timer name is empty")
	}
	if durationSeconds <= 0 {
		return Timer{}, errFactory.WithData(errors.ErrInvalidInput, "timer duration must be positive")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := &Timer{
		ID:               m.newID(),
		Name:             name,
		DurationSeconds:  durationSeconds,
		RemainingSeconds: durationSeconds,
	}
	m.timers[t.ID] = t
	m.order = append(m.order, t.ID)

	m.log.Debug().
		Str("id", t.ID).
		Str("name", t.Name).
		Int("duration", durationSeconds).
		Msg("Timer added")

	return *t, nil
}

// Toggle flips a timer between Running and Paused. Idle timers start.
func (m *Manager) Toggle(id string) (Timer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.lookup(id)
	if err != nil {
		return Timer{}, err
	}
	if t.IsCompleted {
		return *t, errors.New().WithData(errors.ErrInvalidState, "timer is completed")
	}

	t.IsRunning = !t.IsRunning

	return *t, nil
}

// Stop resets a timer to Idle from any state, clearing completion.
func (m *Manager) Stop(id string) (Timer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.lookup(id)
	if err != nil {
		return Timer{}, err
	}

	t.IsRunning = false
	t.IsCompleted = false
	t.RemainingSeconds = t.DurationSeconds

	return *t, nil
}

// Delete removes a timer.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.lookup(id); err != nil {
		return err
	}

	delete(m.timers, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}

	return nil
}

// Get returns a copy of one timer.
func (m *Manager) Get(id string) (Timer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.lookup(id)
	if err != nil {
		return Timer{}, err
	}

	return *t, nil
}

// Tick advances every running timer by one second. Completion is decided
// here only. Handlers run after the batch is applied and the lock released.
func (m *Manager) Tick() []Timer {
	var done []Timer

	m.mu.Lock()
	for _, id := range m.order {
		t := m.timers[id]
		if !t.IsRunning || t.IsCompleted {
			continue
		}

		if t.RemainingSeconds > 0 {
			t.RemainingSeconds--
		}
		if t.RemainingSeconds == 0 {
			t.IsRunning = false
			t.IsCompleted = true
			done = append(done, *t)
		}
	}
	handler := m.onComplete
	m.mu.Unlock()

	for _, t := range done {
		m.log.Info().
			Str("id", t.ID).
			Str("name", t.Name).
			Msg("Timer completed")

		if handler != nil {
			handler(t)
		}
	}

	return done
}

// Snapshot returns copies of all timers in insertion order.
func (m *Manager) Snapshot() []Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Timer, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.timers[id])
	}

	return out
}

// Views returns display snapshots in insertion order.
func (m *Manager) Views() []View {
	timers := m.Snapshot()
	out := make([]View, 0, len(timers))
	for _, t := range timers {
		out = append(out, t.View())
	}

	return out
}

// Active counts running timers.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, t := range m.timers {
		if t.IsRunning {
			n++
		}
	}

	return n
}

// Len returns the number of timers.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (m *Manager) lookup(id string) (*Timer, error) {
	t, ok := m.timers[id]
	if !ok {
		return nil, errors.New().WithData(errors.ErrNotFound, id)
	}

	return t, nil
}
