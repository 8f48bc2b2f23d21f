package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"codeberg.org/mutker/kitchenctl/internal/errors"
	"codeberg.org/mutker/kitchenctl/internal/logger"
	"github.com/google/uuid"
)

const (
	DefaultDeliveryTimeout = 3 * time.Second

	TestMessage = "This is a test notification from your Smart Kitchen Safety system."
)

var titles = map[Kind]string{
	KindDanger:  "DANGER DETECTED!",
	KindWarning: "Kitchen warning",
	KindInfo:    "Smart Kitchen Safety",
}

// Center is the ordered notification log plus the gate in front of the
// external delivery channel.
type Center struct {
	mu         sync.Mutex
	store      Store
	settings   Settings
	permission Permission

	dispatcher Dispatcher
	timeout    time.Duration
	now        func() time.Time
	newID      func() string
	observer   Observer
	log        logger.Logger

	inflight sync.WaitGroup
}

// Option configures a Center.
type Option func(*Center)

// WithClock sets the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Center) { c.now = now }
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(fn func() string) Option {
	return func(c *Center) { c.newID = fn }
}

// WithDeliveryTimeout bounds every external dispatch.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(c *Center) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSettings sets the initial settings.
func WithSettings(s Settings) Option {
	return func(c *Center) { c.settings = s }
}

// WithPermission sets the initial push permission.
func WithPermission(p Permission) Option {
	return func(c *Center) { c.permission = p }
}

// WithObserver registers an event observer.
func WithObserver(o Observer) Option {
	return func(c *Center) {
		if o != nil {
			c.observer = o
		}
	}
}

// NewCenter creates a Center writing to store. A nil dispatcher disables
// external delivery.
func NewCenter(store Store, dispatcher Dispatcher, opts ...Option) *Center {
	c := &Center{
		store:      store,
		settings:   DefaultSettings(),
		permission: PermissionUnknown,
		dispatcher: dispatcher,
		timeout:    DefaultDeliveryTimeout,
		now:        time.Now,
		newID:      uuid.NewString,
		observer:   noopObserver{},
		log:        logger.For("notify"),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Create records a new unread notification and, if the settings allow it,
// hands it to the dispatcher in the background. Delivery failures never
// affect the recorded entry.
func (c *Center) Create(ctx context.Context, kind Kind, message string) (Notification, error) {
	errFactory := errors.New()

	if !kind.Valid() {
		return Notification{}, errFactory.WithData(errors.ErrInvalidInput, fmt.Sprintf("unknown kind %q", kind))
	}

	c.mu.Lock()
	n := Notification{
		ID:        c.newID(),
		Kind:      kind,
		Message:   message,
		CreatedAt: c.now(),
	}
	if err := c.store.Append(ctx, n); err != nil {
		c.mu.Unlock()
		return Notification{}, err
	}
	settings, permission := c.settings, c.permission
	c.mu.Unlock()

	c.observer.NotificationCreated(kind)
	c.log.Info().
		Str("id", n.ID).
		Str("kind", string(kind)).
		Str("message", message).
		Msg("Notification created")

	push, sound, vibration, ok := plan(settings, permission, kind)
	if ok && c.dispatcher != nil {
		c.dispatch(Delivery{
			Notification: n,
			Title:        titles[kind],
			Push:         push,
			Sound:        sound,
			Vibration:    vibration,
		})
	}

	return n, nil
}

// dispatch runs the delivery in its own goroutine, bounded by the timeout.
func (c *Center) dispatch(d Delivery) {
	c.inflight.Add(1)

	go func() {
		defer c.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		err := c.safeDispatch(ctx, d)
		if err != nil {
			appErr := errors.New().Wrap(ErrDeliveryFailed, err)
			c.log.Warn().
				Str("error_code", string(appErr.Code())).
				Str("dispatcher", c.dispatcher.Name()).
				Str("id", d.Notification.ID).
				Err(err).
				Msg("External delivery failed")
		} else {
			c.log.Debug().
				Str("dispatcher", c.dispatcher.Name()).
				Str("id", d.Notification.ID).
				Msg("Notification delivered")
		}

		c.observer.DeliveryCompleted(d.Notification.Kind, err)
	}()
}

func (c *Center) safeDispatch(ctx context.Context, d Delivery) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- errors.New().WithData(ErrDeliveryPanic, r)
			}
		}()
		done <- c.dispatcher.Dispatch(ctx, d)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return errors.New().Wrap(errors.ErrTimeout, ctx.Err())
	}
}

// MarkAllRead marks every notification as read. It is idempotent.
func (c *Center) MarkAllRead(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed, err := c.store.MarkAllRead(ctx)
	if err != nil {
		return err
	}

	c.log.Debug().Int("changed", changed).Msg("Notifications marked read")

	return nil
}

// UnreadCount returns the number of unread notifications.
func (c *Center) UnreadCount(ctx context.Context) (int, error) {
	return c.store.UnreadCount(ctx)
}

// List returns the log newest first.
func (c *Center) List(ctx context.Context) ([]Notification, error) {
	return c.store.List(ctx)
}

// Settings returns the current settings.
func (c *Center) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// UpdateSettings applies a partial update and returns the result.
func (c *Center) UpdateSettings(p SettingsPatch) Settings {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.settings = p.Apply(c.settings)
	c.log.Debug().Interface("settings", c.settings).Msg("Notification settings updated")

	return c.settings
}

// ToggleSetting flips one setting by name.
func (c *Center) ToggleSetting(name string) (Settings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.settings.Toggle(name)
	if err != nil {
		return c.settings, err
	}
	c.settings = s

	return s, nil
}

// Permission returns the current push permission.
func (c *Center) Permission() Permission {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.permission
}

// SetPermission records the platform's push permission.
func (c *Center) SetPermission(p Permission) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.permission = p
}

// Wait blocks until in-flight deliveries finish or the delivery timeout
// (plus a small grace period) elapses.
func (c *Center) Wait() {
	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(c.timeout + 100*time.Millisecond):
		c.log.Warn().Msg("Timed out waiting for deliveries")
	}
}

// Close waits for deliveries and closes the store.
func (c *Center) Close() error {
	c.Wait()
	return c.store.Close()
}
