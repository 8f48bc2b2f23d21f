package engine

import (
	"context"
	"math"

	"codeberg.org/mutker/kitchenctl/internal/alert"
	"codeberg.org/mutker/kitchenctl/internal/errors"
	"codeberg.org/mutker/kitchenctl/internal/notify"
	"codeberg.org/mutker/kitchenctl/internal/sensor"
	"codeberg.org/mutker/kitchenctl/internal/timer"
)

// AddTimer creates an idle countdown of the given length in minutes.
func (e *Engine) AddTimer(name string, minutes int) (timer.View, error) {
	if minutes <= 0 {
		return timer.View{}, errors.New().WithData(errors.ErrInvalidInput, "timer duration must be positive")
	}
	if minutes > math.MaxInt/60 {
		return timer.View{}, errors.New().WithData(errors.ErrInvalidInput, "timer duration too long")
	}

	t, err := e.timers.Add(name, minutes*60)
	if err != nil {
		return timer.View{}, err
	}

	return t.View(), nil
}

func (e *Engine) ToggleTimer(id string) (timer.View, error) {
	t, err := e.timers.Toggle(id)
	if err != nil {
		return timer.View{}, err
	}
	e.recorder.SetActiveTimers(e.timers.Active())

	return t.View(), nil
}

func (e *Engine) StopTimer(id string) (timer.View, error) {
	t, err := e.timers.Stop(id)
	if err != nil {
		return timer.View{}, err
	}
	e.recorder.SetActiveTimers(e.timers.Active())

	return t.View(), nil
}

func (e *Engine) DeleteTimer(id string) error {
	if err := e.timers.Delete(id); err != nil {
		return err
	}
	e.recorder.SetActiveTimers(e.timers.Active())

	return nil
}

func (e *Engine) UpdateSettings(p notify.SettingsPatch) notify.Settings {
	return e.center.UpdateSettings(p)
}

func (e *Engine) ToggleSetting(name string) (notify.Settings, error) {
	return e.center.ToggleSetting(name)
}

func (e *Engine) SetPermission(p notify.Permission) {
	e.center.SetPermission(p)
}

func (e *Engine) MarkAllNotificationsRead(ctx context.Context) error {
	return e.center.MarkAllRead(ctx)
}

// TriggerTestNotification records an info entry through the normal path,
// including external delivery.
func (e *Engine) TriggerTestNotification(ctx context.Context) (notify.Notification, error) {
	return e.center.Create(ctx, notify.KindInfo, notify.TestMessage)
}

func (e *Engine) Reading() sensor.Reading {
	return e.monitor.Reading()
}

func (e *Engine) Status() alert.Status {
	return e.monitor.Status()
}

func (e *Engine) Notifications(ctx context.Context) ([]notify.Notification, error) {
	return e.center.List(ctx)
}

func (e *Engine) UnreadCount(ctx context.Context) (int, error) {
	return e.center.UnreadCount(ctx)
}

func (e *Engine) Settings() notify.Settings {
	return e.center.Settings()
}

func (e *Engine) Permission() notify.Permission {
	return e.center.Permission()
}

// Timers returns the display snapshot of all timers in creation order.
func (e *Engine) Timers() []timer.View {
	return e.timers.Views()
}
