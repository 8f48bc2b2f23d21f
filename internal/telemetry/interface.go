package telemetry

import (
	"net/http"
	"time"

	"codeberg.org/mutker/kitchenctl/internal/alert"
	"codeberg.org/mutker/kitchenctl/internal/clock"
	"codeberg.org/mutker/kitchenctl/internal/notify"
	"codeberg.org/mutker/kitchenctl/internal/sensor"
	"codeberg.org/mutker/kitchenctl/internal/timer"
)

// Recorder receives engine events.
type Recorder interface {
	alert.Observer
	notify.Observer

	TickObserved(c clock.Cadence, d time.Duration)
	TimerCompleted(t timer.Timer)
	SetActiveTimers(n int)
	Handler() http.Handler
}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)

// Nop discards everything.
type Nop struct{}

func (Nop) Evaluated(sensor.Reading, alert.Decision)  {}
func (Nop) NotificationCreated(notify.Kind)           {}
func (Nop) DeliveryCompleted(notify.Kind, error)      {}
func (Nop) TickObserved(clock.Cadence, time.Duration) {}
func (Nop) TimerCompleted(timer.Timer)                {}
func (Nop) SetActiveTimers(int)                       {}
func (Nop) Handler() http.Handler                     { return http.NotFoundHandler() }
