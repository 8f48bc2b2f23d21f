package clock

import (
	"context"
	"time"
)

// Ticker delivers ticks on C. Ticks that are not received in time are
// dropped, never queued.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Scheduler creates tickers and reports the current time.
type Scheduler interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Handler is invoked once per tick with the tick timestamp.
type Handler func(ctx context.Context, now time.Time)

// Cadence names a periodic signal.
type Cadence string

const (
	Fast Cadence = "fast"
	Slow Cadence = "slow"
)
