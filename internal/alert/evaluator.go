package alert

import (
	"time"

	"codeberg.org/mutker/kitchenctl/internal/sensor"
)

// DefaultCooldown is the minimum time between two danger alerts.
const DefaultCooldown = 30 * time.Second

const (
	MessageTemperature = "High temperature detected"
	MessageGas         = "Gas leak detected"
	MessageFlame       = "Flame detected"
	MessageFallback    = "Please check your kitchen immediately"
)

// Status is the aggregate state of the kitchen.
type Status int

const (
	Safe Status = iota
	Danger
)

func (s Status) String() string {
	if s == Danger {
		return "danger"
	}
	return "safe"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// priority decides which critical metric drives the alert message.
var priority = []struct {
	kind    sensor.Kind
	message string
}{
	{sensor.Temperature, MessageTemperature},
	{sensor.Gas, MessageGas},
	{sensor.Flame, MessageFlame},
}

// Decision is the outcome of evaluating one reading.
type Decision struct {
	Status     Status
	Severities map[sensor.Kind]sensor.Severity
	Fire       bool
	Driver     sensor.Kind
	Message    string
}

// Evaluator turns readings into danger alerts, suppressing repeats inside
// the cooldown window. It is not safe for concurrent use; Monitor guards it.
type Evaluator struct {
	cooldown  time.Duration
	lastAlert time.Time
	hasAlert  bool
	status    Status
}

// NewEvaluator returns an Evaluator with the given cooldown.
func NewEvaluator(cooldown time.Duration) *Evaluator {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	return &Evaluator{cooldown: cooldown}
}

// StatusOf derives the aggregate status from metric severities.
func StatusOf(sev map[sensor.Kind]sensor.Severity) Status {
	for _, s := range sev {
		if s == sensor.Critical {
			return Danger
		}
	}

	return Safe
}

// Evaluate classifies r and decides whether a danger alert fires at now.
// The cooldown is keyed to the last alert time only; a return to Safe does
// not re-arm it.
func (e *Evaluator) Evaluate(r sensor.Reading, now time.Time) Decision {
	sev := r.Severities()
	d := Decision{
		Status:     StatusOf(sev),
		Severities: sev,
	}
	e.status = d.Status

	if d.Status != Danger {
		return d
	}

	if e.hasAlert && now.Sub(e.lastAlert) < e.cooldown {
		return d
	}

	d.Fire = true
	d.Message = MessageFallback
	for _, p := range priority {
		if sev[p.kind] == sensor.Critical {
			d.Driver = p.kind
			d.Message = p.message
			break
		}
	}

	e.lastAlert = now
	e.hasAlert = true

	return d
}

// Status returns the status of the last evaluation.
func (e *Evaluator) Status() Status {
	return e.status
}

// LastAlert returns the time of the last fired alert, if any.
func (e *Evaluator) LastAlert() (time.Time, bool) {
	return e.lastAlert, e.hasAlert
}
