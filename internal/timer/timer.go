package timer

import "fmt"

// State is the derived lifecycle state of a Timer.
type State int

const (
	Idle State = iota
	Running
	Paused
	Completed
)

var stateLabels = map[State]string{
	Idle:      "IDLE",
	Running:   "RUNNING",
	Paused:    "PAUSED",
	Completed: "DONE!",
}

func (s State) String() string {
	return stateLabels[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Timer is one countdown. Values handed out by Manager are copies.
type Timer struct {
	ID               string
	Name             string
	DurationSeconds  int
	RemainingSeconds int
	IsRunning        bool
	IsCompleted      bool
}

// State derives the lifecycle state from the timer fields.
func (t Timer) State() State {
	switch {
	case t.IsCompleted:
		return Completed
	case t.IsRunning:
		return Running
	case t.RemainingSeconds == t.DurationSeconds:
		return Idle
	default:
		return Paused
	}
}

// Remaining formats the remaining time as m:ss.
func (t Timer) Remaining() string {
	return Format(t.RemainingSeconds)
}

// Format renders seconds as minutes:seconds with zero-padded seconds.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}

	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// View is the display snapshot of a timer.
type View struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Remaining string `json:"remaining"`
	State     State  `json:"state"`
	Seconds   int    `json:"remainingSeconds"`
	Duration  int    `json:"durationSeconds"`
}

// View converts t into its display snapshot.
func (t Timer) View() View {
	return View{
		ID:        t.ID,
		Name:      t.Name,
		Remaining: t.Remaining(),
		State:     t.State(),
		Seconds:   t.RemainingSeconds,
		Duration:  t.DurationSeconds,
	}
}
