package sensor

// Severity is an ordered classification of a reading.
type Severity int

const (
	Normal Severity = iota
	Warning
	Critical
)

func (s Severity) String() string {
	switch s {
	case Normal:
		return "normal"
	case Warning:
		return "warning"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// threshold holds the exclusive lower limits of Warning and Critical.
type threshold struct {
	warning, critical float64
}

var thresholds = map[Kind]threshold{
	Temperature: {warning: 30, critical: 35},
	Gas:         {warning: 300, critical: 500},
	Flame:       {warning: 10, critical: 50},
}

// Classify maps a metric value to its severity. Humidity is never alerted on.
func Classify(k Kind, v float64) Severity {
	th, ok := thresholds[k]
	if !ok {
		return Normal
	}

	switch {
	case v > th.critical:
		return Critical
	case v > th.warning:
		return Warning
	default:
		return Normal
	}
}

// Severities classifies every metric of a reading.
func (r Reading) Severities() map[Kind]Severity {
	out := make(map[Kind]Severity, len(Kinds))
	for _, k := range Kinds {
		out[k] = Classify(k, r.Value(k))
	}

	return out
}
