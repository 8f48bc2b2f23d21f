package sensor

import "time"

// Kind identifies one simulated metric.
type Kind int

const (
	Temperature Kind = iota
	Humidity
	Gas
	Flame
)

// Kinds lists every metric in display order.
var Kinds = []Kind{Temperature, Humidity, Gas, Flame}

func (k Kind) String() string {
	switch k {
	case Temperature:
		return "temperature"
	case Humidity:
		return "humidity"
	case Gas:
		return "gas"
	case Flame:
		return "flame"
	default:
		return "unknown"
	}
}

// Unit returns the display unit of the metric.
func (k Kind) Unit() string {
	switch k {
	case Temperature:
		return "°C"
	case Gas:
		return "ppm"
	default:
		return "%"
	}
}

// Bounds is the closed range a metric is clamped to.
type Bounds struct {
	Min, Max float64
}

var bounds = map[Kind]Bounds{
	Temperature: {Min: 15, Max: 50},
	Humidity:    {Min: 20, Max: 80},
	Gas:         {Min: 0, Max: 1000},
	Flame:       {Min: 0, Max: 100},
}

// BoundsOf returns the range of a metric.
func BoundsOf(k Kind) Bounds {
	return bounds[k]
}

// Clamp limits v to the range of k.
func (k Kind) Clamp(v float64) float64 {
	b := bounds[k]
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}

	return v
}

// Reading is one snapshot of all metrics.
type Reading struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Gas         float64   `json:"gas"`
	Flame       float64   `json:"flame"`
	Timestamp   time.Time `json:"timestamp"`
}

// Value returns the value of one metric.
func (r Reading) Value(k Kind) float64 {
	switch k {
	case Temperature:
		return r.Temperature
	case Humidity:
		return r.Humidity
	case Gas:
		return r.Gas
	case Flame:
		return r.Flame
	default:
		return 0
	}
}

// With returns a copy of r with metric k set to the clamped value v.
func (r Reading) With(k Kind, v float64) Reading {
	v = k.Clamp(v)
	switch k {
	case Temperature:
		r.Temperature = v
	case Humidity:
		r.Humidity = v
	case Gas:
		r.Gas = v
	case Flame:
		r.Flame = v
	}

	return r
}

// InitialReading is the reading the simulator starts from.
func InitialReading() Reading {
	return Reading{
		Temperature: 24,
		Humidity:    45,
		Gas:         150,
		Flame:       0,
	}
}
