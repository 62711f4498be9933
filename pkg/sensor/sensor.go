package sensor

import "time"

// Reading is one sample of a channel. Value is in Unit.
type Reading struct {
	Channel   string     `json:"channel"`
	Unit      string     `json:"unit"`
	Raw       [3]int16   `json:"raw"`
	Value     [3]float64 `json:"value"`
	Timestamp time.Time  `json:"timestamp"`
}

type Sensor interface {
	Read() ([]Reading, error)
	Close() error
}
