package domain

import "time"

// Mode selects where the monitor reports: console or system log.
type Mode int

const (
	Interactive Mode = iota
	Daemon
)

func (m Mode) String() string {
	if m == Daemon {
		return "daemon"
	}
	return "interactive"
}

// Reading is the outcome of one successful sensor cycle. Created once per
// cycle, never mutated; the loop carries only the AQI forward to the next
// cycle.
type Reading struct {
	PM25      float64   `json:"pm25"`
	PM10      float64   `json:"pm10"`
	AQI       float64   `json:"aqi"`
	Timestamp time.Time `json:"timestamp"`
}
