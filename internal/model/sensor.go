package model

import "time"

// Range is a closed interval [Lo, Hi].
type Range struct {
	Lo float64
	Hi float64
}

// Contains reports whether v lies in [Lo, Hi].
func (r Range) Contains(v float64) bool {
	return v >= r.Lo && v <= r.Hi
}

// Clamp pins v into [Lo, Hi].
func (r Range) Clamp(v float64) float64 {
	if v < r.Lo {
		return r.Lo
	}
	if v > r.Hi {
		return r.Hi
	}
	return v
}

// Sensor describes one simulated device. Definitions are fixed at startup.
type Sensor struct {
	ID          int
	Type        string
	Name        string
	Unit        string
	NormalRange Range
	AlertRange  Range
	Noise       float64 // symmetric, +/- Noise
	Bounds      Range   // global clamp
	Threshold   float64
	AlertLabel  string
	Interval    time.Duration
}

// IsAlert reports whether v is above the sensor's alert threshold.
func (s Sensor) IsAlert(v float64) bool {
	return v > s.Threshold
}
