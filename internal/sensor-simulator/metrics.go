package sensor_simulator

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/LeonardoBeccarini/sensor_simulator/internal/model"
)

const (
	OutcomeSent     = "sent"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeDropped  = "dropped"
)

// Metrics groups the simulator collectors. A nil *Metrics records nothing.
type Metrics struct {
	readings      *prometheus.CounterVec
	transmissions *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	loopErrors    *prometheus.CounterVec
	running       prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sensorsim",
			Name:      "readings_total",
			Help:      "Generated readings by device and alert level.",
		}, []string{"device_id", "level"}),
		transmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sensorsim",
			Name:      "transmissions_total",
			Help:      "Transmission attempts by sink and outcome.",
		}, []string{"sink", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sensorsim",
			Name:      "transmission_duration_seconds",
			Help:      "Time spent delivering one reading to a sink.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"sink"}),
		loopErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sensorsim",
			Name:      "loop_errors_total",
			Help:      "Recovered per-iteration failures by device.",
		}, []string{"device_id"}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sensorsim",
			Name:      "running",
			Help:      "1 while a simulation run is active.",
		}),
	}
	reg.MustRegister(m.readings, m.transmissions, m.duration, m.loopErrors, m.running)
	return m
}

func (m *Metrics) observeReading(r model.Reading) {
	if m == nil {
		return
	}
	m.readings.WithLabelValues(strconv.Itoa(r.DeviceID), string(r.Level)).Inc()
}

func (m *Metrics) observeTransmission(sink, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.transmissions.WithLabelValues(sink, outcome).Inc()
	m.duration.WithLabelValues(sink).Observe(time.Since(started).Seconds())
}

func (m *Metrics) observeLoopError(deviceID int) {
	if m == nil {
		return
	}
	m.loopErrors.WithLabelValues(strconv.Itoa(deviceID)).Inc()
}

func (m *Metrics) setRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.running.Set(1)
	} else {
		m.running.Set(0)
	}
}
