package sensor_simulator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/sensor_simulator/internal/model"
)

const defaultErrorPause = time.Second

// SensorSimulator is the polling loop of one sensor.
type SensorSimulator struct {
	sensor      model.Sensor
	generator   *Generator
	transmitter Transmitter
	log         *zap.Logger
	metrics     *Metrics
	errorPause  time.Duration

	active     atomic.Bool
	iterations atomic.Int64
}

func NewSensorSimulator(sensor model.Sensor, gen *Generator, tx Transmitter, log *zap.Logger, m *Metrics, errorPause time.Duration) *SensorSimulator {
	if errorPause <= 0 {
		errorPause = defaultErrorPause
	}
	return &SensorSimulator{
		sensor:      sensor,
		generator:   gen,
		transmitter: tx,
		log:         log.With(zap.Int("device_id", sensor.ID), zap.String("sensor", sensor.Name)),
		metrics:     m,
		errorPause:  errorPause,
	}
}

// Active reports whether Run is currently iterating.
func (s *SensorSimulator) Active() bool { return s.active.Load() }

// Iterations counts completed iterations, failed ones included.
func (s *SensorSimulator) Iterations() int64 { return s.iterations.Load() }

func (s *SensorSimulator) Sensor() model.Sensor { return s.sensor }

// Run iterates until ctx is cancelled. A failing iteration never ends the loop.
func (s *SensorSimulator) Run(ctx context.Context, mode model.Mode) {
	s.active.Store(true)
	defer s.active.Store(false)

	for ctx.Err() == nil {
		wait := s.sensor.Interval
		if err := s.step(ctx, mode); err != nil {
			s.log.Error("sensor iteration failed", zap.Error(err))
			s.metrics.observeLoopError(s.sensor.ID)
			wait = s.errorPause
		}
		s.iterations.Add(1)

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (s *SensorSimulator) step(ctx context.Context, mode model.Mode) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	value := s.generator.Generate(s.sensor, mode)
	level := Classify(s.sensor.ID, value)
	reading := model.NewReading(s.sensor.ID, value, level, time.Now().UTC())

	s.log.Info("reading",
		zap.String("value", formatValue(reading.Value)),
		zap.String("unit", s.sensor.Unit),
		zap.String("status", Label(s.sensor.ID, level)),
	)
	s.metrics.observeReading(reading)

	// an in-flight send outlives Stop; the client timeout bounds it
	s.transmitter.Transmit(context.WithoutCancel(ctx), reading)
	return nil
}
