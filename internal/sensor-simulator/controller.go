package sensor_simulator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/sensor_simulator/internal/model"
)

const defaultStopGrace = 2 * time.Second

var (
	ErrAlreadyRunning = errors.New("simulation already running")
	// ErrStillStopping is returned by Start while loops of the previous run outlive its grace period.
	ErrStillStopping = errors.New("previous simulation still stopping")
)

type Config struct {
	Sensors     []model.Sensor
	Generator   *Generator
	Transmitter Transmitter
	Metrics     *Metrics
	Logger      *zap.Logger

	StopGrace  time.Duration
	ErrorPause time.Duration
}

// StateFunc observes run transitions.
type StateFunc func(running bool, mode model.Mode)

// Controller owns the set of sensor loops. At most one run is active.
type Controller struct {
	cfg Config
	log *zap.Logger

	mu        sync.Mutex
	running   bool
	stopping  bool
	mode      model.Mode
	runID     string
	cancel    context.CancelFunc
	exited    chan struct{} // closed once every loop of the last run returned
	loops     []*SensorSimulator
	observers []StateFunc
}

func NewController(cfg Config) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Sensors == nil {
		cfg.Sensors = model.Sensors()
	}
	if cfg.Generator == nil {
		cfg.Generator = NewGenerator(0)
	}
	if cfg.Transmitter == nil {
		cfg.Transmitter = Fanout{}
	}
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = defaultStopGrace
	}
	return &Controller{cfg: cfg, log: cfg.Logger, mode: model.ModeNormal}
}

// OnStateChange registers fn; it is called after every start and stop.
func (c *Controller) OnStateChange(fn StateFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Start launches one loop per sensor and returns immediately.
func (c *Controller) Start(mode model.Mode) error {
	if _, err := model.ParseMode(string(mode)); err != nil {
		return err
	}

	c.mu.Lock()
	if c.running {
		current := c.mode
		c.mu.Unlock()
		c.log.Warn("simulation already running", zap.String("mode", string(current)))
		return ErrAlreadyRunning
	}
	if c.exited != nil {
		select {
		case <-c.exited:
		default:
			c.mu.Unlock()
			c.log.Warn("previous simulation loops have not exited yet")
			return ErrStillStopping
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	runID := uuid.NewString()
	log := c.log.With(zap.String("run_id", runID), zap.String("mode", string(mode)))

	loops := make([]*SensorSimulator, 0, len(c.cfg.Sensors))
	for _, s := range c.cfg.Sensors {
		loops = append(loops, NewSensorSimulator(s, c.cfg.Generator, c.cfg.Transmitter, log, c.cfg.Metrics, c.cfg.ErrorPause))
	}

	c.running = true
	c.mode = mode
	c.runID = runID
	c.cancel = cancel
	c.loops = loops
	c.exited = make(chan struct{})
	var wg sync.WaitGroup

	log.Info("starting simulation")
	for _, l := range loops {
		s := l.Sensor()
		log.Info("sensor configured", zap.Int("device_id", s.ID), zap.String("sensor", s.Name), zap.Duration("interval", s.Interval))
		l.active.Store(true)
		wg.Add(1)
		go func(l *SensorSimulator) {
			defer wg.Done()
			l.Run(ctx, mode)
		}(l)
	}
	go func(exited chan struct{}) {
		wg.Wait()
		close(exited)
	}(c.exited)
	observers := c.observers
	c.mu.Unlock()

	c.cfg.Metrics.setRunning(true)
	notify(observers, true, mode)
	return nil
}

// Stop cancels the run and waits up to the grace period for the loops to exit.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.running || c.stopping {
		c.mu.Unlock()
		return
	}
	c.stopping = true
	cancel, exited, mode := c.cancel, c.exited, c.mode
	log := c.log.With(zap.String("run_id", c.runID))
	c.mu.Unlock()

	log.Info("stopping simulation")
	cancel()

	select {
	case <-exited:
	case <-time.After(c.cfg.StopGrace):
		log.Warn("sensor loops still running after grace period", zap.Duration("grace", c.cfg.StopGrace))
	}

	c.mu.Lock()
	c.running = false
	c.stopping = false
	observers := c.observers
	c.mu.Unlock()

	log.Info("simulation stopped")
	c.cfg.Metrics.setRunning(false)
	notify(observers, false, mode)
}

func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Controller) Mode() model.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// RunID is the id of the current or last run, empty before the first start.
func (c *Controller) RunID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID
}

// ActiveLoops counts loops of the current run that are still iterating.
func (c *Controller) ActiveLoops() int {
	c.mu.Lock()
	loops := c.loops
	c.mu.Unlock()

	n := 0
	for _, l := range loops {
		if l.Active() {
			n++
		}
	}
	return n
}

func (c *Controller) Sensors() []model.Sensor {
	out := make([]model.Sensor, len(c.cfg.Sensors))
	copy(out, c.cfg.Sensors)
	return out
}

func notify(observers []StateFunc, running bool, mode model.Mode) {
	for _, fn := range observers {
		fn(running, mode)
	}
}
