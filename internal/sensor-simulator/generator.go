package sensor_simulator

import (
	"math/rand"
	"sync"
	"time"

	"github.com/LeonardoBeccarini/sensor_simulator/internal/model"
)

// mixedNormalShare is the probability that a mixed-mode draw uses the normal range.
const mixedNormalShare = 0.7

// Generator draws bounded pseudo-random values for a sensor.
// It is safe for concurrent use by the sensor loops.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator seeds from the clock when seed is 0.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate returns one value for s under mode, clamped to the sensor bounds.
func (g *Generator) Generate(s model.Sensor, mode model.Mode) float64 {
	v, _ := g.Draw(s, mode)
	return v
}

// Draw is Generate plus whether the base value came from the alert range.
func (g *Generator) Draw(s model.Sensor, mode model.Mode) (float64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var fromAlert bool
	switch mode {
	case model.ModeNormal:
	case model.ModeAlert:
		fromAlert = true
	default:
		// mixed: one Bernoulli trial per call
		fromAlert = g.rnd.Float64() >= mixedNormalShare
	}

	r := s.NormalRange
	if fromAlert {
		r = s.AlertRange
	}
	base := g.uniform(r.Lo, r.Hi)
	noise := g.uniform(-s.Noise, s.Noise)
	return s.Bounds.Clamp(base + noise), fromAlert
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rnd.Float64()*(hi-lo)
}
