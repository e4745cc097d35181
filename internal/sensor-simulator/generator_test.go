package sensor_simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/sensor_simulator/internal/model"
)

const draws = 5000

func sensor(t *testing.T, id int) model.Sensor {
	t.Helper()
	s, ok := model.LookupSensor(id)
	require.True(t, ok)
	return s
}

func TestGenerateNormalMode(t *testing.T) {
	g := NewGenerator(1)
	water, smoke := sensor(t, model.WaterSensorID), sensor(t, model.SmokeSensorID)

	for i := 0; i < draws; i++ {
		w := g.Generate(water, model.ModeNormal)
		assert.True(t, w >= 0 && w <= 101, "water %v", w)

		s := g.Generate(smoke, model.ModeNormal)
		assert.True(t, s >= 5 && s <= 202, "smoke %v", s)
	}
}

func TestGenerateAlertMode(t *testing.T) {
	g := NewGenerator(2)
	water, smoke := sensor(t, model.WaterSensorID), sensor(t, model.SmokeSensorID)

	for i := 0; i < draws; i++ {
		w := g.Generate(water, model.ModeAlert)
		assert.True(t, w >= 99 && w <= 200, "water %v", w)

		s := g.Generate(smoke, model.ModeAlert)
		assert.True(t, s >= 198 && s <= 1000, "smoke %v", s)
	}
}

func TestGenerateMixedStaysInBounds(t *testing.T) {
	g := NewGenerator(3)
	for _, s := range model.Sensors() {
		for i := 0; i < draws; i++ {
			v := g.Generate(s, model.ModeMixed)
			assert.True(t, s.Bounds.Contains(v), "%s %v", s.Type, v)
		}
	}
}

func TestMixedModeAlertShare(t *testing.T) {
	g := NewGenerator(4)
	water := sensor(t, model.WaterSensorID)

	const n = 10000
	alerts := 0
	for i := 0; i < n; i++ {
		if _, fromAlert := g.Draw(water, model.ModeMixed); fromAlert {
			alerts++
		}
	}
	assert.InDelta(t, 0.30, float64(alerts)/n, 0.05)
}

func TestDrawBranchFollowsMode(t *testing.T) {
	g := NewGenerator(5)
	smoke := sensor(t, model.SmokeSensorID)

	_, fromAlert := g.Draw(smoke, model.ModeNormal)
	assert.False(t, fromAlert)
	_, fromAlert = g.Draw(smoke, model.ModeAlert)
	assert.True(t, fromAlert)
}

func TestGeneratorSeedIsDeterministic(t *testing.T) {
	a, b := NewGenerator(42), NewGenerator(42)
	water := sensor(t, model.WaterSensorID)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Generate(water, model.ModeMixed), b.Generate(water, model.ModeMixed))
	}
}
