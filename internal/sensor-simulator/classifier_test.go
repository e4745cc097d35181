package sensor_simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LeonardoBeccarini/sensor_simulator/internal/model"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, model.LevelAlert, Classify(6, 150))
	assert.Equal(t, model.LevelNormal, Classify(6, 50))
	assert.Equal(t, model.LevelAlert, Classify(7, 250))
	assert.Equal(t, model.LevelNormal, Classify(7, 100))
}

func TestClassifyThresholdIsExclusive(t *testing.T) {
	assert.Equal(t, model.LevelNormal, Classify(6, 100))
	assert.Equal(t, model.LevelAlert, Classify(6, 100.1))
	assert.Equal(t, model.LevelNormal, Classify(7, 200))
}

func TestClassifyUnknownDevice(t *testing.T) {
	assert.Equal(t, model.LevelNormal, Classify(99, 1e6))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "ALERT: flood!", Label(6, model.LevelAlert))
	assert.Equal(t, "ALERT: smoke detected!", Label(7, model.LevelAlert))
	assert.Equal(t, "Normal", Label(7, model.LevelNormal))
}
