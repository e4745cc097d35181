package sensor_simulator

import "github.com/LeonardoBeccarini/sensor_simulator/internal/model"

const normalLabel = "Normal"

// Classify maps a device value to its alert level. Unknown devices are always normal.
func Classify(deviceID int, value float64) model.Level {
	s, ok := model.LookupSensor(deviceID)
	if ok && s.IsAlert(value) {
		return model.LevelAlert
	}
	return model.LevelNormal
}

// Label is the human-readable text for a level.
func Label(deviceID int, level model.Level) string {
	if level != model.LevelAlert {
		return normalLabel
	}
	if s, ok := model.LookupSensor(deviceID); ok {
		return s.AlertLabel
	}
	return "ALERT"
}
