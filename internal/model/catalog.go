package model

import "time"

const (
	WaterSensorID = 6
	SmokeSensorID = 7
)

const (
	TypeWaterLevel = "WaterLevelSensor"
	TypeSmoke      = "SmokeSensor"
)

var catalog = []Sensor{
	{
		ID:          WaterSensorID,
		Type:        TypeWaterLevel,
		Name:        "Water Level Sensor #6",
		Unit:        "cm",
		NormalRange: Range{Lo: 0, Hi: 100},
		AlertRange:  Range{Lo: 100, Hi: 200},
		Noise:       1.0,
		Bounds:      Range{Lo: 0, Hi: 200},
		Threshold:   100,
		AlertLabel:  "ALERT: flood!",
		Interval:    3 * time.Second,
	},
	{
		ID:          SmokeSensorID,
		Type:        TypeSmoke,
		Name:        "Smoke Sensor #7",
		Unit:        "ppm",
		NormalRange: Range{Lo: 5, Hi: 200},
		AlertRange:  Range{Lo: 200, Hi: 1000},
		Noise:       2.0,
		Bounds:      Range{Lo: 5, Hi: 1000},
		Threshold:   200,
		AlertLabel:  "ALERT: smoke detected!",
		Interval:    2 * time.Second,
	},
}

// Sensors returns a copy of the fixed sensor table, ordered by id.
func Sensors() []Sensor {
	out := make([]Sensor, len(catalog))
	copy(out, catalog)
	return out
}

// LookupSensor finds a sensor definition by device id.
func LookupSensor(id int) (Sensor, bool) {
	for _, s := range catalog {
		if s.ID == id {
			return s, true
		}
	}
	return Sensor{}, false
}
