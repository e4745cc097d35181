package model

import (
	"math"
	"time"
)

// Level is the alert classification of a reading.
type Level string

const (
	LevelNormal Level = "normal"
	LevelAlert  Level = "alert"
)

// Reading is one generated value. It is sent once and then dropped.
type Reading struct {
	DeviceID  int       `json:"deviceId"`
	Value     float64   `json:"value"`
	Level     Level     `json:"-"`
	Timestamp time.Time `json:"-"`
}

// NewReading rounds value to one decimal place.
func NewReading(deviceID int, value float64, level Level, t time.Time) Reading {
	return Reading{
		DeviceID:  deviceID,
		Value:     Round1(value),
		Level:     level,
		Timestamp: t,
	}
}

// Round1 rounds half away from zero to one decimal.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
