// Package model holds the sensor catalog and the values exchanged by the simulator.
package model
