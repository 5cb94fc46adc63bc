// Package sim generates circular flight paths for the telemetry simulator.
package sim

import (
	"math"
	"time"
)

// metersPerDegree approximates one degree of latitude near the equator.
const metersPerDegree = 111000.0

// Path is a circular flight path around a center point, flown at constant
// altitude and speed.
type Path struct {
	CenterLat float64
	CenterLon float64
	Radius    float64 // degrees; ~0.001 is roughly a 111m circle
	Altitude  float64 // meters
	Speed     float64 // m/s
	Points    int     // positions per full circle
}

// Position returns the i-th point on the circle. i wraps, so a simulator can
// keep incrementing forever.
func (p Path) Position(i int) (lat, lon float64) {
	if p.Points <= 0 {
		return p.CenterLat, p.CenterLon
	}
	angle := 2 * math.Pi * float64(i%p.Points) / float64(p.Points)
	return p.CenterLat + p.Radius*math.Cos(angle), p.CenterLon + p.Radius*math.Sin(angle)
}

// Interval is the publish delay that makes the configured speed plausible:
// circumference divided by speed, split across the points of one lap.
func (p Path) Interval() time.Duration {
	if p.Speed <= 0 || p.Points <= 0 {
		return time.Second
	}
	circumference := 2 * math.Pi * p.Radius * metersPerDegree
	secondsPerLap := circumference / p.Speed
	return time.Duration(secondsPerLap / float64(p.Points) * float64(time.Second))
}

// BarometerAltitude simulates the barometric reading lagging true altitude.
func (p Path) BarometerAltitude() float64 {
	return p.Altitude - 10
}
