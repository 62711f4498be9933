// Package calibration converts raw sensor triplets into calibrated physical
// values.
//
// A reading is computed as
//
//	value = Unit * Slope * (fullScale/32768 * raw - Offset)
//
// Offset is stored in the sensor's native scale (g, dps, µT), stripped of
// unit and slope, so the unit can be changed later without recalibrating.
package calibration

import "math"

// Output units, expressed as multipliers of the sensor's native scale.
const (
	Gravity          = 1.0
	MetersPerSecond2 = 9.80665

	DegreesPerSecond     = 1.0
	RadiansPerSecond     = math.Pi / 180.0
	RevolutionsPerMinute = 1.0 / 6.0

	Microtesla = 1.0
	Gauss      = 0.01
	Nanotesla  = 1000.0
)

const fullScaleCode = 32768.0

// Channel holds the calibration of one physical quantity.
type Channel struct {
	Unit   float64
	Slope  [3]float64
	Offset [3]float64
}

// Identity returns a calibration that leaves values in native scale.
func Identity() Channel {
	return Channel{Unit: 1, Slope: [3]float64{1, 1, 1}}
}

// New builds a calibration from a unit, per-axis slope and a zero-point
// offset measured in the given unit and slope.
func New(unit float64, slope [3]float64, physicalOffset [3]float64) Channel {
	c := Channel{Unit: unit, Slope: slope}
	c.SetOffset(physicalOffset[0], physicalOffset[1], physicalOffset[2])
	return c
}

// SetSlope stores the dimensionless per-axis slope as is.
//
// The stored offset is not rescaled, so in a combined calibration set the
// slope first and the offset afterwards.
func (c *Channel) SetSlope(x, y, z float64) {
	c.Slope = [3]float64{x, y, z}
}

// SetOffset stores a zero-point measurement taken with the current unit and
// slope. A zero unit or slope yields a non-finite offset.
func (c *Channel) SetOffset(x, y, z float64) {
	c.Offset[0] = x / (c.Unit * c.Slope[0])
	c.Offset[1] = y / (c.Unit * c.Slope[1])
	c.Offset[2] = z / (c.Unit * c.Slope[2])
}

// WithUnit returns a copy of c reporting values in unit.
func (c Channel) WithUnit(unit float64) Channel {
	c.Unit = unit
	return c
}

// Convert scales a raw triplet by fullScale, the physical value of the
// maximum positive code, and applies cal.
func Convert(raw [3]int16, fullScale float64, cal Channel) [3]float64 {
	scale := fullScale / fullScaleCode
	var out [3]float64
	for i := range out {
		out[i] = cal.Unit * cal.Slope[i] * (scale*float64(raw[i]) - cal.Offset[i])
	}
	return out
}
