package config

import (
	"fmt"
	"math"

	"github.com/ericogr/lsm9ds1-to-mqtt/pkg/calibration"
)

// nativeUnits is the unit each channel reports in without conversion.
var nativeUnits = map[string]string{
	"accel":  "g",
	"gyro":   "dps",
	"magnet": "uT",
}

var units = map[string]map[string]float64{
	"accel": {
		"g":    calibration.Gravity,
		"m/s2": calibration.MetersPerSecond2,
	},
	"gyro": {
		"dps":   calibration.DegreesPerSecond,
		"rad/s": calibration.RadiansPerSecond,
		"rpm":   calibration.RevolutionsPerMinute,
	},
	"magnet": {
		"uT":    calibration.Microtesla,
		"gauss": calibration.Gauss,
		"nT":    calibration.Nanotesla,
	},
}

// UnitName returns the configured unit, or the channel's native unit.
func (c ChannelConfig) UnitName() string {
	if c.Unit != "" {
		return c.Unit
	}
	return nativeUnits[c.Channel]
}

// Calibration builds the channel calibration. The offset is taken as a
// zero-point measurement in the configured unit and slope.
func (c ChannelConfig) Calibration() (calibration.Channel, error) {
	table, ok := units[c.Channel]
	if !ok {
		return calibration.Channel{}, fmt.Errorf("unknown channel %q", c.Channel)
	}
	unit, ok := table[c.UnitName()]
	if !ok {
		return calibration.Channel{}, fmt.Errorf("channel %s: unknown unit %q", c.Channel, c.Unit)
	}
	slope := [3]float64{1, 1, 1}
	if c.Slope != nil {
		if len(c.Slope) != 3 {
			return calibration.Channel{}, fmt.Errorf("channel %s: slope needs 3 values, got %d", c.Channel, len(c.Slope))
		}
		copy(slope[:], c.Slope)
	}
	var offset [3]float64
	if c.Offset != nil {
		if len(c.Offset) != 3 {
			return calibration.Channel{}, fmt.Errorf("channel %s: offset needs 3 values, got %d", c.Channel, len(c.Offset))
		}
		copy(offset[:], c.Offset)
	}
	for i, s := range slope {
		if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return calibration.Channel{}, fmt.Errorf("channel %s: slope[%d] must be finite and non-zero", c.Channel, i)
		}
	}
	return calibration.New(unit, slope, offset), nil
}
