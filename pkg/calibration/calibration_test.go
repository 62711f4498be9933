package calibration

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertIdentity(t *testing.T) {
	raws := [][3]int16{
		{0, 0, 0},
		{1, -1, 2},
		{16384, 0, -16384},
		{32767, -32768, 12345},
	}
	for _, fs := range []float64{2, 4, 8, 16, 245, 2000, 400} {
		for _, raw := range raws {
			got := Convert(raw, fs, Identity())
			for i := range got {
				assert.Equal(t, float64(raw[i])*fs/32768.0, got[i], "fs=%v raw=%v axis=%d", fs, raw, i)
			}
		}
	}
}

func TestConvertScenarios(t *testing.T) {
	t.Run("Accel16g", func(t *testing.T) {
		got := Convert([3]int16{16384, 0, -16384}, 16.0, Identity())
		assert.Equal(t, [3]float64{8, 0, -8}, got)
	})
	t.Run("Gyro245dps", func(t *testing.T) {
		got := Convert([3]int16{32767, -32768, 0}, 245.0, Identity())
		assert.InDelta(t, 244.99, got[0], 0.01)
		assert.Equal(t, -245.0, got[1])
		assert.Equal(t, 0.0, got[2])
	})
	t.Run("Bounds", func(t *testing.T) {
		got := Convert([3]int16{math.MinInt16, math.MaxInt16, 0}, 2.0, Identity())
		assert.Equal(t, -2.0, got[0])
		assert.Less(t, got[1], 2.0)
		assert.Greater(t, got[1], 1.9999)
	})
}

func TestSetOffsetZeroPoint(t *testing.T) {
	// 1.0 g on X at ±2g is raw 16384
	c := Identity()
	c.SetOffset(1.0, 0, 0)
	got := Convert([3]int16{16384, 0, 0}, 2.0, c)
	assert.Equal(t, 0.0, got[0])

	cases := []struct {
		unit  float64
		slope [3]float64
		fs    float64
		raw   [3]int16
	}{
		{MetersPerSecond2, [3]float64{1.02, 0.98, 1.0}, 4, [3]int16{812, -3000, 8000}},
		{RadiansPerSecond, [3]float64{0.5, 2, 1.1}, 2000, [3]int16{-32768, 32767, 5}},
		{Gauss, [3]float64{1, 1, 1}, 400, [3]int16{100, 200, -300}},
	}
	for _, tc := range cases {
		c := Channel{Unit: tc.unit, Slope: tc.slope}
		phys := Convert(tc.raw, tc.fs, c)
		c.SetOffset(phys[0], phys[1], phys[2])
		got := Convert(tc.raw, tc.fs, c)
		for i := range got {
			assert.InDelta(t, 0.0, got[i], 1e-9)
		}
	}
}

func TestNewMatchesSetters(t *testing.T) {
	slope := [3]float64{1.1, 0.9, 1.05}
	off := [3]float64{0.3, -0.2, 0.01}

	c := Channel{Unit: MetersPerSecond2}
	c.SetSlope(slope[0], slope[1], slope[2])
	c.SetOffset(off[0], off[1], off[2])

	assert.Equal(t, c, New(MetersPerSecond2, slope, off))
}

func TestSlopeAfterOffsetKeepsNativeZero(t *testing.T) {
	c := Identity()
	c.SetOffset(1.0, 0, 0)
	c.SetSlope(2, 1, 1)
	got := Convert([3]int16{16384, 0, 0}, 2.0, c)
	assert.Equal(t, 0.0, got[0])

	// offset set after a slope is divided by it
	c = Identity()
	c.SetSlope(2, 1, 1)
	c.SetOffset(1.0, 0, 0)
	assert.Equal(t, 0.5, c.Offset[0])
}

func TestWithUnitKeepsNativeOffset(t *testing.T) {
	c := New(Gravity, [3]float64{1, 1, 1}, [3]float64{0.5, 0, 0})
	ms2 := c.WithUnit(MetersPerSecond2)
	require.Equal(t, c.Offset, ms2.Offset)

	got := Convert([3]int16{16384, 0, 0}, 2.0, ms2)
	assert.InDelta(t, 0.5*MetersPerSecond2, got[0], 1e-9)
	assert.Equal(t, Gravity, c.Unit)
}

func TestDegenerateCalibration(t *testing.T) {
	c := Channel{Unit: 0, Slope: [3]float64{1, 0, 1}}
	c.SetOffset(1, 1, 0)
	assert.True(t, math.IsInf(c.Offset[0], 1))
	assert.True(t, math.IsInf(c.Offset[1], 1))
	assert.True(t, math.IsNaN(c.Offset[2]))
}
