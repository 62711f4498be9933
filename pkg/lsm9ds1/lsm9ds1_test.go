package lsm9ds1

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericogr/lsm9ds1-to-mqtt/pkg/calibration"
)

func init() {
	sleep = func(time.Duration) {}
}

func newStarted(t *testing.T) (*Device, *SimulatedBus) {
	t.Helper()
	bus := NewSimulatedBus(nil)
	d := New(bus, nil)
	require.NoError(t, d.Begin())
	return d, bus
}

func TestBeginDefaults(t *testing.T) {
	_, bus := newStarted(t)
	assert.Equal(t, byte(0x05), bus.Register(DefaultAddr, regCtrlReg8))
	assert.Equal(t, byte(0x78), bus.Register(DefaultAddr, regCtrlReg1G))
	assert.Equal(t, byte(0x70), bus.Register(DefaultAddr, regCtrlReg6X))
	assert.Equal(t, byte(0xB4), bus.Register(DefaultMagnetAddr, regCtrlReg1M))
	assert.Equal(t, byte(0x00), bus.Register(DefaultMagnetAddr, regCtrlReg2M))
	assert.Equal(t, byte(0x00), bus.Register(DefaultMagnetAddr, regCtrlReg3M))
}

func TestBeginDefaultRanges(t *testing.T) {
	d, _ := newStarted(t)

	fs, err := d.AccelFS()
	require.NoError(t, err)
	assert.Equal(t, 4.0, fs)
	odr, err := d.AccelODR()
	require.NoError(t, err)
	assert.Equal(t, 119.0, odr)

	fs, err = d.GyroFS()
	require.NoError(t, err)
	assert.Equal(t, 2000.0, fs)
	odr, err = d.GyroODR()
	require.NoError(t, err)
	assert.Equal(t, 119.0, odr)

	fs, err = d.MagnetFS()
	require.NoError(t, err)
	assert.Equal(t, 400.0, fs)
	odr, err = d.MagnetODR()
	require.NoError(t, err)
	assert.Equal(t, 20.0, odr)
}

func TestBeginIdentityMismatch(t *testing.T) {
	t.Run("AccelGyro", func(t *testing.T) {
		bus := NewSimulatedBus(nil)
		bus.SetRegister(DefaultAddr, regWhoAmI, 0x00)
		err := New(bus, nil).Begin()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIdentityMismatch))
		// powered down again
		assert.Equal(t, byte(0x03), bus.Register(DefaultMagnetAddr, regCtrlReg3M))
	})
	t.Run("Magnetometer", func(t *testing.T) {
		bus := NewSimulatedBus(nil)
		bus.SetRegister(DefaultMagnetAddr, regWhoAmI, 0x68)
		err := New(bus, nil).Begin()
		assert.ErrorIs(t, err, ErrIdentityMismatch)
		assert.ErrorContains(t, err, "want 0x3D")
	})
}

func TestBeginTransportFailure(t *testing.T) {
	bus := NewSimulatedBus(nil)
	bus.Err = errors.New("nack")
	err := New(bus, nil).Begin()
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrIdentityMismatch))
	assert.ErrorContains(t, err, "nack")
}

func TestCustomAddresses(t *testing.T) {
	opts := &Opts{Addr: 0x6A, MagnetAddr: 0x1C}
	bus := NewSimulatedBus(opts)
	d := New(bus, opts)
	require.NoError(t, d.Begin())
	assert.Equal(t, byte(0x78), bus.Register(0x6A, regCtrlReg1G))

	_, err := New(bus, nil).ReadRaw(Accel)
	var nd *NoDeviceError
	require.ErrorAs(t, err, &nd)
	assert.Equal(t, uint16(DefaultAddr), nd.Addr)
}

func TestReadAccelScenario(t *testing.T) {
	d, bus := newStarted(t)
	require.NoError(t, d.SetAccelFS(AccelFS16G))
	bus.SetRaw(Accel, [3]int16{16384, 0, -16384})

	got, err := d.ReadAccel()
	require.NoError(t, err)
	assert.Equal(t, [3]float64{8, 0, -8}, got)
}

func TestReadGyroScenario(t *testing.T) {
	d, bus := newStarted(t)
	require.NoError(t, d.SetGyroFS(GyroFS245DPS))
	bus.SetRaw(Gyro, [3]int16{32767, -32768, 0})

	got, err := d.ReadGyro()
	require.NoError(t, err)
	assert.InDelta(t, 244.99, got[0], 0.01)
	assert.Equal(t, -245.0, got[1])
	assert.Equal(t, 0.0, got[2])
}

func TestReadMagneticField(t *testing.T) {
	d, bus := newStarted(t)
	require.NoError(t, d.SetMagnetFS(MagnetFS800UT))
	bus.SetRaw(Magnet, [3]int16{4096, -8192, 0})
	require.NoError(t, d.SetUnit(Magnet, calibration.Gauss))

	got, err := d.ReadMagneticField()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got[0], 1e-12)
	assert.InDelta(t, -2.0, got[1], 1e-12)
	assert.Equal(t, 0.0, got[2])
}

func TestReadFailureIsNaN(t *testing.T) {
	d, bus := newStarted(t)
	bus.Err = errors.New("bus gone")
	got, err := d.ReadAccel()
	require.Error(t, err)
	for _, v := range got {
		assert.True(t, math.IsNaN(v))
	}
}

func TestAccelOffsetZeroPoint(t *testing.T) {
	d, bus := newStarted(t)
	require.NoError(t, d.SetAccelFS(AccelFS2G))
	d.SetAccelSlope(1, 1, 1)
	d.SetAccelOffset(1.0, 0, 0)

	// 1.0 g on X at ±2 g
	bus.SetRaw(Accel, [3]int16{16384, 0, 0})
	got, err := d.ReadAccel()
	require.NoError(t, err)
	assert.Equal(t, 0.0, got[0])
}

func TestGyroCalibration(t *testing.T) {
	d, bus := newStarted(t)
	require.NoError(t, d.SetGyroFS(GyroFS500DPS))
	d.SetGyroSlope(2, 1, 0.5)
	d.SetGyroOffset(2, 0, 0)
	bus.SetRaw(Gyro, [3]int16{0, 3277, 32767})

	got, err := d.ReadGyro()
	require.NoError(t, err)
	assert.InDelta(t, -2.0, got[0], 1e-9)
	assert.InDelta(t, 3277*500.0/32768, got[1], 1e-9)
	assert.InDelta(t, 0.5*32767*500.0/32768, got[2], 1e-9)
}

func TestSetCalibration(t *testing.T) {
	d, bus := newStarted(t)
	c := calibration.New(calibration.RadiansPerSecond, [3]float64{1, 1, 1}, [3]float64{0.1, 0, 0})
	require.NoError(t, d.SetCalibration(Gyro, c))
	got, err := d.Calibration(Gyro)
	require.NoError(t, err)
	assert.Equal(t, c, got)
	d.SetMagnetSlope(1, 2, 3)
	d.SetMagnetOffset(0, 2, 0)
	mag, err := d.Calibration(Magnet)
	require.NoError(t, err)
	assert.Equal(t, [3]float64{0, 1, 0}, mag.Offset)

	bus.SetRaw(Gyro, [3]int16{0, 0, 0})
	v, err := d.ReadGyro()
	require.NoError(t, err)
	assert.InDelta(t, -0.1, v[0], 1e-9)
}

func TestCalibrationUnknownChannel(t *testing.T) {
	d, _ := newStarted(t)
	bad := Channel(7)
	_, err := d.Calibration(bad)
	assert.ErrorIs(t, err, ErrInvalidSetting)
	assert.ErrorIs(t, d.SetCalibration(bad, calibration.Identity()), ErrInvalidSetting)
	assert.ErrorIs(t, d.SetUnit(bad, calibration.Gauss), ErrInvalidSetting)
	assert.ErrorIs(t, d.SetUnit(Channel(-1), calibration.Gauss), ErrInvalidSetting)
	assert.ErrorIs(t, d.PowerDown(bad), ErrInvalidSetting)
}

func TestPowerDown(t *testing.T) {
	d, bus := newStarted(t)
	require.NoError(t, d.PowerDown(Accel))
	require.NoError(t, d.PowerDown(Gyro))
	require.NoError(t, d.PowerDown(Magnet))

	// only the ODR bits are cleared
	assert.Equal(t, byte(0x10), bus.Register(DefaultAddr, regCtrlReg6X))
	assert.Equal(t, byte(0x18), bus.Register(DefaultAddr, regCtrlReg1G))
	assert.Equal(t, byte(0x03), bus.Register(DefaultMagnetAddr, regCtrlReg3M))
	assert.Equal(t, byte(0xB4), bus.Register(DefaultMagnetAddr, regCtrlReg1M))

	for _, ch := range []Channel{Accel, Gyro} {
		hz, err := d.ODR(ch)
		require.NoError(t, err)
		assert.Zero(t, hz, ch.String())
	}
}

func TestContinuousMode(t *testing.T) {
	d, bus := newStarted(t)
	require.NoError(t, d.SetContinuousMode())
	assert.True(t, d.Continuous())
	assert.Equal(t, byte(0x02), bus.Register(DefaultAddr, regCtrlReg9))
	assert.Equal(t, byte(0xC0), bus.Register(DefaultAddr, regFIFOCtrl))

	// status says ready but FIFO is empty
	bus.SetRegister(DefaultAddr, regStatusReg, statusXLDA)
	ok, err := d.AccelAvailable()
	require.NoError(t, err)
	assert.False(t, ok)

	bus.SetRegister(DefaultAddr, regFIFOSrc, 0x05)
	ok, err = d.AccelAvailable()
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, d.SetOneShotMode())
	assert.False(t, d.Continuous())
	assert.Equal(t, byte(0x00), bus.Register(DefaultAddr, regCtrlReg9))
	assert.Equal(t, byte(0x00), bus.Register(DefaultAddr, regFIFOCtrl))
	ok, err = d.Available(Accel)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAvailable(t *testing.T) {
	d, bus := newStarted(t)
	for _, ch := range Channels {
		ok, err := d.Available(ch)
		require.NoError(t, err)
		assert.False(t, ok, ch.String())
	}
	bus.SetRegister(DefaultAddr, regStatusReg, statusGDA)
	bus.SetRegister(DefaultMagnetAddr, regStatusRegM, statusMZYXDA)
	ok, err := d.GyroAvailable()
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = d.MagneticFieldAvailable()
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = d.AccelAvailable()
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = d.Available(Channel(9))
	assert.ErrorIs(t, err, ErrInvalidSetting)
}

func TestEnd(t *testing.T) {
	d, bus := newStarted(t)
	require.NoError(t, d.End())
	assert.Equal(t, byte(0x03), bus.Register(DefaultMagnetAddr, regCtrlReg3M))
	assert.Equal(t, byte(0x00), bus.Register(DefaultAddr, regCtrlReg1G))
	assert.Equal(t, byte(0x00), bus.Register(DefaultAddr, regCtrlReg6X))
}

func TestChannelNames(t *testing.T) {
	for _, ch := range Channels {
		got, err := ParseChannel(ch.String())
		require.NoError(t, err)
		assert.Equal(t, ch, got)
	}
	_, err := ParseChannel("temp")
	assert.Error(t, err)
	assert.Equal(t, "channel(7)", Channel(7).String())
}

func TestReadSample(t *testing.T) {
	d, bus := newStarted(t)
	bus.SetRaw(Magnet, [3]int16{-1, 2, 32767})
	raw, v, err := d.ReadSample(Magnet)
	require.NoError(t, err)
	assert.Equal(t, [3]int16{-1, 2, 32767}, raw)
	assert.InDelta(t, 400.0*32767/32768, v[2], 1e-9)

	bus.MarkAvailable()
	for _, ch := range Channels {
		ok, err := d.Available(ch)
		require.NoError(t, err)
		assert.True(t, ok, ch.String())
	}
}
