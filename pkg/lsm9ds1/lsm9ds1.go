// Package lsm9ds1 drives the ST LSM9DS1 iNEMO inertial module: 3D
// accelerometer, 3D gyroscope and 3D magnetometer on two I2C addresses.
//
// A Device is not safe for concurrent use.
package lsm9ds1

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ericogr/lsm9ds1-to-mqtt/pkg/calibration"
)

var sleep = time.Sleep

// ErrIdentityMismatch is returned by Begin when a WHO_AM_I register does not
// hold the expected value.
var ErrIdentityMismatch = errors.New("identity mismatch")

// Channel is a measured quantity.
type Channel int

const (
	Accel Channel = iota
	Gyro
	Magnet
)

// Channels lists every channel in register order.
var Channels = []Channel{Accel, Gyro, Magnet}

func (c Channel) String() string {
	switch c {
	case Accel:
		return "accel"
	case Gyro:
		return "gyro"
	case Magnet:
		return "magnet"
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

func (c Channel) valid() bool { return c >= Accel && c <= Magnet }

// ParseChannel returns the channel named s.
func ParseChannel(s string) (Channel, error) {
	for _, c := range Channels {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown channel %q", s)
}

// Opts configures the bus addresses. Zero values select the defaults.
type Opts struct {
	Addr       uint16
	MagnetAddr uint16
}

func (o *Opts) addrs() (uint16, uint16) {
	addr, mag := uint16(DefaultAddr), uint16(DefaultMagnetAddr)
	if o != nil && o.Addr != 0 {
		addr = o.Addr
	}
	if o != nil && o.MagnetAddr != 0 {
		mag = o.MagnetAddr
	}
	return addr, mag
}

type Device struct {
	bus        Bus
	addr       uint16
	magAddr    uint16
	continuous bool
	cal        [3]calibration.Channel
}

// New returns a device on bus. Call Begin before reading.
func New(bus Bus, opts *Opts) *Device {
	addr, mag := opts.addrs()
	d := &Device{bus: bus, addr: addr, magAddr: mag}
	for i := range d.cal {
		d.cal[i] = calibration.Identity()
	}
	return d
}

// Begin resets both dies, checks their identity and applies the default
// configuration: gyro 119 Hz/2000 dps, accel 119 Hz/4 g, magnetometer
// 20 Hz/4 gauss in continuous conversion.
func (d *Device) Begin() error {
	if err := d.write(d.addr, regCtrlReg8, 0x05); err != nil {
		return err
	}
	if err := d.write(d.magAddr, regCtrlReg2M, 0x0C); err != nil {
		return err
	}
	sleep(10 * time.Millisecond)

	if err := d.checkIdentity(d.addr, whoAmIAG); err != nil {
		_ = d.End()
		return err
	}
	if err := d.checkIdentity(d.magAddr, whoAmIM); err != nil {
		_ = d.End()
		return err
	}

	defaults := []struct {
		addr       uint16
		reg, value byte
	}{
		{d.addr, regCtrlReg1G, 0x78},    // 119 Hz, 2000 dps, 16 Hz BW
		{d.addr, regCtrlReg6X, 0x70},    // 119 Hz, 4 g
		{d.magAddr, regCtrlReg1M, 0xB4}, // temperature compensation, medium performance, 20 Hz
		{d.magAddr, regCtrlReg2M, 0x00}, // 4 gauss
		{d.magAddr, regCtrlReg3M, 0x00}, // continuous conversion
	}
	for _, w := range defaults {
		if err := d.write(w.addr, w.reg, w.value); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) checkIdentity(addr uint16, want byte) error {
	got, err := d.read(addr, regWhoAmI)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: 0x%02X who_am_i=0x%02X want 0x%02X", ErrIdentityMismatch, addr, got, want)
	}
	return nil
}

// End powers down the magnetometer, gyroscope and accelerometer.
func (d *Device) End() error {
	if err := d.write(d.magAddr, regCtrlReg3M, 0x03); err != nil {
		return err
	}
	if err := d.write(d.addr, regCtrlReg1G, 0x00); err != nil {
		return err
	}
	return d.write(d.addr, regCtrlReg6X, 0x00)
}

// SetContinuousMode enables the FIFO in continuous mode.
func (d *Device) SetContinuousMode() error {
	if err := d.write(d.addr, regCtrlReg9, 0x02); err != nil {
		return err
	}
	if err := d.write(d.addr, regFIFOCtrl, 0xC0); err != nil {
		return err
	}
	d.continuous = true
	return nil
}

// SetOneShotMode disables the FIFO.
func (d *Device) SetOneShotMode() error {
	if err := d.write(d.addr, regCtrlReg9, 0x00); err != nil {
		return err
	}
	if err := d.write(d.addr, regFIFOCtrl, 0x00); err != nil {
		return err
	}
	d.continuous = false
	return nil
}

func (d *Device) Continuous() bool { return d.continuous }

func (d *Device) ReadAccel() ([3]float64, error) { return d.Read(Accel) }

func (d *Device) ReadGyro() ([3]float64, error) { return d.Read(Gyro) }

func (d *Device) ReadMagneticField() ([3]float64, error) { return d.Read(Magnet) }

// Read returns the calibrated triplet of ch. On failure all axes are NaN.
func (d *Device) Read(ch Channel) ([3]float64, error) {
	_, v, err := d.ReadSample(ch)
	return v, err
}

// ReadSample returns the raw counts of ch together with the calibrated
// triplet.
func (d *Device) ReadSample(ch Channel) ([3]int16, [3]float64, error) {
	nan := [3]float64{math.NaN(), math.NaN(), math.NaN()}
	raw, err := d.ReadRaw(ch)
	if err != nil {
		return raw, nan, err
	}
	fs, err := d.FullScale(ch)
	if err != nil {
		return raw, nan, err
	}
	return raw, calibration.Convert(raw, fs, d.cal[ch]), nil
}

// ReadRaw returns the output registers of ch as signed counts.
func (d *Device) ReadRaw(ch Channel) ([3]int16, error) {
	var raw [3]int16
	addr, reg, err := d.outputRegister(ch)
	if err != nil {
		return raw, err
	}
	buf := make([]byte, 6)
	if err := d.bus.ReadRegisters(addr, reg, buf); err != nil {
		return raw, fmt.Errorf("read %s output: %w", ch, err)
	}
	for i := range raw {
		raw[i] = int16(binary.LittleEndian.Uint16(buf[2*i:]))
	}
	return raw, nil
}

func (d *Device) outputRegister(ch Channel) (uint16, byte, error) {
	switch ch {
	case Accel:
		return d.addr, regOutXXL, nil
	case Gyro:
		return d.addr, regOutXG, nil
	case Magnet:
		return d.magAddr, regOutXLM, nil
	}
	return 0, 0, fmt.Errorf("%w: %s", ErrInvalidSetting, ch)
}

// FullScale returns the current full-scale range of ch in native units.
func (d *Device) FullScale(ch Channel) (float64, error) {
	switch ch {
	case Accel:
		return d.AccelFS()
	case Gyro:
		return d.GyroFS()
	case Magnet:
		return d.MagnetFS()
	}
	return 0, fmt.Errorf("%w: %s", ErrInvalidSetting, ch)
}

// AccelAvailable reports whether a new accelerometer sample is ready. In
// continuous mode it checks the FIFO level instead of the status register.
func (d *Device) AccelAvailable() (bool, error) {
	if d.continuous {
		v, err := d.read(d.addr, regFIFOSrc)
		return v&fifoSrcFSS != 0, err
	}
	v, err := d.read(d.addr, regStatusReg)
	return v&statusXLDA != 0, err
}

func (d *Device) GyroAvailable() (bool, error) {
	v, err := d.read(d.addr, regStatusReg)
	return v&statusGDA != 0, err
}

func (d *Device) MagneticFieldAvailable() (bool, error) {
	v, err := d.read(d.magAddr, regStatusRegM)
	return v&statusMZYXDA != 0, err
}

// Available dispatches to the availability check of ch.
func (d *Device) Available(ch Channel) (bool, error) {
	switch ch {
	case Accel:
		return d.AccelAvailable()
	case Gyro:
		return d.GyroAvailable()
	case Magnet:
		return d.MagneticFieldAvailable()
	}
	return false, fmt.Errorf("%w: %s", ErrInvalidSetting, ch)
}

func (d *Device) read(addr uint16, reg byte) (byte, error) {
	v, err := d.bus.ReadRegister(addr, reg)
	if err != nil {
		return 0, fmt.Errorf("read reg 0x%02X@0x%02X: %w", reg, addr, err)
	}
	return v, nil
}

func (d *Device) write(addr uint16, reg, value byte) error {
	if err := d.bus.WriteRegister(addr, reg, value); err != nil {
		return fmt.Errorf("write reg 0x%02X@0x%02X: %w", reg, addr, err)
	}
	return nil
}

// update rewrites f in reg, preserving the other bits.
func (d *Device) update(addr uint16, reg byte, f field, code byte) error {
	v, err := d.read(addr, reg)
	if err != nil {
		return err
	}
	return d.write(addr, reg, f.encode(v, code))
}
