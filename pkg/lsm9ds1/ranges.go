package lsm9ds1

import (
	"fmt"

	"github.com/ericogr/lsm9ds1-to-mqtt/pkg/calibration"
)

func (d *Device) SetAccelFS(fs AccelFullScale) error {
	if _, err := fs.G(); err != nil {
		return err
	}
	return d.update(d.addr, regCtrlReg6X, fieldFS, byte(fs))
}

// AccelFS returns the accelerometer full scale in g.
func (d *Device) AccelFS() (float64, error) {
	v, err := d.read(d.addr, regCtrlReg6X)
	if err != nil {
		return 0, err
	}
	return AccelFullScale(fieldFS.decode(v)).G()
}

// SetAccelODR sets the accelerometer data rate. DataRateReserved powers the
// accelerometer down.
func (d *Device) SetAccelODR(r DataRate) error {
	if _, err := r.Hz(); err != nil {
		return err
	}
	return d.update(d.addr, regCtrlReg6X, fieldODR, r.code())
}

func (d *Device) AccelODR() (float64, error) {
	v, err := d.read(d.addr, regCtrlReg6X)
	if err != nil {
		return 0, err
	}
	return DataRate(fieldODR.decode(v)).Hz()
}

// SetAccelBW selects a fixed anti-aliasing bandwidth, overriding the one
// derived from the data rate.
func (d *Device) SetAccelBW(bw AccelBandwidth) error {
	if _, err := bw.Hz(); err != nil {
		return err
	}
	v, err := d.read(d.addr, regCtrlReg6X)
	if err != nil {
		return err
	}
	return d.write(d.addr, regCtrlReg6X, fieldBW.encode(v, byte(bw))|bwScalODR)
}

// AccelBW returns the effective accelerometer bandwidth in Hz.
func (d *Device) AccelBW() (float64, error) {
	v, err := d.read(d.addr, regCtrlReg6X)
	if err != nil {
		return 0, err
	}
	if v&bwScalODR != 0 {
		return AccelBandwidth(fieldBW.decode(v)).Hz()
	}
	return autoAccelBandwidth(DataRate(fieldODR.decode(v))), nil
}

func (d *Device) SetGyroFS(fs GyroFullScale) error {
	if _, err := fs.DPS(); err != nil {
		return err
	}
	return d.update(d.addr, regCtrlReg1G, fieldFS, byte(fs))
}

// GyroFS returns the gyroscope full scale in dps.
func (d *Device) GyroFS() (float64, error) {
	v, err := d.read(d.addr, regCtrlReg1G)
	if err != nil {
		return 0, err
	}
	return GyroFullScale(fieldFS.decode(v)).DPS()
}

func (d *Device) SetGyroODR(r DataRate) error {
	if _, err := r.Hz(); err != nil {
		return err
	}
	return d.update(d.addr, regCtrlReg1G, fieldODR, r.code())
}

func (d *Device) GyroODR() (float64, error) {
	v, err := d.read(d.addr, regCtrlReg1G)
	if err != nil {
		return 0, err
	}
	return DataRate(fieldODR.decode(v)).Hz()
}

func (d *Device) SetGyroBW(bw GyroBandwidth) error {
	if bw > GyroBW3 {
		return fmt.Errorf("%w: gyro bandwidth %d", ErrInvalidSetting, bw)
	}
	return d.update(d.addr, regCtrlReg1G, fieldBW, byte(bw))
}

// GyroBW returns the gyroscope cutoff in Hz for the current data rate.
func (d *Device) GyroBW() (float64, error) {
	v, err := d.read(d.addr, regCtrlReg1G)
	if err != nil {
		return 0, err
	}
	return GyroBandwidth(fieldBW.decode(v)).Hz(DataRate(fieldODR.decode(v)))
}

func (d *Device) SetMagnetFS(fs MagnetFullScale) error {
	if _, err := fs.Microtesla(); err != nil {
		return err
	}
	return d.update(d.magAddr, regCtrlReg2M, fieldMagnetFS, byte(fs))
}

// MagnetFS returns the magnetometer full scale in µT.
func (d *Device) MagnetFS() (float64, error) {
	v, err := d.read(d.magAddr, regCtrlReg2M)
	if err != nil {
		return 0, err
	}
	return MagnetFullScale(fieldMagnetFS.decode(v)).Microtesla()
}

func (d *Device) SetMagnetODR(r MagnetDataRate) error {
	if _, err := r.Hz(); err != nil {
		return err
	}
	return d.update(d.magAddr, regCtrlReg1M, fieldMagODR, byte(r))
}

func (d *Device) MagnetODR() (float64, error) {
	v, err := d.read(d.magAddr, regCtrlReg1M)
	if err != nil {
		return 0, err
	}
	return MagnetDataRate(fieldMagODR.decode(v)).Hz()
}

// ODR returns the output data rate of ch in Hz.
func (d *Device) ODR(ch Channel) (float64, error) {
	switch ch {
	case Accel:
		return d.AccelODR()
	case Gyro:
		return d.GyroODR()
	case Magnet:
		return d.MagnetODR()
	}
	return 0, fmt.Errorf("%w: %s", ErrInvalidSetting, ch)
}

// Calibration returns the calibration applied to ch.
func (d *Device) Calibration(ch Channel) (calibration.Channel, error) {
	if !ch.valid() {
		return calibration.Channel{}, fmt.Errorf("%w: %s", ErrInvalidSetting, ch)
	}
	return d.cal[ch], nil
}

func (d *Device) SetCalibration(ch Channel, c calibration.Channel) error {
	if !ch.valid() {
		return fmt.Errorf("%w: %s", ErrInvalidSetting, ch)
	}
	d.cal[ch] = c
	return nil
}

// SetUnit changes the output unit of ch. Stored offsets are kept in native
// scale and stay valid.
func (d *Device) SetUnit(ch Channel, unit float64) error {
	if !ch.valid() {
		return fmt.Errorf("%w: %s", ErrInvalidSetting, ch)
	}
	d.cal[ch].Unit = unit
	return nil
}

// PowerDown stops ch. The accelerometer and gyroscope get DataRateOff, the
// magnetometer enters power-down mode.
func (d *Device) PowerDown(ch Channel) error {
	switch ch {
	case Accel:
		return d.SetAccelODR(DataRateOff)
	case Gyro:
		return d.SetGyroODR(DataRateOff)
	case Magnet:
		return d.update(d.magAddr, regCtrlReg3M, fieldMagMode, magModePowerDown)
	}
	return fmt.Errorf("%w: %s", ErrInvalidSetting, ch)
}

// SetAccelOffset stores a zero-point measurement in the current unit and
// slope. Set the slope first.
func (d *Device) SetAccelOffset(x, y, z float64) { d.cal[Accel].SetOffset(x, y, z) }

func (d *Device) SetAccelSlope(x, y, z float64) { d.cal[Accel].SetSlope(x, y, z) }

func (d *Device) SetGyroOffset(x, y, z float64) { d.cal[Gyro].SetOffset(x, y, z) }

func (d *Device) SetGyroSlope(x, y, z float64) { d.cal[Gyro].SetSlope(x, y, z) }

func (d *Device) SetMagnetOffset(x, y, z float64) { d.cal[Magnet].SetOffset(x, y, z) }

func (d *Device) SetMagnetSlope(x, y, z float64) { d.cal[Magnet].SetSlope(x, y, z) }
