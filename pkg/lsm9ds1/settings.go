package lsm9ds1

import (
	"errors"
	"fmt"
)

// ErrInvalidSetting is returned for a setting code that has no entry in
// the device tables.
var ErrInvalidSetting = errors.New("invalid setting")

// AccelFullScale is the CTRL_REG6_XL FS_XL code. Codes follow the device
// encoding, not ascending range.
type AccelFullScale uint8

const (
	AccelFS2G AccelFullScale = iota
	AccelFS16G
	AccelFS4G
	AccelFS8G
)

// G returns the full-scale range in g.
func (fs AccelFullScale) G() (float64, error) {
	switch fs {
	case AccelFS2G:
		return 2, nil
	case AccelFS16G:
		return 16, nil
	case AccelFS4G:
		return 4, nil
	case AccelFS8G:
		return 8, nil
	}
	return 0, fmt.Errorf("%w: accel full scale %d", ErrInvalidSetting, fs)
}

// GyroFullScale is the CTRL_REG1_G FS_G code.
type GyroFullScale uint8

const (
	GyroFS245DPS GyroFullScale = iota
	GyroFS500DPS
	GyroFS1000DPS
	GyroFS2000DPS
)

// DPS returns the full-scale range in degrees per second.
func (fs GyroFullScale) DPS() (float64, error) {
	switch fs {
	case GyroFS245DPS:
		return 245, nil
	case GyroFS500DPS:
		return 500, nil
	case GyroFS1000DPS:
		return 1000, nil
	case GyroFS2000DPS:
		return 2000, nil
	}
	return 0, fmt.Errorf("%w: gyro full scale %d", ErrInvalidSetting, fs)
}

// MagnetFullScale is the CTRL_REG2_M FS code.
type MagnetFullScale uint8

const (
	MagnetFS400UT MagnetFullScale = iota
	MagnetFS800UT
	MagnetFS1200UT
	MagnetFS1600UT
)

// Microtesla returns the full-scale range in µT.
func (fs MagnetFullScale) Microtesla() (float64, error) {
	switch fs {
	case MagnetFS400UT:
		return 400, nil
	case MagnetFS800UT:
		return 800, nil
	case MagnetFS1200UT:
		return 1200, nil
	case MagnetFS1600UT:
		return 1600, nil
	}
	return 0, fmt.Errorf("%w: magnet full scale %d", ErrInvalidSetting, fs)
}

// DataRate is the ODR code shared by the accelerometer (ODR_XL) and the
// gyroscope (ODR_G).
type DataRate uint8

const (
	DataRateOff DataRate = iota
	DataRate10Hz
	DataRate50Hz
	DataRate119Hz
	DataRate238Hz
	DataRate476Hz
	DataRate952Hz
	// DataRateReserved is written as DataRateOff.
	DataRateReserved
)

// Hz returns the output data rate; off and reserved are 0.
func (r DataRate) Hz() (float64, error) {
	switch r {
	case DataRateOff, DataRateReserved:
		return 0, nil
	case DataRate10Hz:
		return 10, nil
	case DataRate50Hz:
		return 50, nil
	case DataRate119Hz:
		return 119, nil
	case DataRate238Hz:
		return 238, nil
	case DataRate476Hz:
		return 476, nil
	case DataRate952Hz:
		return 952, nil
	}
	return 0, fmt.Errorf("%w: data rate %d", ErrInvalidSetting, r)
}

func (r DataRate) code() byte {
	if r == DataRateReserved {
		return byte(DataRateOff)
	}
	return byte(r)
}

// MagnetDataRate is the CTRL_REG1_M DO code.
type MagnetDataRate uint8

const (
	MagnetDataRate0625mHz MagnetDataRate = iota
	MagnetDataRate1250mHz
	MagnetDataRate2500mHz
	MagnetDataRate5Hz
	MagnetDataRate10Hz
	MagnetDataRate20Hz
	MagnetDataRate40Hz
	MagnetDataRate80Hz
)

// Hz returns the output data rate.
func (r MagnetDataRate) Hz() (float64, error) {
	switch r {
	case MagnetDataRate0625mHz:
		return 0.625, nil
	case MagnetDataRate1250mHz:
		return 1.25, nil
	case MagnetDataRate2500mHz:
		return 2.5, nil
	case MagnetDataRate5Hz:
		return 5, nil
	case MagnetDataRate10Hz:
		return 10, nil
	case MagnetDataRate20Hz:
		return 20, nil
	case MagnetDataRate40Hz:
		return 40, nil
	case MagnetDataRate80Hz:
		return 80, nil
	}
	return 0, fmt.Errorf("%w: magnet data rate %d", ErrInvalidSetting, r)
}

// AccelBandwidth is the BW_XL code, effective when BW_SCAL_ODR is set.
type AccelBandwidth uint8

const (
	AccelBW408Hz AccelBandwidth = iota
	AccelBW211Hz
	AccelBW105Hz
	AccelBW50Hz
)

// Hz returns the anti-aliasing filter bandwidth.
func (bw AccelBandwidth) Hz() (float64, error) {
	switch bw {
	case AccelBW408Hz:
		return 408, nil
	case AccelBW211Hz:
		return 211, nil
	case AccelBW105Hz:
		return 105, nil
	case AccelBW50Hz:
		return 50, nil
	}
	return 0, fmt.Errorf("%w: accel bandwidth %d", ErrInvalidSetting, bw)
}

// autoAccelBandwidth is the bandwidth selected by ODR when BW_SCAL_ODR is
// clear.
func autoAccelBandwidth(r DataRate) float64 {
	switch r {
	case DataRate10Hz, DataRate50Hz, DataRate952Hz:
		return 408
	case DataRate119Hz:
		return 50
	case DataRate238Hz:
		return 105
	case DataRate476Hz:
		return 211
	}
	return 0
}

// GyroBandwidth is the BW_G code. The cutoff it selects depends on the
// gyro data rate.
type GyroBandwidth uint8

const (
	GyroBW0 GyroBandwidth = iota
	GyroBW1
	GyroBW2
	GyroBW3
)

// gyroCutoff is the datasheet cutoff table indexed by data rate then BW_G.
var gyroCutoff = map[DataRate][4]float64{
	DataRateOff:      {0, 0, 0, 0},
	DataRate10Hz:     {0, 0, 0, 0},
	DataRate50Hz:     {16, 16, 16, 16},
	DataRate119Hz:    {14, 31, 31, 31},
	DataRate238Hz:    {14, 29, 63, 78},
	DataRate476Hz:    {21, 28, 57, 100},
	DataRate952Hz:    {33, 40, 58, 100},
	DataRateReserved: {0, 0, 0, 0},
}

// Hz returns the cutoff frequency at data rate r.
func (bw GyroBandwidth) Hz(r DataRate) (float64, error) {
	row, ok := gyroCutoff[r]
	if !ok {
		return 0, fmt.Errorf("%w: data rate %d", ErrInvalidSetting, r)
	}
	if int(bw) >= len(row) {
		return 0, fmt.Errorf("%w: gyro bandwidth %d", ErrInvalidSetting, bw)
	}
	return row[bw], nil
}
