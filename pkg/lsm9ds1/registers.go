package lsm9ds1

// Default I2C addresses of the two dies.
const (
	DefaultAddr       = 0x6B
	DefaultMagnetAddr = 0x1E
)

// accelerometer/gyroscope die
const (
	regWhoAmI    = 0x0F
	regCtrlReg1G = 0x10
	regStatusReg = 0x17
	regOutXG     = 0x18
	regCtrlReg6X = 0x20
	regCtrlReg8  = 0x22
	regCtrlReg9  = 0x23
	regOutXXL    = 0x28
	regFIFOCtrl  = 0x2E
	regFIFOSrc   = 0x2F

	whoAmIAG = 0x68
)

// magnetometer die
const (
	regCtrlReg1M  = 0x20
	regCtrlReg2M  = 0x21
	regCtrlReg3M  = 0x22
	regStatusRegM = 0x27
	regOutXLM     = 0x28

	whoAmIM = 0x3D
)

const (
	// multi-byte reads set the MSB of the sub-address to auto-increment
	autoIncrement = 0x80

	statusXLDA   = 0x01
	statusGDA    = 0x02
	statusMZYXDA = 0x08
	fifoSrcFSS   = 0x3F
	bwScalODR    = 0x04

	magModePowerDown = 0x03
)

// field is a bit field of a control register.
type field struct {
	mask  byte
	shift uint
}

var (
	fieldODR      = field{mask: 0xE0, shift: 5}
	fieldFS       = field{mask: 0x18, shift: 3}
	fieldBW       = field{mask: 0x03, shift: 0}
	fieldMagnetFS = field{mask: 0x60, shift: 5}
	fieldMagODR   = field{mask: 0x1C, shift: 2}
	fieldMagMode  = field{mask: 0x03, shift: 0}
)

// encode places code into the field of reg, leaving other bits untouched.
func (f field) encode(reg, code byte) byte {
	return reg&^f.mask | (code<<f.shift)&f.mask
}

func (f field) decode(reg byte) byte {
	return (reg & f.mask) >> f.shift
}
