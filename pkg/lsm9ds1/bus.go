package lsm9ds1

import (
	"periph.io/x/conn/v3/i2c"
)

// Bus performs register transactions on the I2C bus.
type Bus interface {
	ReadRegister(addr uint16, reg byte) (byte, error)
	// ReadRegisters fills buf starting at reg.
	ReadRegisters(addr uint16, reg byte, buf []byte) error
	WriteRegister(addr uint16, reg, value byte) error
}

// PeriphBus adapts a periph.io I2C bus.
type PeriphBus struct {
	bus i2c.Bus
}

func NewPeriphBus(bus i2c.Bus) *PeriphBus {
	return &PeriphBus{bus: bus}
}

func (b *PeriphBus) ReadRegister(addr uint16, reg byte) (byte, error) {
	r := []byte{0}
	if err := b.bus.Tx(addr, []byte{reg}, r); err != nil {
		return 0, err
	}
	return r[0], nil
}

func (b *PeriphBus) ReadRegisters(addr uint16, reg byte, buf []byte) error {
	return b.bus.Tx(addr, []byte{autoIncrement | reg}, buf)
}

func (b *PeriphBus) WriteRegister(addr uint16, reg, value byte) error {
	return b.bus.Tx(addr, []byte{reg, value}, nil)
}
