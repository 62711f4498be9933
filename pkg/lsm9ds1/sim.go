package lsm9ds1

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// SimulatedBus is an in-memory register bank answering for both dies of an
// LSM9DS1. It is used by the simulation sensor and by tests.
type SimulatedBus struct {
	mu      sync.Mutex
	addr    uint16
	magAddr uint16
	regs    map[uint16]*[256]byte
	// Err, when set, fails every transaction.
	Err error
}

func NewSimulatedBus(opts *Opts) *SimulatedBus {
	addr, mag := opts.addrs()
	b := &SimulatedBus{
		addr:    addr,
		magAddr: mag,
		regs:    map[uint16]*[256]byte{addr: {}, mag: {}},
	}
	b.regs[addr][regWhoAmI] = whoAmIAG
	b.regs[mag][regWhoAmI] = whoAmIM
	return b
}

func (b *SimulatedBus) bank(addr uint16) (*[256]byte, error) {
	if b.Err != nil {
		return nil, b.Err
	}
	r, ok := b.regs[addr]
	if !ok {
		return nil, &NoDeviceError{Addr: addr}
	}
	return r, nil
}

func (b *SimulatedBus) ReadRegister(addr uint16, reg byte) (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, err := b.bank(addr)
	if err != nil {
		return 0, err
	}
	return r[reg], nil
}

func (b *SimulatedBus) ReadRegisters(addr uint16, reg byte, buf []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, err := b.bank(addr)
	if err != nil {
		return err
	}
	reg &^= autoIncrement
	for i := range buf {
		buf[i] = r[(int(reg)+i)%len(r)]
	}
	return nil
}

func (b *SimulatedBus) WriteRegister(addr uint16, reg, value byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, err := b.bank(addr)
	if err != nil {
		return err
	}
	r[reg] = value
	return nil
}

// Register returns the current value of reg on addr.
func (b *SimulatedBus) Register(addr uint16, reg byte) byte {
	v, _ := b.ReadRegister(addr, reg)
	return v
}

// SetRegister sets reg on addr without going through Err.
func (b *SimulatedBus) SetRegister(addr uint16, reg, value byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok := b.regs[addr]; ok {
		r[reg] = value
	}
}

// SetRaw loads the output registers of ch with raw.
func (b *SimulatedBus) SetRaw(ch Channel, raw [3]int16) {
	addr, reg := b.addr, byte(regOutXXL)
	switch ch {
	case Gyro:
		reg = regOutXG
	case Magnet:
		addr, reg = b.magAddr, regOutXLM
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	r := b.regs[addr]
	for i, v := range raw {
		binary.LittleEndian.PutUint16(r[int(reg)+2*i:], uint16(v))
	}
}

// MarkAvailable flags new data on every channel, in the status registers
// and in the FIFO.
func (b *SimulatedBus) MarkAvailable() {
	b.SetRegister(b.addr, regStatusReg, statusXLDA|statusGDA)
	b.SetRegister(b.addr, regFIFOSrc, 0x01)
	b.SetRegister(b.magAddr, regStatusRegM, statusMZYXDA)
}

// NoDeviceError is returned for transactions to an address nothing answers.
type NoDeviceError struct {
	Addr uint16
}

func (e *NoDeviceError) Error() string {
	return fmt.Sprintf("no device at address 0x%02X", e.Addr)
}
