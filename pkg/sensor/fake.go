package sensor

import (
	"math/rand"

	"github.com/ericogr/lsm9ds1-to-mqtt/pkg/config"
	"github.com/ericogr/lsm9ds1-to-mqtt/pkg/lsm9ds1"
)

// rest is the simulated device at rest: 1 g on Z, no rotation and a
// typical geomagnetic field, in native units.
var rest = map[lsm9ds1.Channel][3]float64{
	lsm9ds1.Accel:  {0, 0, 1},
	lsm9ds1.Gyro:   {0, 0, 0},
	lsm9ds1.Magnet: {20, 0, -40},
}

// noise is the peak simulated noise per channel, in native units.
var noise = map[lsm9ds1.Channel]float64{
	lsm9ds1.Accel:  0.01,
	lsm9ds1.Gyro:   0.5,
	lsm9ds1.Magnet: 0.3,
}

// FakeSensor runs the driver against a simulated register bank, so values
// go through the same range and calibration path as the real device.
type FakeSensor struct {
	*LSM9DS1Sensor
	sim *lsm9ds1.SimulatedBus
	rnd *rand.Rand
}

func NewFakeSensor(cfg config.Config) (Sensor, error) {
	return newFakeSensor(cfg, rand.New(rand.NewSource(rand.Int63())))
}

func newFakeSensor(cfg config.Config, rnd *rand.Rand) (*FakeSensor, error) {
	opts := &lsm9ds1.Opts{Addr: uint16(cfg.I2C.Address), MagnetAddr: uint16(cfg.I2C.MagnetAddress)}
	sim := lsm9ds1.NewSimulatedBus(opts)
	s, err := newDeviceSensor(sim, nil, cfg)
	if err != nil {
		return nil, err
	}
	return &FakeSensor{LSM9DS1Sensor: s, sim: sim, rnd: rnd}, nil
}

func (f *FakeSensor) Read() ([]Reading, error) {
	if err := f.simulate(); err != nil {
		return nil, err
	}
	return f.LSM9DS1Sensor.Read()
}

func (f *FakeSensor) simulate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.channels {
		fs, err := f.dev.FullScale(c.ch)
		if err != nil {
			return err
		}
		var raw [3]int16
		for i, v := range rest[c.ch] {
			v += (f.rnd.Float64()*2 - 1) * noise[c.ch]
			raw[i] = toCounts(v, fs)
		}
		f.sim.SetRaw(c.ch, raw)
	}
	f.sim.MarkAvailable()
	return nil
}

// toCounts converts a native value to a saturated 16-bit code.
func toCounts(v, fullScale float64) int16 {
	c := v / fullScale * 32768
	switch {
	case c >= 32767:
		return 32767
	case c <= -32768:
		return -32768
	}
	return int16(c)
}
