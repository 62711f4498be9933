package sensor

import (
	"fmt"
	"io"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/ericogr/lsm9ds1-to-mqtt/pkg/config"
	"github.com/ericogr/lsm9ds1-to-mqtt/pkg/lsm9ds1"
)

type LSM9DS1Sensor struct {
	mu       sync.Mutex
	dev      *lsm9ds1.Device
	closer   io.Closer
	channels []channelSetting
}

func NewLSM9DS1Sensor(cfg config.Config) (Sensor, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	bus, err := i2creg.Open(cfg.I2C.Bus)
	if err != nil {
		return nil, fmt.Errorf("open i2c: %w", err)
	}
	s, err := newDeviceSensor(lsm9ds1.NewPeriphBus(bus), bus, cfg)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}
	return s, nil
}

func newDeviceSensor(bus lsm9ds1.Bus, closer io.Closer, cfg config.Config) (*LSM9DS1Sensor, error) {
	dev := lsm9ds1.New(bus, &lsm9ds1.Opts{
		Addr:       uint16(cfg.I2C.Address),
		MagnetAddr: uint16(cfg.I2C.MagnetAddress),
	})
	if err := dev.Begin(); err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	channels, err := configureDevice(dev, cfg)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"bus":        cfg.I2C.Bus,
		"address":    fmt.Sprintf("0x%02X", cfg.I2C.Address),
		"channels":   len(channels),
		"continuous": cfg.ContinuousMode,
	}).Info("lsm9ds1 ready")
	return &LSM9DS1Sensor{dev: dev, closer: closer, channels: channels}, nil
}

func (s *LSM9DS1Sensor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.dev.End()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (s *LSM9DS1Sensor) Read() ([]Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Reading, 0, len(s.channels))
	now := time.Now()
	for _, c := range s.channels {
		if ok, err := s.dev.Available(c.ch); err == nil && !ok {
			log.Debugf("%s: no new sample, reading last value", c.ch)
		}
		raw, value, err := s.dev.ReadSample(c.ch)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", c.ch, err)
		}
		out = append(out, Reading{Channel: c.ch.String(), Unit: c.unit, Raw: raw, Value: value, Timestamp: now})
	}
	return out, nil
}
