package sensor

import (
	"fmt"

	"github.com/ericogr/lsm9ds1-to-mqtt/pkg/config"
	"github.com/ericogr/lsm9ds1-to-mqtt/pkg/lsm9ds1"
)

type channelSetting struct {
	ch   lsm9ds1.Channel
	unit string
}

// configureDevice applies the per-channel ranges and calibration from cfg
// and returns the enabled channels in configuration order. Disabled channels
// are powered down.
func configureDevice(dev *lsm9ds1.Device, cfg config.Config) ([]channelSetting, error) {
	enabled := make([]channelSetting, 0, len(cfg.Channels))
	for _, c := range cfg.Channels {
		ch, err := lsm9ds1.ParseChannel(c.Channel)
		if err != nil {
			return nil, err
		}
		cal, err := c.Calibration()
		if err != nil {
			return nil, err
		}
		if err := dev.SetCalibration(ch, cal); err != nil {
			return nil, err
		}
		if !c.Enabled {
			if err := dev.PowerDown(ch); err != nil {
				return nil, fmt.Errorf("power down %s: %w", ch, err)
			}
			continue
		}
		if err := setRanges(dev, ch, c.FullScale, c.DataRate); err != nil {
			return nil, fmt.Errorf("configure %s: %w", ch, err)
		}
		enabled = append(enabled, channelSetting{ch: ch, unit: c.UnitName()})
	}
	if cfg.ContinuousMode {
		if err := dev.SetContinuousMode(); err != nil {
			return nil, fmt.Errorf("continuous mode: %w", err)
		}
	}
	return enabled, nil
}

func setRanges(dev *lsm9ds1.Device, ch lsm9ds1.Channel, fs, dr int) error {
	switch ch {
	case lsm9ds1.Accel:
		if err := dev.SetAccelFS(lsm9ds1.AccelFullScale(fs)); err != nil {
			return err
		}
		return dev.SetAccelODR(lsm9ds1.DataRate(dr))
	case lsm9ds1.Gyro:
		if err := dev.SetGyroFS(lsm9ds1.GyroFullScale(fs)); err != nil {
			return err
		}
		return dev.SetGyroODR(lsm9ds1.DataRate(dr))
	case lsm9ds1.Magnet:
		if err := dev.SetMagnetFS(lsm9ds1.MagnetFullScale(fs)); err != nil {
			return err
		}
		return dev.SetMagnetODR(lsm9ds1.MagnetDataRate(dr))
	}
	return fmt.Errorf("unknown channel %s", ch)
}

// Average returns the per-axis mean of each channel across samples. Each
// channel keeps the timestamp of its most recent reading.
func Average(samples [][]Reading) []Reading {
	type acc struct {
		r     Reading
		raw   [3]int64
		sum   [3]float64
		count int
	}
	order := []string{}
	byChannel := map[string]*acc{}
	for _, sample := range samples {
		for _, r := range sample {
			a, ok := byChannel[r.Channel]
			if !ok {
				a = &acc{}
				byChannel[r.Channel] = a
				order = append(order, r.Channel)
			}
			a.r = r
			for i := range r.Value {
				a.sum[i] += r.Value[i]
				a.raw[i] += int64(r.Raw[i])
			}
			a.count++
		}
	}
	out := make([]Reading, 0, len(order))
	for _, name := range order {
		a := byChannel[name]
		r := a.r
		for i := range r.Value {
			r.Value[i] = a.sum[i] / float64(a.count)
			r.Raw[i] = int16(a.raw[i] / int64(a.count))
		}
		out = append(out, r)
	}
	return out
}
