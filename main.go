package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ericogr/lsm9ds1-to-mqtt/pkg/config"
	"github.com/ericogr/lsm9ds1-to-mqtt/pkg/lsm9ds1"
	"github.com/ericogr/lsm9ds1-to-mqtt/pkg/output"
	"github.com/ericogr/lsm9ds1-to-mqtt/pkg/output/console"
	"github.com/ericogr/lsm9ds1-to-mqtt/pkg/output/mqtt"
	"github.com/ericogr/lsm9ds1-to-mqtt/pkg/sensor"
)

type outputEntry struct {
	Type       string
	Output     output.Output
	IntervalMs int
	samples    [][]sensor.Reading
	last       time.Time
}

func main() {
	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	var s sensor.Sensor
	switch cfg.SensorType {
	case "simulation":
		s, err = sensor.NewFakeSensor(cfg)
	default:
		s, err = sensor.NewLSM9DS1Sensor(cfg)
	}
	if err != nil {
		log.Fatalf("sensor: %v", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Warnf("sensor close: %v", err)
		}
	}()

	interval := computeSensorInterval(cfg)
	entries, err := initOutputs(&cfg, cfg.IntervalMs)
	if err != nil {
		log.Errorf("outputs: %v", err)
		return
	}
	defer closeEntries(entries)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"sensor":      cfg.SensorType,
		"interval_ms": interval,
		"outputs":     len(entries),
	}).Info("sampling started")
	run(ctx, s, entries, time.Duration(interval)*time.Millisecond)
	log.Info("shutting down")
}

// computeSensorInterval returns the sampling period in ms matching the
// fastest enabled channel. Without any running channel it falls back to the
// publish interval.
func computeSensorInterval(cfg config.Config) int {
	fastest := 0.0
	for _, c := range cfg.Channels {
		if !c.Enabled {
			continue
		}
		if hz := channelRate(c); hz > fastest {
			fastest = hz
		}
	}
	if fastest == 0 {
		return cfg.IntervalMs
	}
	return int(math.Ceil(1000.0 / fastest))
}

func channelRate(c config.ChannelConfig) float64 {
	var hz float64
	var err error
	switch c.Channel {
	case lsm9ds1.Accel.String(), lsm9ds1.Gyro.String():
		hz, err = lsm9ds1.DataRate(c.DataRate).Hz()
	case lsm9ds1.Magnet.String():
		hz, err = lsm9ds1.MagnetDataRate(c.DataRate).Hz()
	}
	if err != nil {
		return 0
	}
	return hz
}

// initOutputs builds every configured output. Outputs without an interval
// get defaultInterval, written back into cfg.
func initOutputs(cfg *config.Config, defaultInterval int) ([]*outputEntry, error) {
	entries := make([]*outputEntry, 0, len(cfg.Outputs))
	for i := range cfg.Outputs {
		oc := &cfg.Outputs[i]
		if oc.IntervalMs == 0 {
			oc.IntervalMs = defaultInterval
		}
		var out output.Output
		switch strings.ToLower(oc.Type) {
		case "console":
			out = console.NewConsole()
		case "mqtt":
			mc := config.MQTTConfig{}
			if oc.MQTT != nil {
				mc = *oc.MQTT
			}
			o, err := mqtt.NewMQTT(mc, cfg.Channels)
			if err != nil {
				closeEntries(entries)
				return nil, err
			}
			out = o
		default:
			closeEntries(entries)
			return nil, fmt.Errorf("unknown output type %q", oc.Type)
		}
		entries = append(entries, &outputEntry{Type: oc.Type, Output: out, IntervalMs: oc.IntervalMs})
	}
	return entries, nil
}

func closeEntries(entries []*outputEntry) {
	for _, e := range entries {
		_ = e.Output.Close()
	}
}

func run(ctx context.Context, s sensor.Sensor, entries []*outputEntry, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			step(s, entries, now)
		}
	}
}

// step takes one sample and publishes the average of the collected samples
// to every output whose interval has elapsed.
func step(s sensor.Sensor, entries []*outputEntry, now time.Time) {
	readings, err := s.Read()
	if err != nil {
		log.Errorf("sensor read: %v", err)
		return
	}
	for _, e := range entries {
		e.samples = append(e.samples, readings)
		if now.Sub(e.last) < time.Duration(e.IntervalMs)*time.Millisecond {
			continue
		}
		if err := e.Output.Publish(sensor.Average(e.samples)); err != nil {
			log.Errorf("%s publish: %v", e.Type, err)
		}
		e.samples = e.samples[:0]
		e.last = now
	}
}
