package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type I2CConfig struct {
	Bus           string `json:"bus" yaml:"bus"`
	Address       int    `json:"address" yaml:"address"`
	MagnetAddress int    `json:"magnet_address" yaml:"magnet_address"`
}

type MQTTConfig struct {
	Server            string `json:"server" yaml:"server"`
	Username          string `json:"username" yaml:"username"`
	Password          string `json:"password" yaml:"password"`
	ClientID          string `json:"client_id" yaml:"client_id"`
	StateTopic        string `json:"state_topic" yaml:"state_topic"`
	DiscoveryTopic    string `json:"discovery_topic" yaml:"discovery_topic"`
	DiscoveryName     string `json:"discovery_name" yaml:"discovery_name"`
	DiscoveryUniqueID string `json:"discovery_unique_id" yaml:"discovery_unique_id"`
}

type OutputConfig struct {
	Type       string      `json:"type" yaml:"type"`
	IntervalMs int         `json:"interval_ms,omitempty" yaml:"interval_ms,omitempty"`
	MQTT       *MQTTConfig `json:"mqtt,omitempty" yaml:"mqtt,omitempty"`
}

// ChannelConfig configures one measured quantity. FullScale and DataRate
// are register codes; Offset is a zero-point measurement in Unit with Slope
// applied.
type ChannelConfig struct {
	Channel   string    `json:"channel" yaml:"channel"`
	Enabled   bool      `json:"enabled" yaml:"enabled"`
	FullScale int       `json:"full_scale" yaml:"full_scale"`
	DataRate  int       `json:"data_rate" yaml:"data_rate"`
	Unit      string    `json:"unit,omitempty" yaml:"unit,omitempty"`
	Slope     []float64 `json:"slope,omitempty" yaml:"slope,omitempty"`
	Offset    []float64 `json:"offset,omitempty" yaml:"offset,omitempty"`
}

type Config struct {
	I2C            I2CConfig       `json:"i2c" yaml:"i2c"`
	SensorType     string          `json:"sensor_type" yaml:"sensor_type"`
	ContinuousMode bool            `json:"continuous_mode" yaml:"continuous_mode"`
	Channels       []ChannelConfig `json:"channels" yaml:"channels"`
	Outputs        []OutputConfig  `json:"outputs" yaml:"outputs"`
	IntervalMs     int             `json:"interval_ms" yaml:"interval_ms"`
	Debug          bool            `json:"debug" yaml:"debug"`
}

func DefaultConfig() Config {
	return Config{
		I2C:        I2CConfig{Bus: "1", Address: 0x6B, MagnetAddress: 0x1E},
		SensorType: "real",
		Channels: []ChannelConfig{
			{Channel: "accel", Enabled: true, FullScale: 2, DataRate: 3},
			{Channel: "gyro", Enabled: true, FullScale: 3, DataRate: 3},
			{Channel: "magnet", Enabled: true, FullScale: 0, DataRate: 5},
		},
		Outputs:    []OutputConfig{{Type: "console", IntervalMs: 1000}},
		IntervalMs: 1000,
	}
}

// LoadFromFlags loads configuration from a JSON or YAML file (optional) and
// the command line. Flags override values present in the file.
func LoadFromFlags() (Config, error) {
	return LoadFromArgs(os.Args[1:])
}

func LoadFromArgs(args []string) (Config, error) {
	fs := flag.NewFlagSet("lsm9ds1-to-mqtt", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to JSON or YAML config file")
	flagI2CBus := fs.String("i2c-bus", "", "I2C bus (e.g., '1' -> /dev/i2c-1)")
	flagI2CAddStr := fs.String("i2c-address", "", "Accel/gyro I2C address (decimal or 0x hex)")
	flagMagAddStr := fs.String("magnet-address", "", "Magnetometer I2C address (decimal or 0x hex)")
	flagSensorType := fs.String("sensor-type", "", "sensor type: real|simulation")
	flagContinuous := fs.Bool("continuous", false, "Enable FIFO continuous mode")
	flagEnabled := fs.String("enabled", "", "Channel enable map e.g. accel=true,magnet=false")
	flagFullScales := fs.String("full-scales", "", "Full scale codes e.g. accel=1,gyro=0")
	flagDataRates := fs.String("data-rates", "", "Data rate codes e.g. accel=3,magnet=7")
	flagUnits := fs.String("units", "", "Output units e.g. accel=m/s2,gyro=rad/s,magnet=gauss")
	flagOutputs := fs.String("outputs", "", "Comma-separated outputs (console,mqtt)")
	flagOutputIntervals := fs.String("output-intervals", "", "Comma-separated output intervals e.g. console=1000,mqtt=5000")
	flagMQTTServer := fs.String("mqtt-server", "", "MQTT server (tcp://host:port)")
	flagMQTTUser := fs.String("mqtt-user", "", "MQTT username")
	flagMQTTPass := fs.String("mqtt-pass", "", "MQTT password")
	flagClientID := fs.String("mqtt-client-id", "", "MQTT client id")
	flagTopic := fs.String("mqtt-topic", "", "MQTT state topic, %s is replaced by the channel (default: <topic>/<channel>)")
	flagInterval := fs.Int("interval-ms", -1, "Default publish interval in ms")
	flagDebug := fs.Bool("debug", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()

	if *cfgPath != "" {
		if err := loadFile(*cfgPath, &cfg); err != nil {
			return cfg, err
		}
	}

	if *flagI2CBus != "" {
		cfg.I2C.Bus = *flagI2CBus
	}
	if *flagI2CAddStr != "" {
		v, err := parseIntOrHex(*flagI2CAddStr)
		if err != nil {
			return cfg, fmt.Errorf("i2c-address: %w", err)
		}
		cfg.I2C.Address = v
	}
	if *flagMagAddStr != "" {
		v, err := parseIntOrHex(*flagMagAddStr)
		if err != nil {
			return cfg, fmt.Errorf("magnet-address: %w", err)
		}
		cfg.I2C.MagnetAddress = v
	}
	if *flagSensorType != "" {
		cfg.SensorType = *flagSensorType
	}
	if *flagContinuous {
		cfg.ContinuousMode = true
	}
	if *flagDebug {
		cfg.Debug = true
	}

	enabled, err := parseKeyBoolMap(*flagEnabled)
	if err != nil {
		return cfg, fmt.Errorf("enabled: %w", err)
	}
	fullScales, err := parseKeyIntMap(*flagFullScales)
	if err != nil {
		return cfg, fmt.Errorf("full-scales: %w", err)
	}
	dataRates, err := parseKeyIntMap(*flagDataRates)
	if err != nil {
		return cfg, fmt.Errorf("data-rates: %w", err)
	}
	units, err := parseKeyStringMap(*flagUnits)
	if err != nil {
		return cfg, fmt.Errorf("units: %w", err)
	}
	for i := range cfg.Channels {
		ch := &cfg.Channels[i]
		if v, ok := enabled[ch.Channel]; ok {
			ch.Enabled = v
		}
		if v, ok := fullScales[ch.Channel]; ok {
			ch.FullScale = v
		}
		if v, ok := dataRates[ch.Channel]; ok {
			ch.DataRate = v
		}
		if v, ok := units[ch.Channel]; ok {
			ch.Unit = v
		}
	}

	if *flagInterval != -1 {
		cfg.IntervalMs = *flagInterval
	}
	if *flagOutputs != "" {
		parts := parseCSV(*flagOutputs)
		outs := make([]OutputConfig, 0, len(parts))
		for _, p := range parts {
			outs = append(outs, OutputConfig{Type: p, IntervalMs: cfg.IntervalMs})
		}
		cfg.Outputs = outs
	}
	if *flagOutputIntervals != "" {
		outIntervals, err := parseKeyIntMap(*flagOutputIntervals)
		if err != nil {
			return cfg, fmt.Errorf("output-intervals: %w", err)
		}
		for i := range cfg.Outputs {
			if v, ok := outIntervals[cfg.Outputs[i].Type]; ok {
				cfg.Outputs[i].IntervalMs = v
			}
		}
	}

	// apply MQTT flags to all mqtt outputs, creating one if none exists
	if *flagMQTTServer != "" || *flagMQTTUser != "" || *flagMQTTPass != "" || *flagClientID != "" || *flagTopic != "" {
		apply := func(m *MQTTConfig) {
			if *flagMQTTServer != "" {
				m.Server = *flagMQTTServer
			}
			if *flagMQTTUser != "" {
				m.Username = *flagMQTTUser
			}
			if *flagMQTTPass != "" {
				m.Password = *flagMQTTPass
			}
			if *flagClientID != "" {
				m.ClientID = *flagClientID
			}
			if *flagTopic != "" {
				m.StateTopic = *flagTopic
			}
		}
		applied := false
		for i := range cfg.Outputs {
			if strings.ToLower(cfg.Outputs[i].Type) == "mqtt" {
				if cfg.Outputs[i].MQTT == nil {
					cfg.Outputs[i].MQTT = &MQTTConfig{}
				}
				apply(cfg.Outputs[i].MQTT)
				applied = true
			}
		}
		if !applied {
			mqttOut := OutputConfig{Type: "mqtt", IntervalMs: cfg.IntervalMs, MQTT: &MQTTConfig{}}
			apply(mqttOut.MQTT)
			cfg.Outputs = append(cfg.Outputs, mqttOut)
		}
	}

	// ensure outputs have interval default
	for i := range cfg.Outputs {
		if cfg.Outputs[i].IntervalMs == 0 {
			cfg.Outputs[i].IntervalMs = cfg.IntervalMs
		}
	}

	return cfg, cfg.Validate()
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	// lists in the file replace the defaults instead of merging into them
	channels, outputs := cfg.Channels, cfg.Outputs
	cfg.Channels, cfg.Outputs = nil, nil
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, cfg)
	default:
		err = json.Unmarshal(b, cfg)
	}
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if cfg.Channels == nil {
		cfg.Channels = channels
	}
	if cfg.Outputs == nil {
		cfg.Outputs = outputs
	}
	return nil
}

// Validate checks setting codes, units and calibration vectors.
func (c Config) Validate() error {
	if c.IntervalMs <= 0 {
		return errors.New("interval-ms must be > 0")
	}
	switch c.SensorType {
	case "real", "simulation":
	default:
		return fmt.Errorf("unknown sensor type %q", c.SensorType)
	}
	seen := map[string]bool{}
	for _, ch := range c.Channels {
		if seen[ch.Channel] {
			return fmt.Errorf("channel %q configured twice", ch.Channel)
		}
		seen[ch.Channel] = true
		if err := ch.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c ChannelConfig) Validate() error {
	if _, err := c.Calibration(); err != nil {
		return err
	}
	if c.FullScale < 0 || c.FullScale > 3 {
		return fmt.Errorf("channel %s: full_scale %d out of range 0..3", c.Channel, c.FullScale)
	}
	if c.DataRate < 0 || c.DataRate > 7 {
		return fmt.Errorf("channel %s: data_rate %d out of range 0..7", c.Channel, c.DataRate)
	}
	return nil
}

func parseIntOrHex(s string) (int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseInt(s[2:], 16, 0)
		return int(v), err
	}
	v, err := strconv.Atoi(s)
	return v, err
}

func parseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseKeyStringMap parses "k=v,k2=v2".
func parseKeyStringMap(s string) (map[string]string, error) {
	out := map[string]string{}
	for _, p := range parseCSV(s) {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid entry '%s'", p)
		}
		k, v := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		if k == "" {
			return nil, fmt.Errorf("empty key in '%s'", p)
		}
		out[k] = v
	}
	return out, nil
}

func parseKeyIntMap(s string) (map[string]int, error) {
	kv, err := parseKeyStringMap(s)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(kv))
	for k, v := range kv {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid value for '%s': %w", k, err)
		}
		out[k] = n
	}
	return out, nil
}

func parseKeyBoolMap(s string) (map[string]bool, error) {
	kv, err := parseKeyStringMap(s)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(kv))
	for k, v := range kv {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid value for '%s': %w", k, err)
		}
		out[k] = b
	}
	return out, nil
}
