package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/ericogr/lsm9ds1-to-mqtt/pkg/config"
	"github.com/ericogr/lsm9ds1-to-mqtt/pkg/output"
	"github.com/ericogr/lsm9ds1-to-mqtt/pkg/sensor"
)

const (
	// defaults
	DefaultServer      = "tcp://localhost:1883"
	DefaultClientID    = "lsm9ds1-client"
	perChannelTopicFmt = "lsm9ds1/%s"
	// discovery payload keys/values
	keyName                = "name"
	keyStateTopic          = "state_topic"
	keyUnitOfMeasurement   = "unit_of_measurement"
	keyStateClass          = "state_class"
	keyValueTemplate       = "value_template"
	keyJSONAttributesTopic = "json_attributes_topic"
	keyUniqueID            = "unique_id"
	stateClassMeasurement  = "measurement"
)

var axes = [3]string{"x", "y", "z"}

// haUnits maps configured unit names to the symbols Home Assistant expects.
var haUnits = map[string]string{
	"uT":   "µT",
	"dps":  "°/s",
	"m/s2": "m/s²",
}

type MQTTOutput struct {
	client     mqtt.Client
	stateTopic string
}

func NewMQTT(cfg config.MQTTConfig, channels []config.ChannelConfig) (output.Output, error) {
	if cfg.Server == "" {
		cfg.Server = DefaultServer
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	opts := mqtt.NewClientOptions().AddBroker(cfg.Server).SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	log.WithField("server", cfg.Server).Info("mqtt connected")
	return newMQTTOutput(client, cfg, channels), nil
}

func newMQTTOutput(client mqtt.Client, cfg config.MQTTConfig, channels []config.ChannelConfig) *MQTTOutput {
	m := &MQTTOutput{client: client, stateTopic: cfg.StateTopic}

	// Home Assistant discovery: one retained entity per channel axis
	if cfg.DiscoveryTopic != "" {
		if !strings.Contains(cfg.DiscoveryTopic, "%s") {
			log.Warnf("mqtt discovery topic %q has no %%s formatter, discovery disabled", cfg.DiscoveryTopic)
			return m
		}
		for _, ch := range channels {
			if !ch.Enabled {
				continue
			}
			stateTopic := formatStateTopic(cfg.StateTopic, ch.Channel)
			for _, axis := range axes {
				id := ch.Channel + "_" + axis
				payload := baseDiscoveryPayload(discoveryName(cfg, ch.Channel, axis), stateTopic, discoveryUniqueID(cfg, id), discoveryUnit(ch.UnitName()), axis)
				if err := m.publishJSON(fmt.Sprintf(cfg.DiscoveryTopic, id), true, payload); err != nil {
					log.Errorf("mqtt discovery publish error: %v", err)
				}
			}
		}
	}
	return m
}

func (m *MQTTOutput) Publish(readings []sensor.Reading) error {
	for _, r := range readings {
		payload := map[string]interface{}{
			"channel":   r.Channel,
			"unit":      r.Unit,
			"x":         r.Value[0],
			"y":         r.Value[1],
			"z":         r.Value[2],
			"raw":       r.Raw,
			"timestamp": r.Timestamp,
		}
		if err := m.publishJSON(formatStateTopic(m.stateTopic, r.Channel), false, payload); err != nil {
			return err
		}
	}
	return nil
}

func (m *MQTTOutput) Close() error {
	if m.client != nil {
		m.client.Disconnect(250)
	}
	return nil
}

// PublishRaw sends payload at QoS 0. Discovery entities are sent retained.
func (m *MQTTOutput) PublishRaw(topic string, payload []byte, retained bool) error {
	if m.client == nil {
		return errors.New("mqtt: no client")
	}
	token := m.client.Publish(topic, 0, retained, payload)
	token.Wait()
	return token.Error()
}

func (m *MQTTOutput) publishJSON(topic string, retained bool, payload map[string]interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return m.PublishRaw(topic, b, retained)
}

// formatStateTopic returns the topic of ch. Every channel gets its own
// topic: a base without %s is used as a prefix.
func formatStateTopic(base, ch string) string {
	switch {
	case base == "":
		return fmt.Sprintf(perChannelTopicFmt, ch)
	case strings.Contains(base, "%s"):
		return fmt.Sprintf(base, ch)
	}
	return strings.TrimSuffix(base, "/") + "/" + ch
}

func discoveryUnit(unit string) string {
	if u, ok := haUnits[unit]; ok {
		return u
	}
	return unit
}

// helper: build a human-friendly discovery name
func discoveryName(cfg config.MQTTConfig, ch, axis string) string {
	name := cfg.DiscoveryName
	if name == "" {
		name = fmt.Sprintf("LSM9DS1 %s", cfg.ClientID)
	}
	return fmt.Sprintf("%s %s %s", name, ch, axis)
}

// helper: build a unique id for discovery
func discoveryUniqueID(cfg config.MQTTConfig, id string) string {
	uid := cfg.DiscoveryUniqueID
	if uid == "" {
		uid = cfg.ClientID
	}
	if uid == "" {
		return ""
	}
	return fmt.Sprintf("%s_%s", uid, id)
}

// helper: base discovery payload map common to all entries
func baseDiscoveryPayload(name, stateTopic, uniqueID, unit, axis string) map[string]interface{} {
	payload := map[string]interface{}{
		keyName:                name,
		keyStateTopic:          stateTopic,
		keyUnitOfMeasurement:   unit,
		keyStateClass:          stateClassMeasurement,
		keyValueTemplate:       fmt.Sprintf("{{ value_json.%s }}", axis),
		keyJSONAttributesTopic: stateTopic,
	}
	if uniqueID != "" {
		payload[keyUniqueID] = uniqueID
	}
	return payload
}
