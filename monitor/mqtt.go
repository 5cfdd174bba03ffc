package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// publisher is the part of mqtt.Client the sink uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

var _ Sink = &MQTTSink{}

// MQTTSink publishes snapshots as retained JSON messages under a topic
// prefix: <prefix>/snapshot always, <prefix>/orientation and
// <prefix>/environment when those readings are present.
type MQTTSink struct {
	client publisher
	prefix string
	qos    byte
}

func NewMQTTSink(client publisher, prefix string, qos byte) *MQTTSink {
	return &MQTTSink{client: client, prefix: prefix, qos: qos}
}

// ConnectMQTT connects a paho client to broker.
func ConnectMQTT(ctx context.Context, broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)
	client := mqtt.NewClient(opts)
	if err := wait(ctx, client.Connect()); err != nil {
		return nil, fmt.Errorf("could not connect to %s: %w", broker, err)
	}
	return client, nil
}

type environmentMessage struct {
	At           time.Time `json:"at"`
	TemperatureF *float64  `json:"temperatureF,omitempty"`
	PressureHpa  *float64  `json:"pressureHpa,omitempty"`
	AltitudeFt   *float64  `json:"altitudeFt,omitempty"`
}

func (m *MQTTSink) Publish(ctx context.Context, s Snapshot) error {
	err := m.publish(ctx, "snapshot", s)
	if err != nil {
		return err
	}
	if s.Orientation != nil {
		err = m.publish(ctx, "orientation", s.Orientation)
		if err != nil {
			return err
		}
	}
	if s.TemperatureF != nil || s.PressureHpa != nil || s.AltitudeFt != nil {
		return m.publish(ctx, "environment", environmentMessage{
			At:           s.At,
			TemperatureF: s.TemperatureF,
			PressureHpa:  s.PressureHpa,
			AltitudeFt:   s.AltitudeFt,
		})
	}
	return nil
}

func (m *MQTTSink) publish(ctx context.Context, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal error (%s): %w", topic, err)
	}
	topic = m.prefix + "/" + topic
	if err := wait(ctx, m.client.Publish(topic, m.qos, true, payload)); err != nil {
		return fmt.Errorf("MQTT publish error (%s): %w", topic, err)
	}
	return nil
}

func wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
