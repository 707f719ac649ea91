package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fueltrack/internal/config"
)

const qosAtLeastOnce byte = 1

// publisher is the subset of mqtt.Client used by MQTTNotifier.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTNotifier publishes messages to <prefix>/<kind>.
type MQTTNotifier struct {
	client publisher
	prefix string
}

// NewMQTTNotifier connects to the configured broker.
func NewMQTTNotifier(cfg config.MQTTConfig, logger logrus.FieldLogger) (*MQTTNotifier, mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.WithError(err).Warn("mqtt connection lost")
		}).
		SetOnConnectHandler(func(mqtt.Client) {
			logger.WithField("broker", cfg.BrokerURL).Info("connected to mqtt broker")
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, nil, fmt.Errorf("mqtt connect to %s: timed out", cfg.BrokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, nil, fmt.Errorf("mqtt connect to %s: %w", cfg.BrokerURL, err)
	}
	return newMQTTNotifier(client, cfg.TopicPrefix), client, nil
}

func newMQTTNotifier(client publisher, prefix string) *MQTTNotifier {
	return &MQTTNotifier{client: client, prefix: prefix}
}

// Topic returns the topic messages of kind are published on.
func (n *MQTTNotifier) Topic(kind Kind) string {
	return n.prefix + "/" + string(kind)
}

// Notify publishes msg and waits for the broker acknowledgement or ctx.
func (n *MQTTNotifier) Notify(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	token := n.client.Publish(n.Topic(msg.Kind), qosAtLeastOnce, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish %s: %w", n.Topic(msg.Kind), err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", n.Topic(msg.Kind), ctx.Err())
	}
}
