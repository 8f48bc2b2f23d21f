package delivery

import (
	"context"
	"time"

	"codeberg.org/mutker/kitchenctl/internal/config"
	"codeberg.org/mutker/kitchenctl/internal/errors"
	"codeberg.org/mutker/kitchenctl/internal/notify"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	mqttQoS            = 1
	mqttDisconnectWait = 250 // milliseconds
)

// publisher is the subset of mqtt.Client used for delivery.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTDispatcher publishes deliveries to an MQTT topic.
type MQTTDispatcher struct {
	client mqtt.Client
	pub    publisher
	topic  string
}

// NewMQTTDispatcher connects to the broker. The connection attempt is
// bounded by timeout.
func NewMQTTDispatcher(cfg config.MQTTConfig, timeout time.Duration) (*MQTTDispatcher, error) {
	errFactory := errors.New()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(timeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		client.Disconnect(0)
		return nil, errFactory.WithData(ErrConnect, cfg.Broker)
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return nil, errFactory.Wrap(ErrConnect, err)
	}

	return &MQTTDispatcher{client: client, pub: client, topic: cfg.Topic}, nil
}

func newMQTTDispatcher(pub publisher, topic string) *MQTTDispatcher {
	return &MQTTDispatcher{pub: pub, topic: topic}
}

func (*MQTTDispatcher) Name() string { return "mqtt" }

// Dispatch publishes d and waits for the broker acknowledgement or ctx.
func (m *MQTTDispatcher) Dispatch(ctx context.Context, d notify.Delivery) error {
	errFactory := errors.New()

	payload, err := Encode(d)
	if err != nil {
		return err
	}

	token := m.pub.Publish(m.topic, mqttQoS, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return errFactory.Wrap(ErrPublish, err)
		}
		return nil
	case <-ctx.Done():
		return errFactory.Wrap(errors.ErrTimeout, ctx.Err())
	}
}

func (m *MQTTDispatcher) Close() error {
	if m.client != nil {
		m.client.Disconnect(mqttDisconnectWait)
	}
	return nil
}
