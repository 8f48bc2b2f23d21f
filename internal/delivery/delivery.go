// Package delivery contains the external notification channels.
package delivery

import (
	"encoding/json"
	"time"

	"codeberg.org/mutker/kitchenctl/internal/config"
	"codeberg.org/mutker/kitchenctl/internal/errors"
	"codeberg.org/mutker/kitchenctl/internal/notify"
)

// Dispatcher is a notify.Dispatcher that holds a connection.
type Dispatcher interface {
	notify.Dispatcher
	Close() error
}

// Message is the wire format published on MQTT and Redis.
type Message struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	Push      bool      `json:"push"`
	Sound     bool      `json:"sound"`
	Vibration bool      `json:"vibration"`
}

// Encode renders d as a JSON Message.
func Encode(d notify.Delivery) ([]byte, error) {
	payload, err := json.Marshal(Message{
		ID:        d.Notification.ID,
		Kind:      string(d.Notification.Kind),
		Title:     d.Title,
		Body:      d.Notification.Message,
		CreatedAt: d.Notification.CreatedAt.UTC(),
		Push:      d.Push,
		Sound:     d.Sound,
		Vibration: d.Vibration,
	})
	if err != nil {
		return nil, errors.New().Wrap(ErrEncode, err)
	}

	return payload, nil
}

// New builds the dispatcher selected by cfg.Driver. It returns nil for
// "none".
func New(cfg config.DeliveryConfig) (Dispatcher, error) {
	switch cfg.Driver {
	case "none", "":
		return nil, nil
	case "log":
		return NewLogDispatcher(), nil
	case "mqtt":
		d, err := NewMQTTDispatcher(cfg.MQTT, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return d, nil
	case "redis":
		d, err := NewRedisDispatcher(cfg.Redis, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, errors.New().WithData(errors.ErrInvalidDriver, "delivery: "+cfg.Driver)
	}
}
