package notify

import (
	"context"
	"time"
)

// Kind classifies a notification.
type Kind string

const (
	KindDanger  Kind = "danger"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindDanger, KindWarning, KindInfo:
		return true
	default:
		return false
	}
}

// Notification is one entry of the log. Only Read ever changes after creation.
type Notification struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

// Store persists the notification log, newest first.
type Store interface {
	Append(ctx context.Context, n Notification) error
	List(ctx context.Context) ([]Notification, error)
	MarkAllRead(ctx context.Context) (int, error)
	UnreadCount(ctx context.Context) (int, error)
	Close() error
}

// Delivery is the request handed to an external channel. The flags tell
// the collaborator which effects the user allowed.
type Delivery struct {
	Notification Notification `json:"notification"`
	Title        string       `json:"title"`
	Push         bool         `json:"push"`
	Sound        bool         `json:"sound"`
	Vibration    bool         `json:"vibration"`
}

// Dispatcher delivers notifications outside the process. Implementations
// must honour ctx; they are never assumed to be reliable.
type Dispatcher interface {
	Name() string
	Dispatch(ctx context.Context, d Delivery) error
}

// Observer receives center events. Used for telemetry.
type Observer interface {
	NotificationCreated(kind Kind)
	DeliveryCompleted(kind Kind, err error)
}

type noopObserver struct{}

func (noopObserver) NotificationCreated(Kind)      {}
func (noopObserver) DeliveryCompleted(Kind, error) {}
