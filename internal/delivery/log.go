package delivery

import (
	"context"

	"codeberg.org/mutker/kitchenctl/internal/logger"
	"codeberg.org/mutker/kitchenctl/internal/notify"
)

// LogDispatcher writes deliveries to the log. Useful without a broker.
type LogDispatcher struct {
	log logger.Logger
}

func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{log: logger.For("delivery")}
}

func (*LogDispatcher) Name() string { return "log" }

func (l *LogDispatcher) Dispatch(ctx context.Context, d notify.Delivery) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.log.Info().
		Str("id", d.Notification.ID).
		Str("title", d.Title).
		Str("message", d.Notification.Message).
		Bool("push", d.Push).
		Bool("sound", d.Sound).
		Bool("vibration", d.Vibration).
		Msg("Notification")

	return nil
}

func (*LogDispatcher) Close() error { return nil }
