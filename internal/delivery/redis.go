package delivery

import (
	"context"
	"time"

	"codeberg.org/mutker/kitchenctl/internal/config"
	"codeberg.org/mutker/kitchenctl/internal/errors"
	"codeberg.org/mutker/kitchenctl/internal/notify"
	"github.com/go-redis/redis/v8"
)

// RedisDispatcher publishes deliveries on a Redis pub/sub channel.
type RedisDispatcher struct {
	client  *redis.Client
	channel string
}

// NewRedisDispatcher opens a client and checks the server is reachable.
func NewRedisDispatcher(cfg config.RedisConfig, timeout time.Duration) (*RedisDispatcher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.New().Wrap(ErrConnect, err)
	}

	return &RedisDispatcher{client: client, channel: cfg.Channel}, nil
}

func (*RedisDispatcher) Name() string { return "redis" }

func (r *RedisDispatcher) Dispatch(ctx context.Context, d notify.Delivery) error {
	payload, err := Encode(d)
	if err != nil {
		return err
	}

	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return errors.New().Wrap(ErrPublish, err)
	}

	return nil
}

func (r *RedisDispatcher) Close() error {
	return r.client.Close()
}
