package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/kitchenctl/internal/config"
	"codeberg.org/mutker/kitchenctl/internal/errors"
	"codeberg.org/mutker/kitchenctl/internal/notify"
	"github.com/alicebob/miniredis/v2"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDelivery() notify.Delivery {
	return notify.Delivery{
		Notification: notify.Notification{
			ID:        "n-1",
			Kind:      notify.KindDanger,
			Message:   "Gas leak detected",
			CreatedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		},
		Title: "DANGER DETECTED!",
		Push:  true,
		Sound: true,
	}
}

func TestEncode(t *testing.T) {
	payload, err := Encode(testDelivery())
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "n-1", msg.ID)
	assert.Equal(t, "danger", msg.Kind)
	assert.Equal(t, "DANGER DETECTED!", msg.Title)
	assert.Equal(t, "Gas leak detected", msg.Body)
	assert.True(t, msg.Push)
	assert.True(t, msg.Sound)
	assert.False(t, msg.Vibration)
}

func TestNewSelectsDriver(t *testing.T) {
	d, err := New(config.DeliveryConfig{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = New(config.DeliveryConfig{Driver: "log"})
	require.NoError(t, err)
	assert.Equal(t, "log", d.Name())

	_, err = New(config.DeliveryConfig{Driver: "carrier-pigeon"})
	assert.True(t, errors.HasCode(err, errors.ErrInvalidDriver))
}

func TestLogDispatcherHonoursContext(t *testing.T) {
	d := NewLogDispatcher()
	require.NoError(t, d.Dispatch(context.Background(), testDelivery()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, d.Dispatch(ctx, testDelivery()))
}

// fakeToken completes when done is closed.
type fakeToken struct {
	done chan struct{}
	err  error
}

func completedToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

type fakePublisher struct {
	mu        sync.Mutex
	topics    []string
	payloads  [][]byte
	nextToken func() mqtt.Token
}

func (p *fakePublisher) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload.([]byte))
	return p.nextToken()
}

func TestMQTTDispatchPublishesPayload(t *testing.T) {
	pub := &fakePublisher{nextToken: func() mqtt.Token { return completedToken(nil) }}
	d := newMQTTDispatcher(pub, "kitchen/alerts")

	require.NoError(t, d.Dispatch(context.Background(), testDelivery()))
	require.Len(t, pub.payloads, 1)
	assert.Equal(t, "kitchen/alerts", pub.topics[0])

	var msg Message
	require.NoError(t, json.Unmarshal(pub.payloads[0], &msg))
	assert.Equal(t, "Gas leak detected", msg.Body)
	assert.NoError(t, d.Close())
}

func TestMQTTDispatchReportsBrokerError(t *testing.T) {
	pub := &fakePublisher{nextToken: func() mqtt.Token {
		return completedToken(fmt.Errorf("not connected"))
	}}
	d := newMQTTDispatcher(pub, "kitchen/alerts")

	err := d.Dispatch(context.Background(), testDelivery())
	assert.True(t, errors.HasCode(err, ErrPublish))
}

func TestMQTTDispatchStopsAtDeadline(t *testing.T) {
	pub := &fakePublisher{nextToken: func() mqtt.Token {
		return &fakeToken{done: make(chan struct{})}
	}}
	d := newMQTTDispatcher(pub, "kitchen/alerts")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := d.Dispatch(ctx, testDelivery())
	assert.True(t, errors.HasCode(err, errors.ErrTimeout))
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestRedisDispatchPublishes(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, "kitchen:alerts")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	d, err := NewRedisDispatcher(config.RedisConfig{Addr: mr.Addr(), Channel: "kitchen:alerts"}, time.Second)
	require.NoError(t, err)
	defer d.Close()
	assert.Equal(t, "redis", d.Name())

	require.NoError(t, d.Dispatch(ctx, testDelivery()))

	recvCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(recvCtx)
	require.NoError(t, err)
	assert.Equal(t, "kitchen:alerts", msg.Channel)

	var got Message
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, "n-1", got.ID)
	assert.Equal(t, "DANGER DETECTED!", got.Title)
}

func TestRedisDispatcherUnreachable(t *testing.T) {
	mr, _ := setupTestRedis(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisDispatcher(config.RedisConfig{Addr: addr}, 200*time.Millisecond)
	assert.True(t, errors.HasCode(err, ErrConnect))
}

func TestRedisDispatchFailsAfterServerLoss(t *testing.T) {
	mr, _ := setupTestRedis(t)

	d, err := NewRedisDispatcher(config.RedisConfig{Addr: mr.Addr(), Channel: "c"}, time.Second)
	require.NoError(t, err)
	defer d.Close()

	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	err = d.Dispatch(ctx, testDelivery())
	assert.True(t, errors.HasCode(err, ErrPublish))
}

func TestCenterDeliversThroughRedis(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, "kitchen:alerts")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	d, err := NewRedisDispatcher(config.RedisConfig{Addr: mr.Addr(), Channel: "kitchen:alerts"}, time.Second)
	require.NoError(t, err)
	defer d.Close()

	center := notify.NewCenter(notify.NewMemoryStore(), d)
	_, err = center.Create(ctx, notify.KindDanger, "Flame detected")
	require.NoError(t, err)

	recvCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(recvCtx)
	require.NoError(t, err)

	var got Message
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, "Flame detected", got.Body)
	assert.Equal(t, "DANGER DETECTED!", got.Title)
	center.Wait()
}

func TestMQTTDispatcherUnreachableBroker(t *testing.T) {
	_, err := NewMQTTDispatcher(config.MQTTConfig{
		Broker:   "tcp://127.0.0.1:1",
		ClientID: "kitchenctl-test",
		Topic:    "kitchen/alerts",
	}, 500*time.Millisecond)
	assert.True(t, errors.HasCode(err, ErrConnect))
}
