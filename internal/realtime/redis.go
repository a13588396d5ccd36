// internal/realtime/redis.go
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jason-s-yu/lobbyd/internal/events"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisClient is the part of *redis.Client the transport uses.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	PSubscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// RedisTransport publishes envelopes to Redis so that every instance of the
// service can deliver them to its own websocket clients.
type RedisTransport struct {
	client RedisClient
	prefix string
	logger logrus.FieldLogger
}

func NewRedisTransport(client RedisClient, prefix string, logger logrus.FieldLogger) *RedisTransport {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RedisTransport{client: client, prefix: prefix, logger: logger}
}

func (t *RedisTransport) Broadcast(ctx context.Context, channel string, ev events.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	if err := t.client.Publish(ctx, t.prefix+channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s%s: %w", t.prefix, channel, err)
	}
	return nil
}

// Relay feeds every message published under the prefix into hub until ctx is
// done. Run one relay per process.
func (t *RedisTransport) Relay(ctx context.Context, hub *Hub) error {
	pubsub := t.client.PSubscribe(ctx, t.prefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s*: %w", t.prefix, err)
	}
	t.logger.WithField("pattern", t.prefix+"*").Info("relaying lobby events from redis")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			channel, ok := ParseChannel(strings.TrimPrefix(msg.Channel, t.prefix))
			if !ok {
				t.logger.WithField("channel", msg.Channel).Warn("ignoring message on unknown channel")
				continue
			}
			var head struct {
				Type events.Type `json:"type"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &head); err != nil {
				t.logger.WithField("channel", msg.Channel).WithError(err).Warn("ignoring malformed event")
				continue
			}
			hub.Deliver(Message{Channel: channel, Type: head.Type, Data: json.RawMessage(msg.Payload)})
		}
	}
}
