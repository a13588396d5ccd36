// internal/realtime/redis_test.go
package realtime

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRelayDeliversIntoHub needs a Redis server; set TEST_REDIS_ADDR to run it.
func TestRelayDeliversIntoHub(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	logger, _ := test.NewNullLogger()
	prefix := "lobbyd-test-" + uuid.NewString()[:8] + ":"
	tr := NewRedisTransport(rdb, prefix, logger)
	hub := NewHub(4, logger)

	id := uuid.New()
	sub := hub.Subscribe(LobbyChannel(id))
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- tr.Relay(ctx, hub) }()

	// the relay subscribes asynchronously; publish until it is listening
	require.Eventually(t, func() bool {
		if err := tr.Broadcast(ctx, LobbyChannel(id), closedEvent(id)); err != nil {
			return false
		}
		return len(sub.C) > 0
	}, 3*time.Second, 50*time.Millisecond)

	msg := <-sub.C
	assert.Equal(t, LobbyChannel(id), msg.Channel)
	assert.Contains(t, string(msg.Data), id.String())

	cancel()
	assert.NoError(t, <-done)
}
