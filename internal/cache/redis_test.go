// internal/cache/redis_test.go
package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/lobbyd/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memList is an in-memory stand-in for a Redis list.
type memList struct {
	items map[string][]string
	err   error
}

func (m *memList) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "rpush", key)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	for _, v := range values {
		m.items[key] = append(m.items[key], string(v.([]byte)))
	}
	cmd.SetVal(int64(len(m.items[key])))
	return cmd
}

func (m *memList) BLPop(ctx context.Context, _ time.Duration, keys ...string) *redis.StringSliceCmd {
	cmd := redis.NewStringSliceCmd(ctx, "blpop")
	for _, k := range keys {
		if len(m.items[k]) > 0 {
			v := m.items[k][0]
			m.items[k] = m.items[k][1:]
			cmd.SetVal([]string{k, v})
			return cmd
		}
	}
	cmd.SetErr(redis.Nil)
	return cmd
}

func TestQueuePushPop(t *testing.T) {
	ctx := context.Background()
	list := &memList{items: map[string][]string{}}
	q := NewQueue(list, "")
	assert.Equal(t, DefaultQueueName, q.Name())

	rec := store.EventRecord{
		EventID:     uuid.New(),
		LobbyID:     uuid.New(),
		Type:        "lobby.player.joined",
		PlayerCount: 2,
		OccurredAt:  time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		Payload:     []byte(`{"player":{}}`),
	}
	require.NoError(t, q.Push(ctx, rec))
	require.Len(t, list.items[DefaultQueueName], 1)

	got, err := q.Pop(ctx, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, rec.EventID, got.EventID)
	assert.Equal(t, rec.PlayerCount, got.PlayerCount)
	assert.JSONEq(t, `{"player":{}}`, string(got.Payload))

	_, err = q.Pop(ctx, time.Millisecond)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestQueuePushError(t *testing.T) {
	list := &memList{items: map[string][]string{}, err: errors.New("READONLY")}
	q := NewQueue(list, "custom")
	err := q.Push(context.Background(), store.EventRecord{EventID: uuid.New()})
	assert.ErrorContains(t, err, "custom")
	assert.ErrorContains(t, err, "READONLY")
}

func TestQueuePopMalformed(t *testing.T) {
	list := &memList{items: map[string][]string{DefaultQueueName: {"{not json"}}}
	q := NewQueue(list, "")
	_, err := q.Pop(context.Background(), time.Millisecond)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Empty(t, list.items[DefaultQueueName])
}
