// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/lobbyd/internal/store"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list that lobby event records are pushed onto.
const DefaultQueueName = "lobby_events"

// Connect opens a Redis client and checks that the server answers.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// ListClient is the part of *redis.Client the queue uses.
type ListClient interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// Queue is a FIFO of event records kept in a Redis list. The server pushes,
// the historian pops.
type Queue struct {
	client ListClient
	name   string
}

func NewQueue(client ListClient, name string) *Queue {
	if name == "" {
		name = DefaultQueueName
	}
	return &Queue{client: client, name: name}
}

func (q *Queue) Name() string {
	return q.name
}

// Push serializes rec and appends it to the list.
func (q *Queue) Push(ctx context.Context, rec store.EventRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal event record: %w", err)
	}
	if err := q.client.RPush(ctx, q.name, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.name, err)
	}
	return nil
}

var (
	// ErrEmpty is returned by Pop when nothing arrived before the timeout.
	ErrEmpty = errors.New("queue empty")
	// ErrMalformed means an entry was popped but could not be decoded. It is gone from the list.
	ErrMalformed = errors.New("malformed record")
)

// Pop blocks up to timeout for the next record.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (store.EventRecord, error) {
	res, err := q.client.BLPop(ctx, timeout, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return store.EventRecord{}, ErrEmpty
	}
	if err != nil {
		return store.EventRecord{}, err
	}
	// BLPOP answers [key, value]
	if len(res) != 2 {
		return store.EventRecord{}, fmt.Errorf("unexpected BLPOP reply of %d elements", len(res))
	}
	var rec store.EventRecord
	if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
		return store.EventRecord{}, fmt.Errorf("%w on %s: %w", ErrMalformed, q.name, err)
	}
	return rec, nil
}
