// internal/realtime/hub.go
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jason-s-yu/lobbyd/internal/events"
	"github.com/sirupsen/logrus"
)

// Transport delivers an event envelope to everyone listening on channel.
type Transport interface {
	Broadcast(ctx context.Context, channel string, ev events.Event) error
}

// Message is one encoded envelope as handed to subscribers.
type Message struct {
	Channel string
	Type    events.Type
	Data    json.RawMessage
}

// DefaultSubscriptionBuffer is how many messages a slow subscriber may fall
// behind before messages to it are dropped.
const DefaultSubscriptionBuffer = 32

// Hub fans messages out to in-process subscribers, typically websocket
// connections. A full subscriber buffer never blocks the publisher; the
// message is dropped for that subscriber and logged.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[*Subscription]struct{}
	buffer  int
	logger  logrus.FieldLogger
	dropped atomic.Uint64
}

func NewHub(buffer int, logger logrus.FieldLogger) *Hub {
	if buffer <= 0 {
		buffer = DefaultSubscriptionBuffer
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Subscription receives messages for one channel on C until Close is called.
type Subscription struct {
	Channel string
	C       <-chan Message

	ch   chan Message
	hub  *Hub
	once sync.Once
}

func (h *Hub) Subscribe(channel string) *Subscription {
	ch := make(chan Message, h.buffer)
	s := &Subscription{Channel: channel, C: ch, ch: ch, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[channel]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[channel] = set
	}
	set[s] = struct{}{}
	return s
}

// Close unsubscribes and closes C. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[s.Channel]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subs, s.Channel)
			}
		}
		close(s.ch)
	})
}

// Broadcast encodes ev and delivers it on channel.
func (h *Hub) Broadcast(_ context.Context, channel string, ev events.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	h.Deliver(Message{Channel: channel, Type: ev.Type, Data: data})
	return nil
}

// Deliver hands an already encoded message to the channel's subscribers.
func (h *Hub) Deliver(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[msg.Channel] {
		select {
		case s.ch <- msg:
		default:
			h.dropped.Add(1)
			h.logger.WithFields(logrus.Fields{
				"channel":    msg.Channel,
				"event_type": msg.Type,
			}).Warn("subscriber buffer full; dropping message")
		}
	}
}

// Subscribers returns the number of subscriptions on channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channel])
}

// Dropped returns how many messages were dropped for slow subscribers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
