// internal/events/bus.go
package events

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultHandlerTimeout is the soft time budget given to each handler invocation.
const DefaultHandlerTimeout = 5 * time.Second

// Handler observes published events. Handlers must not mutate lobby state or
// write to the lobby repository; they log, broadcast and record.
type Handler interface {
	Name() string
	// Priority orders delivery; lower values run first.
	Priority() int
	CanHandle(ev Event) bool
	Handle(ctx context.Context, ev Event) error
}

type subscription struct {
	pattern string
	handler Handler
	seq     uint64
}

// HandlerStats is the cumulative record for one handler name.
type HandlerStats struct {
	Processed       uint64        `json:"processed"`
	Errors          uint64        `json:"errors"`
	AverageDuration time.Duration `json:"averageDuration"`

	total time.Duration
}

// Stats is a read-only copy of the bus counters.
type Stats struct {
	Published uint64                  `json:"published"`
	Handlers  map[string]HandlerStats `json:"handlers"`
}

// Bus is an in-process publish/subscribe dispatcher. Delivery is sequential and
// ordered by handler priority; a failing handler never stops the others.
type Bus struct {
	writeMu sync.Mutex
	subs    atomic.Pointer[[]subscription]
	seq     uint64

	timeout time.Duration
	logger  logrus.FieldLogger

	statsMu   sync.Mutex
	published uint64
	handlers  map[string]*HandlerStats
}

type BusOption func(*Bus)

// WithHandlerTimeout sets the soft per-handler budget. Non-positive values are ignored.
func WithHandlerTimeout(d time.Duration) BusOption {
	return func(b *Bus) {
		if d > 0 {
			b.timeout = d
		}
	}
}

func WithLogger(logger logrus.FieldLogger) BusOption {
	return func(b *Bus) { b.logger = logger }
}

func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		timeout:  DefaultHandlerTimeout,
		logger:   logrus.StandardLogger(),
		handlers: make(map[string]*HandlerStats),
	}
	for _, opt := range opts {
		opt(b)
	}
	empty := []subscription{}
	b.subs.Store(&empty)
	return b
}

// Subscribe registers h for events matching pattern. A pattern is an exact type,
// "*" for everything, or a prefix ending in "." or ".*" such as "lobby.".
func (b *Bus) Subscribe(pattern string, h Handler) {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	cur := *b.subs.Load()
	next := make([]subscription, len(cur), len(cur)+1)
	copy(next, cur)
	b.seq++
	next = append(next, subscription{pattern: pattern, handler: h, seq: b.seq})
	sort.SliceStable(next, func(i, j int) bool {
		pi, pj := next[i].handler.Priority(), next[j].handler.Priority()
		if pi != pj {
			return pi < pj
		}
		return next[i].seq < next[j].seq
	})
	b.subs.Store(&next)

	b.logger.WithFields(logrus.Fields{
		"handler":  h.Name(),
		"pattern":  pattern,
		"priority": h.Priority(),
	}).Debug("event handler subscribed")
}

// Unsubscribe removes the handler called name from pattern. It reports whether
// anything was removed.
func (b *Bus) Unsubscribe(pattern, name string) bool {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	cur := *b.subs.Load()
	next := make([]subscription, 0, len(cur))
	for _, s := range cur {
		if s.pattern == pattern && s.handler.Name() == name {
			continue
		}
		next = append(next, s)
	}
	if len(next) == len(cur) {
		return false
	}
	b.subs.Store(&next)
	return true
}

// Publish delivers ev to every matching handler. It never fails: the business
// operation behind ev has already been committed.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	b.statsMu.Lock()
	b.published++
	b.statsMu.Unlock()

	for _, s := range *b.subs.Load() {
		if !Matches(s.pattern, ev.Type) || !s.handler.CanHandle(ev) {
			continue
		}
		b.dispatch(ctx, s.handler, ev)
	}
}

// PublishAll publishes evs one after the other, in slice order.
func (b *Bus) PublishAll(ctx context.Context, evs []Event) {
	for _, ev := range evs {
		b.Publish(ctx, ev)
	}
}

func (b *Bus) dispatch(ctx context.Context, h Handler, ev Event) {
	hctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	start := time.Now()
	err := safeHandle(hctx, h, ev)
	elapsed := time.Since(start)
	b.record(h.Name(), elapsed, err)

	log := b.logger.WithFields(logrus.Fields{
		"handler":        h.Name(),
		"event_id":       ev.ID,
		"event_type":     ev.Type,
		"lobby_id":       ev.LobbyID,
		"correlation_id": ev.Metadata.CorrelationID,
		"duration":       elapsed,
	})
	if elapsed > b.timeout {
		log.Warnf("event handler exceeded its %s budget", b.timeout)
	}
	if err != nil {
		log.WithError(err).Error("event handler failed")
	}
}

func safeHandle(ctx context.Context, h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %s panicked: %v", h.Name(), r)
		}
	}()
	return h.Handle(ctx, ev)
}

func (b *Bus) record(name string, d time.Duration, err error) {
	b.statsMu.Lock()
	defer b.statsMu.Unlock()
	hs, ok := b.handlers[name]
	if !ok {
		hs = &HandlerStats{}
		b.handlers[name] = hs
	}
	hs.Processed++
	hs.total += d
	hs.AverageDuration = hs.total / time.Duration(hs.Processed)
	if err != nil {
		hs.Errors++
	}
}

// Stats returns a copy of the counters collected so far.
func (b *Bus) Stats() Stats {
	b.statsMu.Lock()
	defer b.statsMu.Unlock()
	out := Stats{
		Published: b.published,
		Handlers:  make(map[string]HandlerStats, len(b.handlers)),
	}
	for name, hs := range b.handlers {
		out.Handlers[name] = *hs
	}
	return out
}

// Matches reports whether an event type falls under a subscription pattern.
func Matches(pattern string, t Type) bool {
	switch {
	case pattern == "*":
		return true
	case strings.HasSuffix(pattern, ".*"):
		return strings.HasPrefix(string(t), strings.TrimSuffix(pattern, "*"))
	case strings.HasSuffix(pattern, "."):
		return strings.HasPrefix(string(t), pattern)
	default:
		return string(t) == pattern
	}
}

// HandlerFunc adapts a plain function into a Handler that accepts every event
// it is subscribed to.
type HandlerFunc struct {
	HandlerName string
	Order       int
	Fn          func(ctx context.Context, ev Event) error
}

func (f HandlerFunc) Name() string         { return f.HandlerName }
func (f HandlerFunc) Priority() int        { return f.Order }
func (f HandlerFunc) CanHandle(Event) bool { return true }

func (f HandlerFunc) Handle(ctx context.Context, ev Event) error {
	return f.Fn(ctx, ev)
}
