// internal/observers/analytics.go
package observers

import (
	"context"

	"github.com/jason-s-yu/lobbyd/internal/events"
	"github.com/jason-s-yu/lobbyd/internal/store"
)

// RecordQueue accepts event records for offline processing. *cache.Queue is one.
type RecordQueue interface {
	Push(ctx context.Context, rec store.EventRecord) error
}

// AnalyticsHandler queues a flattened record of each event for the historian.
type AnalyticsHandler struct {
	queue RecordQueue
}

func NewAnalyticsHandler(queue RecordQueue) *AnalyticsHandler {
	return &AnalyticsHandler{queue: queue}
}

func (h *AnalyticsHandler) Name() string                { return "analytics" }
func (h *AnalyticsHandler) Pattern() string             { return "lobby." }
func (h *AnalyticsHandler) Priority() int               { return PriorityAnalytics }
func (h *AnalyticsHandler) CanHandle(events.Event) bool { return true }

func (h *AnalyticsHandler) Handle(ctx context.Context, ev events.Event) error {
	rec, err := store.RecordOf(ev)
	if err != nil {
		return err
	}
	return h.queue.Push(ctx, rec)
}
