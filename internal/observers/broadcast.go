// internal/observers/broadcast.go
package observers

import (
	"context"
	"errors"

	"github.com/jason-s-yu/lobbyd/internal/events"
	"github.com/jason-s-yu/lobbyd/internal/realtime"
)

// BroadcastHandler pushes every lobby event to real-time clients.
type BroadcastHandler struct {
	transport realtime.Transport
}

func NewBroadcastHandler(transport realtime.Transport) *BroadcastHandler {
	return &BroadcastHandler{transport: transport}
}

func (h *BroadcastHandler) Name() string                { return "broadcast" }
func (h *BroadcastHandler) Pattern() string             { return "lobby." }
func (h *BroadcastHandler) Priority() int               { return PriorityBroadcast }
func (h *BroadcastHandler) CanHandle(events.Event) bool { return true }

// Handle tries every channel even if one fails.
func (h *BroadcastHandler) Handle(ctx context.Context, ev events.Event) error {
	var errs []error
	for _, ch := range realtime.ChannelsFor(ev) {
		if err := h.transport.Broadcast(ctx, ch, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
