// internal/observers/audit.go
package observers

import (
	"context"

	"github.com/jason-s-yu/lobbyd/internal/events"
	"github.com/sirupsen/logrus"
)

// AuditRecorder persists events for later inspection. *store.EventLog is one.
type AuditRecorder interface {
	Record(ctx context.Context, ev events.Event) error
}

// AuditHandler logs every event and, when it has a recorder, stores it.
type AuditHandler struct {
	logger   logrus.FieldLogger
	recorder AuditRecorder
}

// NewAuditHandler returns an audit handler. recorder may be nil.
func NewAuditHandler(logger logrus.FieldLogger, recorder AuditRecorder) *AuditHandler {
	return &AuditHandler{logger: logger, recorder: recorder}
}

func (h *AuditHandler) Name() string                { return "audit" }
func (h *AuditHandler) Pattern() string             { return "*" }
func (h *AuditHandler) Priority() int               { return PriorityAudit }
func (h *AuditHandler) CanHandle(events.Event) bool { return true }

func (h *AuditHandler) Handle(ctx context.Context, ev events.Event) error {
	fields := logrus.Fields{
		"event_id":       ev.ID,
		"event_type":     ev.Type,
		"lobby_id":       ev.LobbyID,
		"correlation_id": ev.Metadata.CorrelationID,
	}
	if ev.Metadata.UserID != nil {
		fields["user_id"] = *ev.Metadata.UserID
	}
	if r, ok := events.RosterOf(ev.Payload); ok {
		fields["status"] = r.Status
		fields["players"] = r.CurrentPlayers
	}
	h.logger.WithFields(fields).Info("lobby event")

	if h.recorder == nil {
		return nil
	}
	return h.recorder.Record(ctx, ev)
}
