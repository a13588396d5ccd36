// internal/events/event.go
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type is the dotted name of a domain event, e.g. "lobby.player.joined".
type Type string

const (
	TypeLobbyCreated    Type = "lobby.created"
	TypePlayerJoined    Type = "lobby.player.joined"
	TypePlayerLeft      Type = "lobby.player.left"
	TypePlayerReady     Type = "lobby.player.ready"
	TypeOwnerChanged    Type = "lobby.owner.changed"
	TypeSettingsUpdated Type = "lobby.settings.updated"
	TypeGameStarted     Type = "lobby.game.started"
	TypeStatusChanged   Type = "lobby.status.changed"
	TypeLobbyClosed     Type = "lobby.closed"
)

// Global reports whether events of this type also concern the lobby list,
// as opposed to being of interest only to the members of a single lobby.
func (t Type) Global() bool {
	return t != TypePlayerReady
}

// Metadata travels with every event but is not part of what happened.
type Metadata struct {
	CorrelationID string            `json:"correlationId,omitempty"`
	UserID        *uuid.UUID        `json:"userId,omitempty"`
	Tags          map[string]string `json:"tags,omitempty"`
}

// Event is the envelope handed to the bus and, from there, to the real-time transport.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Type      Type      `json:"type"`
	LobbyID   uuid.UUID `json:"lobbyId"`
	Timestamp time.Time `json:"timestamp"`
	Payload   Payload   `json:"payload"`
	Metadata  Metadata  `json:"metadata"`
}

// WithMetadata returns a copy of the event carrying m. Tags already present on
// the event are kept unless m overrides them.
func (e Event) WithMetadata(m Metadata) Event {
	if m.CorrelationID != "" {
		e.Metadata.CorrelationID = m.CorrelationID
	}
	if m.UserID != nil {
		id := *m.UserID
		e.Metadata.UserID = &id
	}
	if len(m.Tags) > 0 {
		tags := make(map[string]string, len(e.Metadata.Tags)+len(m.Tags))
		for k, v := range e.Metadata.Tags {
			tags[k] = v
		}
		for k, v := range m.Tags {
			tags[k] = v
		}
		e.Metadata.Tags = tags
	}
	return e
}

// Stamp attaches the correlation id found in ctx and the acting user to every event.
func Stamp(ctx context.Context, evs []Event, userID uuid.UUID) []Event {
	meta := Metadata{CorrelationID: CorrelationIDFromContext(ctx)}
	if userID != uuid.Nil {
		meta.UserID = &userID
	}
	out := make([]Event, len(evs))
	for i, ev := range evs {
		out[i] = ev.WithMetadata(meta)
	}
	return out
}

type correlationKey struct{}

// ContextWithCorrelationID stores id so that events produced while serving the
// request can be traced back to it.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationIDFromContext returns the correlation id stored in ctx, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
