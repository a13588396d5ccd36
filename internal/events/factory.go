// internal/events/factory.go
package events

import (
	"time"

	"github.com/google/uuid"
)

// Factory builds event envelopes. Tests swap the clock and id source to get
// deterministic output.
type Factory struct {
	clock func() time.Time
	newID func() uuid.UUID
}

type FactoryOption func(*Factory)

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) FactoryOption {
	return func(f *Factory) { f.clock = clock }
}

// WithIDGenerator overrides the uuid v7 generator.
func WithIDGenerator(gen func() uuid.UUID) FactoryOption {
	return func(f *Factory) { f.newID = gen }
}

func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		clock: func() time.Time { return time.Now().UTC() },
		newID: newEventID,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var defaultFactory = NewFactory()

// DefaultFactory is used by aggregates that were not given a factory.
func DefaultFactory() *Factory {
	return defaultFactory
}

func (f *Factory) Now() time.Time {
	return f.clock()
}

// NewID returns a fresh identifier from the factory's id source.
func (f *Factory) NewID() uuid.UUID {
	return f.newID()
}

// New wraps p into an envelope for the given lobby.
func (f *Factory) New(lobbyID uuid.UUID, p Payload) Event {
	return Event{
		ID:        f.newID(),
		Type:      p.EventType(),
		LobbyID:   lobbyID,
		Timestamp: f.clock(),
		Payload:   p,
	}
}

func newEventID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
