// internal/store/repository.go
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jason-s-yu/lobbyd/internal/lobby"
)

// ErrNotFound is returned when no lobby matches a lookup.
var ErrNotFound = errors.New("store: lobby not found")

// Repository persists lobby aggregates. Implementations own storage only; the
// aggregate owns its invariants.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*lobby.Aggregate, error)
	Save(ctx context.Context, agg *lobby.Aggregate) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindAll(ctx context.Context) ([]*lobby.Aggregate, error)
	FindByStatus(ctx context.Context, status lobby.Status) ([]*lobby.Aggregate, error)
	// FindAvailable lists public pre-game lobbies that still have room.
	FindAvailable(ctx context.Context) ([]*lobby.Aggregate, error)
	FindByInvitationCode(ctx context.Context, code string) (*lobby.Aggregate, error)
}

func rehydrate(snaps []lobby.Snapshot, opts []lobby.Option) ([]*lobby.Aggregate, error) {
	out := make([]*lobby.Aggregate, 0, len(snaps))
	for _, s := range snaps {
		agg, err := lobby.FromSnapshot(s, opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	return out, nil
}
