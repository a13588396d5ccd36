// internal/store/dual.go
package store

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/jason-s-yu/lobbyd/internal/lobby"
)

// DualStore presents the in-memory and durable stores as one Repository.
// Lobbies that have not started a game live in memory; once a game id is
// assigned the lobby belongs to durable storage.
type DualStore struct {
	memory   *MemoryStore
	durable  Repository
	migrator *Migrator
}

func NewDualStore(memory *MemoryStore, durable Repository, migrator *Migrator) *DualStore {
	return &DualStore{memory: memory, durable: durable, migrator: migrator}
}

func (d *DualStore) FindByID(ctx context.Context, id uuid.UUID) (*lobby.Aggregate, error) {
	return d.migrator.FindLobby(ctx, id)
}

// Save writes agg to the store it belongs to. A started lobby still held in
// memory is migrated.
func (d *DualStore) Save(ctx context.Context, agg *lobby.Aggregate) error {
	if agg.Lobby().GameStarted() {
		return d.migrator.Migrate(ctx, agg)
	}
	return d.memory.Save(ctx, agg)
}

// Migrate moves agg into durable storage.
func (d *DualStore) Migrate(ctx context.Context, agg *lobby.Aggregate) error {
	return d.migrator.Migrate(ctx, agg)
}

func (d *DualStore) Delete(ctx context.Context, id uuid.UUID) error {
	err := d.memory.Delete(ctx, id)
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	return d.durable.Delete(ctx, id)
}

func (d *DualStore) FindAll(ctx context.Context) ([]*lobby.Aggregate, error) {
	return d.both(ctx, (*MemoryStore).FindAll, d.durable.FindAll)
}

func (d *DualStore) FindByStatus(ctx context.Context, status lobby.Status) ([]*lobby.Aggregate, error) {
	return d.both(ctx,
		func(m *MemoryStore, ctx context.Context) ([]*lobby.Aggregate, error) { return m.FindByStatus(ctx, status) },
		func(ctx context.Context) ([]*lobby.Aggregate, error) { return d.durable.FindByStatus(ctx, status) },
	)
}

// FindAvailable only consults memory: a lobby that started a game is never
// open for joining again.
func (d *DualStore) FindAvailable(ctx context.Context) ([]*lobby.Aggregate, error) {
	return d.memory.FindAvailable(ctx)
}

func (d *DualStore) FindByInvitationCode(ctx context.Context, code string) (*lobby.Aggregate, error) {
	agg, err := d.memory.FindByInvitationCode(ctx, code)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return agg, err
	}
	return d.durable.FindByInvitationCode(ctx, code)
}

func (d *DualStore) both(
	ctx context.Context,
	fromMemory func(*MemoryStore, context.Context) ([]*lobby.Aggregate, error),
	fromDurable func(context.Context) ([]*lobby.Aggregate, error),
) ([]*lobby.Aggregate, error) {
	mem, err := fromMemory(d.memory, ctx)
	if err != nil {
		return nil, err
	}
	dur, err := fromDurable(ctx)
	if err != nil {
		return nil, err
	}
	out := append(mem, dur...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Lobby().CreatedAt.Before(out[j].Lobby().CreatedAt)
	})
	return out, nil
}
