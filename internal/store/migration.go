// internal/store/migration.go
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/lobbyd/internal/lobby"
	"github.com/sirupsen/logrus"
)

// Migrator moves a lobby from the in-memory store to durable storage once a
// game starts from it.
type Migrator struct {
	memory  *MemoryStore
	durable Repository
	logger  logrus.FieldLogger
}

func NewMigrator(memory *MemoryStore, durable Repository, logger logrus.FieldLogger) *Migrator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Migrator{memory: memory, durable: durable, logger: logger}
}

// Migrate exports the lobby from memory and saves agg durably. If the durable
// save fails the exported record goes back into memory, so the lobby is never
// lost, and the storage error is returned.
func (m *Migrator) Migrate(ctx context.Context, agg *lobby.Aggregate) error {
	id := agg.ID()
	exported, err := m.memory.Export(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		// already durable, or never saved
	case err != nil:
		return fmt.Errorf("migrate lobby %s: %w", id, err)
	}

	if err := m.durable.Save(ctx, agg); err != nil {
		if exported.ID != uuid.Nil {
			m.memory.Restore(ctx, exported)
		}
		m.logger.WithFields(logrus.Fields{
			"lobby_id": id,
			"status":   agg.Status(),
		}).WithError(err).Error("lobby migration failed; restored in-memory record")
		return fmt.Errorf("migrate lobby %s: %w", id, err)
	}

	m.logger.WithFields(logrus.Fields{
		"lobby_id": id,
		"status":   agg.Status(),
	}).Info("lobby migrated to durable storage")
	return nil
}

// FindLobby looks in memory first and falls back to durable storage.
func (m *Migrator) FindLobby(ctx context.Context, id uuid.UUID) (*lobby.Aggregate, error) {
	agg, err := m.memory.FindByID(ctx, id)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return agg, err
	}
	return m.durable.FindByID(ctx, id)
}
