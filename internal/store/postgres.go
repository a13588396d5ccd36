// internal/store/postgres.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jason-s-yu/lobbyd/internal/lobby"
)

// DBTX is the subset of *pgxpool.Pool the stores use.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS lobbies (
		id              UUID PRIMARY KEY,
		owner_id        UUID NOT NULL,
		status          TEXT NOT NULL,
		is_private      BOOLEAN NOT NULL DEFAULT FALSE,
		invitation_code TEXT NOT NULL,
		game_id         UUID,
		snapshot        JSONB NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS lobbies_status_idx ON lobbies (status)`,
	`CREATE INDEX IF NOT EXISTS lobbies_invitation_code_idx ON lobbies (invitation_code)`,
	`CREATE TABLE IF NOT EXISTS lobby_events (
		id             UUID PRIMARY KEY,
		lobby_id       UUID NOT NULL,
		event_type     TEXT NOT NULL,
		user_id        UUID,
		correlation_id TEXT,
		status         TEXT,
		player_count   INT,
		occurred_at    TIMESTAMPTZ NOT NULL,
		payload        JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS lobby_events_lobby_idx ON lobby_events (lobby_id, occurred_at)`,
}

// EnsureSchema creates the lobby tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db DBTX) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// PostgresStore is the durable repository. Each lobby is one row holding the
// JSON snapshot, with the columns needed for lookups pulled out beside it.
type PostgresStore struct {
	db   DBTX
	opts []lobby.Option
}

func NewPostgresStore(db DBTX, opts ...lobby.Option) *PostgresStore {
	return &PostgresStore{db: db, opts: opts}
}

const selectSnapshot = `SELECT snapshot FROM lobbies`

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*lobby.Aggregate, error) {
	return s.findOne(ctx, selectSnapshot+` WHERE id = $1`, id)
}

func (s *PostgresStore) Save(ctx context.Context, agg *lobby.Aggregate) error {
	snap := agg.Snapshot()
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode lobby %s: %w", snap.ID, err)
	}

	q := `
	INSERT INTO lobbies (id, owner_id, status, is_private, invitation_code, game_id, snapshot, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
	ON CONFLICT (id) DO UPDATE SET
		owner_id = EXCLUDED.owner_id,
		status = EXCLUDED.status,
		is_private = EXCLUDED.is_private,
		invitation_code = EXCLUDED.invitation_code,
		game_id = EXCLUDED.game_id,
		snapshot = EXCLUDED.snapshot,
		updated_at = now()
	`
	return pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q,
			snap.ID,
			snap.OwnerID,
			string(snap.Status),
			snap.Settings.IsPrivate,
			snap.InvitationCode,
			snap.GameID,
			raw,
			snap.CreatedAt,
		)
		return err
	})
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	var deleted int64
	err := pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM lobbies WHERE id = $1`, id)
		deleted = tag.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindAll(ctx context.Context) ([]*lobby.Aggregate, error) {
	return s.findMany(ctx, selectSnapshot+` ORDER BY created_at, id`)
}

func (s *PostgresStore) FindByStatus(ctx context.Context, status lobby.Status) ([]*lobby.Aggregate, error) {
	return s.findMany(ctx, selectSnapshot+` WHERE status = $1 ORDER BY created_at, id`, string(status))
}

func (s *PostgresStore) FindAvailable(ctx context.Context) ([]*lobby.Aggregate, error) {
	q := selectSnapshot + ` WHERE status = ANY($1) AND NOT is_private ORDER BY created_at, id`
	aggs, err := s.findMany(ctx, q, []string{string(lobby.StatusWaiting), string(lobby.StatusReady)})
	if err != nil {
		return nil, err
	}
	out := aggs[:0]
	for _, agg := range aggs {
		if agg.Snapshot().Available() {
			out = append(out, agg)
		}
	}
	return out, nil
}

func (s *PostgresStore) FindByInvitationCode(ctx context.Context, code string) (*lobby.Aggregate, error) {
	return s.findOne(ctx, selectSnapshot+` WHERE invitation_code = upper(trim($1)) ORDER BY created_at LIMIT 1`, code)
}

func (s *PostgresStore) findOne(ctx context.Context, q string, args ...any) (*lobby.Aggregate, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, q, args...).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.decode(raw)
}

func (s *PostgresStore) findMany(ctx context.Context, q string, args ...any) ([]*lobby.Aggregate, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*lobby.Aggregate
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		agg, err := s.decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	return out, rows.Err()
}

func (s *PostgresStore) decode(raw []byte) (*lobby.Aggregate, error) {
	var snap lobby.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode lobby snapshot: %w", err)
	}
	return lobby.FromSnapshot(snap, s.opts...)
}
