// internal/store/eventlog.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/lobbyd/internal/events"
)

// EventRecord is the flattened, storable form of a domain event. It is also the
// JSON record pushed onto the analytics queue.
type EventRecord struct {
	EventID       uuid.UUID       `json:"event_id"`
	LobbyID       uuid.UUID       `json:"lobby_id"`
	Type          string          `json:"event_type"`
	UserID        *uuid.UUID      `json:"user_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Status        string          `json:"status,omitempty"`
	PlayerCount   int             `json:"player_count"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// RecordOf flattens ev. The roster, when present, supplies status and head count.
func RecordOf(ev events.Event) (EventRecord, error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return EventRecord{}, fmt.Errorf("encode %s payload: %w", ev.Type, err)
	}
	rec := EventRecord{
		EventID:       ev.ID,
		LobbyID:       ev.LobbyID,
		Type:          string(ev.Type),
		UserID:        ev.Metadata.UserID,
		CorrelationID: ev.Metadata.CorrelationID,
		OccurredAt:    ev.Timestamp,
		Payload:       payload,
	}
	if r, ok := events.RosterOf(ev.Payload); ok {
		rec.Status = r.Status
		rec.PlayerCount = r.CurrentPlayers
	}
	return rec, nil
}

// EventLog appends event records to the lobby_events table.
type EventLog struct {
	db DBTX
}

func NewEventLog(db DBTX) *EventLog {
	return &EventLog{db: db}
}

// Record stores a single event.
func (l *EventLog) Record(ctx context.Context, ev events.Event) error {
	rec, err := RecordOf(ev)
	if err != nil {
		return err
	}
	return l.Insert(ctx, rec)
}

const insertEventRecord = `
	INSERT INTO lobby_events (id, lobby_id, event_type, user_id, correlation_id, status, player_count, occurred_at, payload)
	VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9)
	ON CONFLICT (id) DO NOTHING
	`

// Insert writes recs in one transaction. Records already stored are skipped, so
// replaying a batch is harmless.
func (l *EventLog) Insert(ctx context.Context, recs ...EventRecord) error {
	if len(recs) == 0 {
		return nil
	}
	return pgx.BeginTxFunc(ctx, l.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, r := range recs {
			payload := []byte(r.Payload)
			if len(payload) == 0 {
				payload = []byte("null")
			}
			batch.Queue(insertEventRecord,
				r.EventID, r.LobbyID, r.Type, r.UserID, r.CorrelationID,
				r.Status, r.PlayerCount, r.OccurredAt, payload,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// History returns up to limit records for a lobby, oldest first.
func (l *EventLog) History(ctx context.Context, lobbyID uuid.UUID, limit int) ([]EventRecord, error) {
	q := `
	SELECT id, lobby_id, event_type, user_id, COALESCE(correlation_id, ''), COALESCE(status, ''),
	       COALESCE(player_count, 0), occurred_at, payload
	FROM lobby_events
	WHERE lobby_id = $1
	ORDER BY occurred_at, id
	LIMIT $2
	`
	rows, err := l.db.Query(ctx, q, lobbyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var r EventRecord
		var payload []byte
		if err := rows.Scan(&r.EventID, &r.LobbyID, &r.Type, &r.UserID, &r.CorrelationID, &r.Status,
			&r.PlayerCount, &r.OccurredAt, &payload); err != nil {
			return nil, err
		}
		r.Payload = payload
		out = append(out, r)
	}
	return out, rows.Err()
}
