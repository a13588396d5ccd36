// cmd/historian/historian.go pops lobby event records from the Redis analytics
// queue and writes them to PostgreSQL in batches.
package main

import (
	"context"
	"errors"
	"time"

	"github.com/jason-s-yu/lobbyd/internal/cache"
	"github.com/jason-s-yu/lobbyd/internal/store"
	"github.com/sirupsen/logrus"
)

// retryDelay is how long the loop waits after a queue error before popping again.
const retryDelay = time.Second

type recordSource interface {
	Pop(ctx context.Context, timeout time.Duration) (store.EventRecord, error)
}

type recordSink interface {
	Insert(ctx context.Context, recs ...store.EventRecord) error
}

// HistorianService moves event records from the queue to the event log.
type HistorianService struct {
	source     recordSource
	sink       recordSink
	batchSize  int
	flushDelay time.Duration
	logger     logrus.FieldLogger

	batch     []store.EventRecord
	lastFlush time.Time
}

func NewHistorianService(source recordSource, sink recordSink, batchSize int, flushDelay time.Duration, logger logrus.FieldLogger) *HistorianService {
	// BLPOP treats a zero timeout as "block forever"
	if flushDelay <= 0 {
		flushDelay = 500 * time.Millisecond
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	return &HistorianService{
		source:     source,
		sink:       sink,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		logger:     logger,
		batch:      make([]store.EventRecord, 0, batchSize),
	}
}

// Run pops until ctx is done, flushing whenever the batch is full or
// flushDelay has passed since the last flush. Whatever is still buffered at
// shutdown is flushed before Run returns.
func (hs *HistorianService) Run(ctx context.Context) error {
	hs.lastFlush = time.Now()
	for {
		if ctx.Err() != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return hs.flush(shutdownCtx)
		}

		rec, err := hs.source.Pop(ctx, hs.flushDelay)
		switch {
		case err == nil:
			hs.batch = append(hs.batch, rec)
		case errors.Is(err, cache.ErrEmpty), ctx.Err() != nil:
		case errors.Is(err, cache.ErrMalformed):
			hs.logger.WithError(err).Warn("dropping malformed event record")
		default:
			hs.logger.WithError(err).Error("failed to pop from analytics queue")
			sleep(ctx, retryDelay)
		}

		if len(hs.batch) >= hs.batchSize || time.Since(hs.lastFlush) >= hs.flushDelay {
			if err := hs.flush(ctx); err != nil {
				hs.logger.WithError(err).WithField("pending", len(hs.batch)).Error("failed to flush event records; will retry")
			}
		}
	}
}

// flush writes the buffered records in one transaction. On failure they stay
// buffered for the next attempt.
func (hs *HistorianService) flush(ctx context.Context) error {
	hs.lastFlush = time.Now()
	if len(hs.batch) == 0 {
		return nil
	}
	if err := hs.sink.Insert(ctx, hs.batch...); err != nil {
		return err
	}
	hs.logger.WithField("count", len(hs.batch)).Info("flushed event records")
	hs.batch = hs.batch[:0]
	return nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
