package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

type Relay struct {
	DB        *gorm.DB
	Publisher Publisher
	Logger    *slog.Logger

	BatchSize int
	Interval  time.Duration

	// OnPublish is called once per publish attempt; metrics hook in here.
	OnPublish func(topic string, err error)
}

const (
	defaultBatchSize = 100
	defaultInterval  = 2 * time.Second
)

func (r *Relay) batchSize() int {
	if r.BatchSize <= 0 {
		return defaultBatchSize
	}
	return r.BatchSize
}

func (r *Relay) interval() time.Duration {
	if r.Interval <= 0 {
		return defaultInterval
	}
	return r.Interval
}

func (r *Relay) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Run flushes on every tick until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	l := r.logger().With("component", "outbox_relay")
	l.Info("outbox_relay_started", "batch_size", r.batchSize(), "interval", r.interval().String())

	ticker := time.NewTicker(r.interval())
	defer ticker.Stop()

	for {
		if n, err := r.Flush(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			l.Error("outbox_flush_error", "error", err)
		} else if n > 0 {
			l.Debug("outbox_flushed", "sent", n)
		}

		select {
		case <-ctx.Done():
			l.Info("outbox_relay_stopped")
			return nil
		case <-ticker.C:
		}
	}
	l.Info("outbox_relay_stopped")
	return nil
}

// Flush publishes one batch. It stops at the first failed record so later
// events of the same aggregate are never delivered ahead of it.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	l := r.logger().With("component", "outbox_relay")
	lock := r.DB.Dialector.Name() != "sqlite"
	sent := 0

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recs, err := FetchPending(ctx, tx, r.batchSize(), lock)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			pubErr := r.Publisher.Publish(ctx, rec.Topic, rec.Key, rec.Payload)
			if r.OnPublish != nil {
				r.OnPublish(rec.Topic, pubErr)
			}
			if pubErr != nil {
				l.Warn("outbox_publish_error", "event_id", rec.EventID, "topic", rec.Topic, "attempts", rec.Attempts+1, "error", pubErr)
				if err := MarkFailed(ctx, tx, rec.ID, pubErr); err != nil {
					return errors.Join(pubErr, err)
				}
				return nil
			}
			if err := MarkSent(ctx, tx, rec.ID, time.Now()); err != nil {
				return err
			}
			sent++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sent, nil
}
