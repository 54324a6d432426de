// Package outbox stores integration events in the same transaction as the
// business change that produced them; Relay later hands them to the broker.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Record struct {
	ID        uint64     `gorm:"primaryKey;autoIncrement"`
	EventID   string     `gorm:"type:varchar(64);uniqueIndex;not null"`
	Topic     string     `gorm:"type:varchar(128);not null"`
	Key       string     `gorm:"type:varchar(128)"`
	Payload   []byte     `gorm:"not null"`
	Attempts  int        `gorm:"not null;default:0"`
	LastError string     `gorm:"type:text"`
	CreatedAt time.Time  `gorm:"not null"`
	SentAt    *time.Time `gorm:"index"`
}

func (Record) TableName() string { return "outbox" }

// Event is the envelope every consumer of order_events, vendor_events and
// product_events receives.
type Event struct {
	EventID     string    `json:"event_id"`
	Type        string    `json:"type"`
	AggregateID string    `json:"aggregate_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Payload     any       `json:"payload"`
}

func NewEvent(eventType, aggregateID string, at time.Time, payload any) Event {
	return Event{
		EventID:     uuid.NewString(),
		Type:        eventType,
		AggregateID: aggregateID,
		OccurredAt:  at.UTC(),
		Payload:     payload,
	}
}

// Enqueue must be called with the business transaction's *gorm.DB.
func Enqueue(ctx context.Context, tx *gorm.DB, topic string, ev Event) error {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("outbox: marshal %s: %w", ev.Type, err)
	}
	rec := Record{
		EventID:   ev.EventID,
		Topic:     topic,
		Key:       ev.AggregateID,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("outbox: insert %s: %w", ev.Type, err)
	}
	return nil
}

// FetchPending returns unsent records in insertion order. When lock is set the
// rows are claimed FOR UPDATE SKIP LOCKED so concurrent relays do not overlap.
func FetchPending(ctx context.Context, db *gorm.DB, limit int, lock bool) ([]Record, error) {
	q := db.WithContext(ctx).Where("sent_at IS NULL").Order("id ASC").Limit(limit)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}
	var out []Record
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func MarkSent(ctx context.Context, db *gorm.DB, id uint64, at time.Time) error {
	return db.WithContext(ctx).Model(&Record{}).
		Where("id = ?", id).
		Updates(map[string]any{"sent_at": at.UTC(), "attempts": gorm.Expr("attempts + 1"), "last_error": ""}).Error
}

func MarkFailed(ctx context.Context, db *gorm.DB, id uint64, cause error) error {
	return db.WithContext(ctx).Model(&Record{}).
		Where("id = ?", id).
		Updates(map[string]any{"attempts": gorm.Expr("attempts + 1"), "last_error": cause.Error()}).Error
}

// Purge deletes records sent before the cutoff.
func Purge(ctx context.Context, db *gorm.DB, before time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("sent_at IS NOT NULL AND sent_at < ?", before.UTC()).Delete(&Record{})
	return res.RowsAffected, res.Error
}

func CountPending(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&Record{}).Where("sent_at IS NULL").Count(&n).Error
	return n, err
}
