// Package kafka implements the engine's messaging edge: a transactional
// outbox written inside business transactions, a relay worker that drains it
// to Kafka, and a consumer wrapper for inbound topics.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OutboxPending = "PENDING"
	OutboxSent    = "SENT"
	OutboxFailed  = "FAILED"
)

// OutboxMessage is one event row committed atomically with the state change
// it describes. The relay worker owns the PENDING→SENT/FAILED transitions;
// FAILED rows are retried with backoff, never dropped.
type OutboxMessage struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Topic       string    `gorm:"type:varchar(120);not null"`
	Key         string    `gorm:"type:varchar(120);not null"`
	Payload     []byte    `gorm:"type:jsonb;not null"`
	Status      string    `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Attempts    int       `gorm:"not null;default:0"`
	LastError   *string   `gorm:"type:text"`
	NextRetryAt *time.Time
	CreatedAt   time.Time `gorm:"index"`
	SentAt      *time.Time
}

func (OutboxMessage) TableName() string {
	return "outbox_messages"
}

// NewOutboxMessage marshals payload and builds a pending row keyed for
// partition affinity (same key, same partition, ordered delivery).
func NewOutboxMessage(topic, key string, payload any) (*OutboxMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxMessage{
		ID:      uuid.New(),
		Topic:   topic,
		Key:     key,
		Payload: body,
		Status:  OutboxPending,
	}, nil
}

type OutboxRepository interface {
	WithTx(tx *gorm.DB) OutboxRepository

	Enqueue(ctx context.Context, msg *OutboxMessage) error

	// FetchPending returns messages due for delivery: PENDING rows plus
	// FAILED rows whose retry backoff has elapsed.
	FetchPending(ctx context.Context, limit int) ([]OutboxMessage, error)

	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error

	// MarkFailed records the error and schedules the next retry; the row
	// stays eligible for FetchPending once the backoff passes.
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
}

type outboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) WithTx(tx *gorm.DB) OutboxRepository {
	return &outboxRepository{db: tx}
}

func (r *outboxRepository) Enqueue(ctx context.Context, msg *OutboxMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *outboxRepository) FetchPending(ctx context.Context, limit int) ([]OutboxMessage, error) {
	var messages []OutboxMessage
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{OutboxPending, OutboxFailed}).
		Where("next_retry_at IS NULL OR next_retry_at <= ?", time.Now().UTC()).
		Order("created_at ASC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (r *outboxRepository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     OutboxSent,
			"sent_at":    sentAt,
			"last_error": nil,
		}).Error
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	return r.db.WithContext(ctx).
		Model(&OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        OutboxFailed,
			"attempts":      gorm.Expr("attempts + 1"),
			"last_error":    lastError,
			"next_retry_at": gorm.Expr("NOW() + (LEAST(attempts + 1, 10) * INTERVAL '15 seconds')"),
		}).Error
}
