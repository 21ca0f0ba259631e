package audit

import (
	"context"
	"encoding/json"
	"time"

	"go-payroll/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Entry is one immutable audit record. Before/After carry full entity
// snapshots so a compensation revision or a run transition can be replayed
// from the log alone.
type Entry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index"`
	EntityType string    `gorm:"type:varchar(60);not null;index:idx_audit_entity"`
	EntityID   string    `gorm:"type:varchar(60);not null;index:idx_audit_entity"`
	Action     string    `gorm:"type:varchar(60);not null"`
	Before     []byte    `gorm:"type:jsonb"`
	After      []byte    `gorm:"type:jsonb"`
	ActorID    string    `gorm:"type:varchar(60)"`
	RequestID  string    `gorm:"type:varchar(60)"`
	CreatedAt  time.Time
}

func (Entry) TableName() string {
	return "audit_entries"
}

// Writer is the append-only audit seam. The table itself is shared with the
// wider HR platform; this engine only appends.
type Writer interface {
	Record(ctx context.Context, companyID, entityType, entityID, action string, before, after any) error
}

type writer struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewWriter(db *gorm.DB, logger *zap.Logger) Writer {
	return &writer{db: db, logger: logger.Named("audit")}
}

func (w *writer) Record(
	ctx context.Context,
	companyID, entityType, entityID, action string,
	before, after any,
) error {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return err
	}

	beforeJSON, err := marshalNullable(before)
	if err != nil {
		return err
	}
	afterJSON, err := marshalNullable(after)
	if err != nil {
		return err
	}

	entry := Entry{
		ID:         uuid.New(),
		CompanyID:  companyUUID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Before:     beforeJSON,
		After:      afterJSON,
		ActorID:    contextutil.GetActorID(ctx),
		RequestID:  contextutil.GetRequestID(ctx),
	}

	if err := w.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return err
	}

	w.logger.Info("audit event",
		zap.String("entity_type", entityType),
		zap.String("entity_id", entityID),
		zap.String("action", action),
		zap.String("actor_id", entry.ActorID),
	)

	return nil
}

func marshalNullable(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
