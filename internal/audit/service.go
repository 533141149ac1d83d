package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Record appends an audit entry. Best-effort: failures are logged, never
// surfaced, so an audit outage cannot fail a business transition.
func (s *Service) Record(ctx context.Context, actor, action, entityType, entityID, detail string) {
	s.RecordWithMeta(ctx, actor, action, entityType, entityID, detail, nil)
}

// RecordWithMeta attaches structured metadata to the entry.
func (s *Service) RecordWithMeta(ctx context.Context, actor, action, entityType, entityID, detail string, meta map[string]any) {
	entry := &AuditLog{
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  time.Now(),
	}
	if meta != nil {
		if raw, err := json.Marshal(meta); err == nil {
			entry.Metadata = datatypes.JSON(raw)
		}
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		s.logger.Error("failed to write audit entry",
			zap.String("actor", actor),
			zap.String("action", action),
			zap.String("entity", entityType+"/"+entityID),
			zap.Error(err))
	}
}

func (s *Service) List(ctx context.Context, filter Filter) ([]AuditLog, error) {
	var items []AuditLog
	q := s.db.WithContext(ctx).Model(&AuditLog{})
	if filter.EntityType != "" {
		q = q.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		q = q.Where("entity_id = ?", filter.EntityID)
	}
	if filter.Actor != "" {
		q = q.Where("actor = ?", filter.Actor)
	}
	if err := q.Order("created_at desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
