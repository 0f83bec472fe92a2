package repository

import (
	"context"

	"kiosk-attendance-backend/internal/model"

	"gorm.io/gorm"
)

type AuditLogFilter struct {
	Action     string
	EntityType string
	EntityID   uint
	Page
}

type AuditLogRepository interface {
	Create(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, f AuditLogFilter) ([]model.AuditLog, int64, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *model.AuditLog) error {
	return classify(r.db.WithContext(ctx).Create(entry).Error)
}

func (r *auditLogRepository) List(ctx context.Context, f AuditLogFilter) ([]model.AuditLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.AuditLog{})
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != 0 {
		q = q.Where("entity_id = ?", f.EntityID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}

	var logs []model.AuditLog
	err := q.Order("created_at desc").Offset(f.Offset()).Limit(f.Size()).Find(&logs).Error
	return logs, total, classify(err)
}
