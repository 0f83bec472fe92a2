package repository

import (
	"context"
	"time"

	"kiosk-attendance-backend/internal/model"

	"gorm.io/gorm"
)

type AlarmFilter struct {
	Type       string
	Severity   string
	IsResolved *bool
	From       *time.Time
	To         *time.Time
	Page
}

// Resolution is applied to one or more alarms by an admin.
type Resolution struct {
	By         uint
	Resolution string
	Notes      string
	At         time.Time
}

// AlarmSummary aggregates alarms triggered within a period.
type AlarmSummary struct {
	Total      int64            `json:"total"`
	Resolved   int64            `json:"resolved"`
	Unresolved int64            `json:"unresolved"`
	ByType     map[string]int64 `json:"by_type"`
	BySeverity map[string]int64 `json:"by_severity"`
}

type AlarmRepository interface {
	Create(ctx context.Context, a *model.Alarm) error
	FindByID(ctx context.Context, id uint) (*model.Alarm, error)
	List(ctx context.Context, f AlarmFilter) ([]model.Alarm, int64, error)
	CountUnresolvedBySeverity(ctx context.Context) (map[string]int64, error)
	Recent(ctx context.Context, limit int) ([]model.Alarm, error)
	Resolve(ctx context.Context, id uint, res Resolution) error
	ResolveMany(ctx context.Context, ids []uint, res Resolution) (int64, error)
	Summary(ctx context.Context, from, to time.Time) (*AlarmSummary, error)
}

type alarmRepository struct {
	db *gorm.DB
}

func NewAlarmRepository(db *gorm.DB) AlarmRepository {
	return &alarmRepository{db}
}

func (r *alarmRepository) Create(ctx context.Context, a *model.Alarm) error {
	return classify(r.db.WithContext(ctx).Create(a).Error)
}

func (r *alarmRepository) FindByID(ctx context.Context, id uint) (*model.Alarm, error) {
	var a model.Alarm
	if err := r.db.WithContext(ctx).Preload("Employee").Preload("Kiosk").First(&a, id).Error; err != nil {
		return nil, classify(err)
	}
	return &a, nil
}

func (r *alarmRepository) List(ctx context.Context, f AlarmFilter) ([]model.Alarm, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Alarm{})
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Severity != "" {
		q = q.Where("severity = ?", f.Severity)
	}
	if f.IsResolved != nil {
		q = q.Where("is_resolved = ?", *f.IsResolved)
	}
	if f.From != nil {
		q = q.Where("triggered_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("triggered_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}

	var alarms []model.Alarm
	err := q.Preload("Employee").Preload("Kiosk").
		Order("triggered_at desc").
		Offset(f.Offset()).Limit(f.Size()).
		Find(&alarms).Error
	return alarms, total, classify(err)
}

func (r *alarmRepository) CountUnresolvedBySeverity(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Severity string
		Count    int64
	}
	err := r.db.WithContext(ctx).Model(&model.Alarm{}).
		Select("severity, count(*) as count").
		Where("is_resolved = ?", false).
		Group("severity").
		Scan(&rows).Error
	if err != nil {
		return nil, classify(err)
	}

	counts := map[string]int64{"low": 0, "medium": 0, "high": 0, "critical": 0}
	for _, row := range rows {
		counts[row.Severity] = row.Count
	}
	return counts, nil
}

func (r *alarmRepository) Recent(ctx context.Context, limit int) ([]model.Alarm, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var alarms []model.Alarm
	err := r.db.WithContext(ctx).
		Preload("Employee").Preload("Kiosk").
		Order("triggered_at desc").
		Limit(limit).
		Find(&alarms).Error
	return alarms, classify(err)
}

func resolutionFields(res Resolution) map[string]interface{} {
	return map[string]interface{}{
		"is_resolved":      true,
		"resolved_at":      res.At,
		"resolved_by":      res.By,
		"resolution":       res.Resolution,
		"resolution_notes": res.Notes,
	}
}

// Resolve marks one unresolved alarm; an already-resolved or missing alarm is ErrNotFound.
func (r *alarmRepository) Resolve(ctx context.Context, id uint, res Resolution) error {
	tx := r.db.WithContext(ctx).Model(&model.Alarm{}).
		Where("id = ? AND is_resolved = ?", id, false).
		Updates(resolutionFields(res))
	if tx.Error != nil {
		return classify(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *alarmRepository) ResolveMany(ctx context.Context, ids []uint, res Resolution) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx := r.db.WithContext(ctx).Model(&model.Alarm{}).
		Where("id IN ? AND is_resolved = ?", ids, false).
		Updates(resolutionFields(res))
	return tx.RowsAffected, classify(tx.Error)
}

func (r *alarmRepository) Summary(ctx context.Context, from, to time.Time) (*AlarmSummary, error) {
	var rows []struct {
		Type       string
		Severity   string
		IsResolved bool
		Count      int64
	}
	err := r.db.WithContext(ctx).Model(&model.Alarm{}).
		Select("type, severity, is_resolved, count(*) as count").
		Where("triggered_at >= ? AND triggered_at <= ?", from, to).
		Group("type, severity, is_resolved").
		Scan(&rows).Error
	if err != nil {
		return nil, classify(err)
	}

	sum := &AlarmSummary{
		ByType:     map[string]int64{},
		BySeverity: map[string]int64{"low": 0, "medium": 0, "high": 0, "critical": 0},
	}
	for _, row := range rows {
		sum.Total += row.Count
		if row.IsResolved {
			sum.Resolved += row.Count
		} else {
			sum.Unresolved += row.Count
		}
		sum.ByType[row.Type] += row.Count
		sum.BySeverity[row.Severity] += row.Count
	}
	return sum, nil
}
