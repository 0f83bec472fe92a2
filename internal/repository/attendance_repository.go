package repository

import (
	"context"
	"time"

	"kiosk-attendance-backend/internal/model"

	"gorm.io/gorm"
)

type AttendanceFilter struct {
	EmployeeID uint
	KioskID    uint
	Type       string
	From       *time.Time
	To         *time.Time
	IsValid    *bool
	Page
}

type KioskStats struct {
	TotalScans      int64 `json:"total_scans"`
	CheckIns        int64 `json:"check_ins"`
	CheckOuts       int64 `json:"check_outs"`
	UniqueEmployees int64 `json:"unique_employees"`
}

type AttendanceRepository interface {
	Create(ctx context.Context, a *model.Attendance) error
	FindByID(ctx context.Context, id uint) (*model.Attendance, error)
	RecentScans(ctx context.Context, employeeID uint, since time.Time) ([]model.Attendance, error)
	MostRecent(ctx context.Context, employeeID uint) (*model.Attendance, error)
	List(ctx context.Context, f AttendanceFilter) ([]model.Attendance, int64, error)
	Invalidate(ctx context.Context, id uint, reason string) error
	CountByType(ctx context.Context, from, to time.Time) (map[string]int64, error)
	Since(ctx context.Context, since time.Time, limit int) ([]model.Attendance, error)
	KioskStats(ctx context.Context, kioskID uint, from, to time.Time) (*KioskStats, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db}
}

func (r *attendanceRepository) Create(ctx context.Context, a *model.Attendance) error {
	return classify(r.db.WithContext(ctx).Create(a).Error)
}

func (r *attendanceRepository) FindByID(ctx context.Context, id uint) (*model.Attendance, error) {
	var a model.Attendance
	if err := r.db.WithContext(ctx).Preload("Employee").Preload("Kiosk").First(&a, id).Error; err != nil {
		return nil, classify(err)
	}
	return &a, nil
}

// RecentScans counts every persisted scan, valid or later invalidated.
func (r *attendanceRepository) RecentScans(ctx context.Context, employeeID uint, since time.Time) ([]model.Attendance, error) {
	var scans []model.Attendance
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND scanned_at >= ?", employeeID, since).
		Order("scanned_at desc").
		Find(&scans).Error
	return scans, classify(err)
}

func (r *attendanceRepository) MostRecent(ctx context.Context, employeeID uint) (*model.Attendance, error) {
	var a model.Attendance
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("scanned_at desc").
		First(&a).Error
	if err != nil {
		return nil, classify(err)
	}
	return &a, nil
}

func (r *attendanceRepository) List(ctx context.Context, f AttendanceFilter) ([]model.Attendance, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Attendance{})
	if f.EmployeeID != 0 {
		q = q.Where("employee_id = ?", f.EmployeeID)
	}
	if f.KioskID != 0 {
		q = q.Where("kiosk_id = ?", f.KioskID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.From != nil {
		q = q.Where("scanned_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("scanned_at <= ?", *f.To)
	}
	if f.IsValid != nil {
		q = q.Where("is_valid = ?", *f.IsValid)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}

	var records []model.Attendance
	err := q.Preload("Employee").Preload("Kiosk").
		Order("scanned_at desc").
		Offset(f.Offset()).Limit(f.Size()).
		Find(&records).Error
	return records, total, classify(err)
}

func (r *attendanceRepository) Invalidate(ctx context.Context, id uint, reason string) error {
	res := r.db.WithContext(ctx).Model(&model.Attendance{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_valid": false, "invalidation_reason": reason})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByType counts valid scans in [from, to) grouped by scan type.
func (r *attendanceRepository) CountByType(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	var rows []struct {
		Type  string
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&model.Attendance{}).
		Select("type, count(*) as count").
		Where("scanned_at >= ? AND scanned_at < ? AND is_valid = ?", from, to, true).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, classify(err)
	}

	counts := map[string]int64{model.ScanTypeCheckin: 0, model.ScanTypeCheckout: 0}
	for _, row := range rows {
		counts[row.Type] = row.Count
	}
	return counts, nil
}

// Since returns the newest scans at or after since, for map plotting.
func (r *attendanceRepository) Since(ctx context.Context, since time.Time, limit int) ([]model.Attendance, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	var records []model.Attendance
	err := r.db.WithContext(ctx).
		Preload("Employee").Preload("Kiosk").
		Where("scanned_at >= ?", since).
		Order("scanned_at desc").
		Limit(limit).
		Find(&records).Error
	return records, classify(err)
}

// KioskStats counts every scan at one kiosk in [from, to], valid or not.
func (r *attendanceRepository) KioskStats(ctx context.Context, kioskID uint, from, to time.Time) (*KioskStats, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&model.Attendance{}).
			Where("kiosk_id = ? AND scanned_at >= ? AND scanned_at <= ?", kioskID, from, to)
	}

	var rows []struct {
		Type  string
		Count int64
	}
	if err := base().Select("type, count(*) as count").Group("type").Scan(&rows).Error; err != nil {
		return nil, classify(err)
	}

	stats := &KioskStats{}
	for _, row := range rows {
		stats.TotalScans += row.Count
		switch row.Type {
		case model.ScanTypeCheckin:
			stats.CheckIns = row.Count
		case model.ScanTypeCheckout:
			stats.CheckOuts = row.Count
		}
	}

	if err := base().Distinct("employee_id").Count(&stats.UniqueEmployees).Error; err != nil {
		return nil, classify(err)
	}
	return stats, nil
}
