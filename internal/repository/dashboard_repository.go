package repository

import (
	"context"
	"time"

	"kiosk-attendance-backend/internal/model"

	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalEmployees   int64            `json:"total_employees"`
	ActiveKiosks     int64            `json:"active_kiosks"`
	TodayScans       int64            `json:"today_scans"`
	TodayCheckins    int64            `json:"today_checkins"`
	TodayCheckouts   int64            `json:"today_checkouts"`
	TodayInvalid     int64            `json:"today_invalid"`
	UnresolvedAlarms map[string]int64 `json:"unresolved_alarms"`
}

type DashboardRepository interface {
	GetStats(ctx context.Context, dayStart, dayEnd time.Time) (*DashboardStats, error)
}

type dashboardRepository struct {
	db         *gorm.DB
	attendance AttendanceRepository
	alarms     AlarmRepository
}

func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{
		db:         db,
		attendance: NewAttendanceRepository(db),
		alarms:     NewAlarmRepository(db),
	}
}

func (r *dashboardRepository) GetStats(ctx context.Context, dayStart, dayEnd time.Time) (*DashboardStats, error) {
	stats := &DashboardStats{}
	db := r.db.WithContext(ctx)

	// 1. Master data
	if err := db.Model(&model.Employee{}).Where("is_active = ?", true).Count(&stats.TotalEmployees).Error; err != nil {
		return nil, classify(err)
	}
	if err := db.Model(&model.Kiosk{}).Where("is_active = ?", true).Count(&stats.ActiveKiosks).Error; err != nil {
		return nil, classify(err)
	}

	// 2. Today's scans
	byType, err := r.attendance.CountByType(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	stats.TodayCheckins = byType[model.ScanTypeCheckin]
	stats.TodayCheckouts = byType[model.ScanTypeCheckout]
	stats.TodayScans = stats.TodayCheckins + stats.TodayCheckouts

	if err := db.Model(&model.Attendance{}).
		Where("scanned_at >= ? AND scanned_at < ? AND is_valid = ?", dayStart, dayEnd, false).
		Count(&stats.TodayInvalid).Error; err != nil {
		return nil, classify(err)
	}

	// 3. Open alarms
	stats.UnresolvedAlarms, err = r.alarms.CountUnresolvedBySeverity(ctx)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
