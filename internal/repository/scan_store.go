package repository

import (
	"context"
	"time"

	"kiosk-attendance-backend/internal/model"

	"gorm.io/gorm"
)

// ScanStore bundles the lookups and writes a single scan verification needs.
type ScanStore struct {
	QRCodes    QRCodeRepository
	Kiosks     KioskRepository
	Employees  EmployeeRepository
	Attendance AttendanceRepository
	Alarms     AlarmRepository
	AuditLogs  AuditLogRepository
}

func NewScanStore(db *gorm.DB) *ScanStore {
	return &ScanStore{
		QRCodes:    NewQRCodeRepository(db),
		Kiosks:     NewKioskRepository(db),
		Employees:  NewEmployeeRepository(db),
		Attendance: NewAttendanceRepository(db),
		Alarms:     NewAlarmRepository(db),
		AuditLogs:  NewAuditLogRepository(db),
	}
}

func (s *ScanStore) FindQRCode(ctx context.Context, codeID string) (*model.QRCode, error) {
	return s.QRCodes.FindByCodeID(ctx, codeID)
}

func (s *ScanStore) FindKiosk(ctx context.Context, id uint) (*model.Kiosk, error) {
	return s.Kiosks.FindByID(ctx, id)
}

func (s *ScanStore) FindEmployeeByCode(ctx context.Context, code string) (*model.Employee, error) {
	return s.Employees.FindByCode(ctx, code)
}

func (s *ScanStore) RecentScans(ctx context.Context, employeeID uint, since time.Time) ([]model.Attendance, error) {
	return s.Attendance.RecentScans(ctx, employeeID, since)
}

func (s *ScanStore) MostRecentScan(ctx context.Context, employeeID uint) (*model.Attendance, error) {
	return s.Attendance.MostRecent(ctx, employeeID)
}

func (s *ScanStore) CreateAttendance(ctx context.Context, a *model.Attendance) error {
	return s.Attendance.Create(ctx, a)
}

func (s *ScanStore) CreateAlarm(ctx context.Context, a *model.Alarm) error {
	return s.Alarms.Create(ctx, a)
}

func (s *ScanStore) CreateAuditLog(ctx context.Context, entry *model.AuditLog) error {
	return s.AuditLogs.Create(ctx, entry)
}
