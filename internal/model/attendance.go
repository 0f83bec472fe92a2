package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	ScanTypeCheckin  = "checkin"
	ScanTypeCheckout = "checkout"
)

// Attendance is one accepted scan. Type is decided server-side from the clock.
type Attendance struct {
	gorm.Model
	EmployeeID         uint      `json:"employee_id" gorm:"index:idx_attendance_employee_scanned"`
	KioskID            uint      `json:"kiosk_id"`
	QRCodeID           uint      `json:"qr_code_id"`
	Type               string    `json:"type" gorm:"size:20"`
	ScannedAt          time.Time `json:"scanned_at" gorm:"index:idx_attendance_employee_scanned"`
	Lat                float64   `json:"lat"`
	Lng                float64   `json:"lng"`
	DeviceID           *string   `json:"device_id"`
	DeviceInfo         string    `json:"device_info" gorm:"type:json"`
	IsValid            bool      `json:"is_valid" gorm:"default:true"`
	GeofenceDistance   float64   `json:"geofence_distance"`
	InvalidationReason string    `json:"invalidation_reason"`

	Employee *Employee `json:"employee,omitempty" gorm:"foreignKey:EmployeeID"`
	Kiosk    *Kiosk    `json:"kiosk,omitempty" gorm:"foreignKey:KioskID"`
}
