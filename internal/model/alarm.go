package model

import (
	"time"

	"gorm.io/gorm"
)

type Alarm struct {
	gorm.Model
	Type            string     `json:"type" gorm:"size:32;index"`
	Severity        string     `json:"severity" gorm:"size:16;index"`
	Message         string     `json:"message"`
	EmployeeID      *uint      `json:"employee_id"`
	KioskID         *uint      `json:"kiosk_id"`
	DeviceID        *string    `json:"device_id"`
	Lat             *float64   `json:"location_lat"`
	Lng             *float64   `json:"location_lng"`
	Metadata        string     `json:"metadata" gorm:"type:json"`
	IsResolved      bool       `json:"is_resolved" gorm:"default:false;index"`
	TriggeredAt     time.Time  `json:"triggered_at"`
	ResolvedAt      *time.Time `json:"resolved_at"`
	ResolvedBy      *uint      `json:"resolved_by"`
	Resolution      string     `json:"resolution"`
	ResolutionNotes string     `json:"resolution_notes"`

	Employee *Employee `json:"employee,omitempty" gorm:"foreignKey:EmployeeID"`
	Kiosk    *Kiosk    `json:"kiosk,omitempty" gorm:"foreignKey:KioskID"`
}
