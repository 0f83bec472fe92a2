package model

import (
	"time"

	"gorm.io/gorm"
)

// QRCode is the persisted side of an issued credential. The scan pipeline only reads IsRevoked.
type QRCode struct {
	gorm.Model
	CodeID           string     `json:"code_id" gorm:"unique;not null;size:64"`
	KioskID          uint       `json:"kiosk_id"`
	EmployeeCode     string     `json:"employee_id" gorm:"size:64;index"`
	Type             string     `json:"type" gorm:"size:20;default:'attendance'"`
	EncryptedData    string     `json:"encrypted_data" gorm:"type:text"`
	CreatedBy        uint       `json:"created_by"`
	Signature        string     `json:"signature" gorm:"size:64"`
	IsRevoked        bool       `json:"is_revoked" gorm:"default:false"`
	RevokedAt        *time.Time `json:"revoked_at"`
	RevokedBy        *uint      `json:"revoked_by"`
	RevocationReason string     `json:"revocation_reason"`

	Kiosk *Kiosk `json:"kiosk,omitempty" gorm:"foreignKey:KioskID"`
}
