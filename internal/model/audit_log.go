package model

import "gorm.io/gorm"

const (
	AuditAttendanceRecorded    = "ATTENDANCE_RECORDED"
	AuditAttendanceInvalidated = "ATTENDANCE_INVALIDATED"
	AuditAlarmTriggered        = "ALARM_TRIGGERED"
	AuditAlarmResolved         = "ALARM_RESOLVED"
	AuditQRCodeGenerated       = "QR_CODE_GENERATED"
	AuditQRCodeRevoked         = "QR_CODE_REVOKED"
	AuditQRCodeRestored        = "QR_CODE_RESTORED"
	AuditQRCodeDeleted         = "QR_CODE_DELETED"
	AuditEmployeeDeleted       = "EMPLOYEE_DELETED"
	AuditKioskDeleted          = "KIOSK_DELETED"
	AuditPasswordChanged       = "PASSWORD_CHANGED"
	AuditUserLogout            = "USER_LOGOUT"
)

type AuditLog struct {
	gorm.Model
	Action     string `json:"action" gorm:"size:64;index"`
	EntityType string `json:"entity_type" gorm:"size:32"`
	EntityID   uint   `json:"entity_id"`
	UserID     *uint  `json:"user_id"` // nil for kiosk scans
	Details    string `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address"`
}
