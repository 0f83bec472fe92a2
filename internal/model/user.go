package model

import "gorm.io/gorm"

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// User is a dashboard account (admin/operator). Kiosk scans are anonymous.
type User struct {
	gorm.Model
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"unique;not null;size:191"`
	Password string `json:"-"`
	Role     string `json:"role" gorm:"size:20;default:'operator'"`
	IsActive bool   `json:"is_active" gorm:"default:true"`
}
