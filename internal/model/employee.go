package model

import "gorm.io/gorm"

type Employee struct {
	gorm.Model
	EmployeeCode  string `json:"employee_id" gorm:"column:employee_code;unique;not null;size:64"` // external code printed on the badge
	Name          string `json:"name"`
	ContactNumber string `json:"contact_number"`
	Department    string `json:"department"`
	IsActive      bool   `json:"is_active" gorm:"default:true"`
}
