package model

import (
	"errors"

	"gorm.io/gorm"
)

var ErrInvalidRadius = errors.New("geofence radius must be greater than zero")

type Kiosk struct {
	gorm.Model
	Name           string  `json:"name" gorm:"not null"`
	Address        string  `json:"address"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	GeofenceRadius float64 `json:"geofence_radius"` // meters
	IsActive       bool    `json:"is_active" gorm:"default:true"`
}

func (k *Kiosk) Validate() error {
	if k.GeofenceRadius <= 0 {
		return ErrInvalidRadius
	}
	return nil
}

// BeforeSave keeps the radius invariant for every write path.
func (k *Kiosk) BeforeSave(tx *gorm.DB) error {
	return k.Validate()
}
