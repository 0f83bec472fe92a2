package repository

import (
	"context"

	"kiosk-attendance-backend/internal/model"

	"gorm.io/gorm"
)

type KioskRepository interface {
	Create(ctx context.Context, kiosk *model.Kiosk) error
	Update(ctx context.Context, kiosk *model.Kiosk) error
	FindByID(ctx context.Context, id uint) (*model.Kiosk, error)
	List(ctx context.Context, isActive *bool) ([]model.Kiosk, error)
	Deactivate(ctx context.Context, id uint) error
}

type kioskRepository struct {
	db *gorm.DB
}

func NewKioskRepository(db *gorm.DB) KioskRepository {
	return &kioskRepository{db}
}

func (r *kioskRepository) Create(ctx context.Context, kiosk *model.Kiosk) error {
	return classify(r.db.WithContext(ctx).Create(kiosk).Error)
}

func (r *kioskRepository) Update(ctx context.Context, kiosk *model.Kiosk) error {
	return classify(r.db.WithContext(ctx).Save(kiosk).Error)
}

func (r *kioskRepository) FindByID(ctx context.Context, id uint) (*model.Kiosk, error) {
	var kiosk model.Kiosk
	if err := r.db.WithContext(ctx).First(&kiosk, id).Error; err != nil {
		return nil, classify(err)
	}
	return &kiosk, nil
}

func (r *kioskRepository) List(ctx context.Context, isActive *bool) ([]model.Kiosk, error) {
	q := r.db.WithContext(ctx).Order("name asc")
	if isActive != nil {
		q = q.Where("is_active = ?", *isActive)
	}
	var kiosks []model.Kiosk
	err := q.Find(&kiosks).Error
	return kiosks, classify(err)
}

func (r *kioskRepository) Deactivate(ctx context.Context, id uint) error {
	return deactivate(r.db.WithContext(ctx), &model.Kiosk{}, id)
}
