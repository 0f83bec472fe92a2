package repository

import (
	"context"
	"time"

	"kiosk-attendance-backend/internal/model"

	"gorm.io/gorm"
)

type QRCodeFilter struct {
	KioskID      uint
	EmployeeCode string
	IsRevoked    *bool
	Page
}

type QRCodeRepository interface {
	Create(ctx context.Context, qr *model.QRCode) error
	FindByID(ctx context.Context, id uint) (*model.QRCode, error)
	FindByCodeID(ctx context.Context, codeID string) (*model.QRCode, error)
	List(ctx context.Context, f QRCodeFilter) ([]model.QRCode, int64, error)
	Revoke(ctx context.Context, id uint, by uint, reason string, at time.Time) error
	Restore(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
}

type qrCodeRepository struct {
	db *gorm.DB
}

func NewQRCodeRepository(db *gorm.DB) QRCodeRepository {
	return &qrCodeRepository{db}
}

func (r *qrCodeRepository) Create(ctx context.Context, qr *model.QRCode) error {
	return classify(r.db.WithContext(ctx).Create(qr).Error)
}

func (r *qrCodeRepository) FindByID(ctx context.Context, id uint) (*model.QRCode, error) {
	var qr model.QRCode
	if err := r.db.WithContext(ctx).Preload("Kiosk").First(&qr, id).Error; err != nil {
		return nil, classify(err)
	}
	return &qr, nil
}

func (r *qrCodeRepository) FindByCodeID(ctx context.Context, codeID string) (*model.QRCode, error) {
	var qr model.QRCode
	if err := r.db.WithContext(ctx).Where("code_id = ?", codeID).First(&qr).Error; err != nil {
		return nil, classify(err)
	}
	return &qr, nil
}

func (r *qrCodeRepository) List(ctx context.Context, f QRCodeFilter) ([]model.QRCode, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.QRCode{})
	if f.KioskID != 0 {
		q = q.Where("kiosk_id = ?", f.KioskID)
	}
	if f.EmployeeCode != "" {
		q = q.Where("employee_code = ?", f.EmployeeCode)
	}
	if f.IsRevoked != nil {
		q = q.Where("is_revoked = ?", *f.IsRevoked)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}

	var codes []model.QRCode
	err := q.Preload("Kiosk").Order("created_at desc").Offset(f.Offset()).Limit(f.Size()).Find(&codes).Error
	return codes, total, classify(err)
}

func (r *qrCodeRepository) update(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.QRCode{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *qrCodeRepository) Revoke(ctx context.Context, id uint, by uint, reason string, at time.Time) error {
	return r.update(ctx, id, map[string]interface{}{
		"is_revoked":        true,
		"revoked_at":        at,
		"revoked_by":        by,
		"revocation_reason": reason,
	})
}

func (r *qrCodeRepository) Restore(ctx context.Context, id uint) error {
	return r.update(ctx, id, map[string]interface{}{
		"is_revoked":        false,
		"revoked_at":        nil,
		"revoked_by":        nil,
		"revocation_reason": "",
	})
}

// Delete soft-deletes the record; a deleted credential no longer resolves at scan time.
func (r *qrCodeRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.QRCode{}, id)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
