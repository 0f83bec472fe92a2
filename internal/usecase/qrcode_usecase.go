package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"kiosk-attendance-backend/internal/alarm"
	"kiosk-attendance-backend/internal/credential"
	"kiosk-attendance-backend/internal/model"
	"kiosk-attendance-backend/internal/repository"
)

// QRCodeUsecase issues and revokes attendance credentials.
type QRCodeUsecase struct {
	codes     repository.QRCodeRepository
	kiosks    repository.KioskRepository
	employees repository.EmployeeRepository
	codec     *credential.Codec
	reporter  *alarm.Reporter
	clock     Clock
}

func NewQRCodeUsecase(
	codes repository.QRCodeRepository,
	kiosks repository.KioskRepository,
	employees repository.EmployeeRepository,
	codec *credential.Codec,
	reporter *alarm.Reporter,
	clock Clock,
) *QRCodeUsecase {
	if clock == nil {
		clock = SystemClock{}
	}
	return &QRCodeUsecase{codes: codes, kiosks: kiosks, employees: employees, codec: codec, reporter: reporter, clock: clock}
}

// Generate issues a credential bound to one employee and kiosk, stores its record
// and returns the opaque payload to print.
func (u *QRCodeUsecase) Generate(ctx context.Context, kioskID uint, employeeCode string, adminID uint, ip string) (*model.QRCode, string, error) {
	// 1. Both ends of the binding must exist
	kiosk, err := u.kiosks.FindByID(ctx, kioskID)
	if err != nil {
		return nil, "", fmt.Errorf("kiosk %d: %w", kioskID, err)
	}
	employee, err := u.employees.FindByCode(ctx, employeeCode)
	if err != nil {
		return nil, "", fmt.Errorf("employee %s: %w", employeeCode, err)
	}

	// 2. Seal the payload
	p := credential.Issue(
		strconv.FormatUint(uint64(kiosk.ID), 10),
		employee.EmployeeCode,
		strconv.FormatUint(uint64(adminID), 10),
		u.clock.Now(),
	)
	encoded, err := u.codec.Encode(p)
	if err != nil {
		return nil, "", err
	}

	// 3. Persist the revocable record
	qr := &model.QRCode{
		CodeID:        p.ID,
		KioskID:       kiosk.ID,
		EmployeeCode:  employee.EmployeeCode,
		Type:          p.Type,
		EncryptedData: encoded,
		CreatedBy:     adminID,
		Signature:     p.Signature,
	}
	if err := u.codes.Create(ctx, qr); err != nil {
		return nil, "", err
	}
	qr.Kiosk = kiosk

	_ = u.reporter.Audit(ctx, alarm.Entry{
		Action:     model.AuditQRCodeGenerated,
		EntityType: "qr_code",
		EntityID:   qr.ID,
		UserID:     &adminID,
		Details:    map[string]any{"qrCodeId": qr.CodeID, "kioskId": kiosk.ID, "employeeId": employee.EmployeeCode},
		IPAddress:  ip,
	})

	return qr, encoded, nil
}

func (u *QRCodeUsecase) Revoke(ctx context.Context, id uint, adminID uint, reason, ip string) error {
	if err := u.codes.Revoke(ctx, id, adminID, reason, u.clock.Now()); err != nil {
		return err
	}
	_ = u.reporter.Audit(ctx, alarm.Entry{
		Action:     model.AuditQRCodeRevoked,
		EntityType: "qr_code",
		EntityID:   id,
		UserID:     &adminID,
		Details:    map[string]any{"reason": reason, "revokedAt": u.clock.Now().Format(time.RFC3339)},
		IPAddress:  ip,
	})
	return nil
}

func (u *QRCodeUsecase) Restore(ctx context.Context, id uint, adminID uint, ip string) error {
	if err := u.codes.Restore(ctx, id); err != nil {
		return err
	}
	_ = u.reporter.Audit(ctx, alarm.Entry{
		Action:     model.AuditQRCodeRestored,
		EntityType: "qr_code",
		EntityID:   id,
		UserID:     &adminID,
		IPAddress:  ip,
	})
	return nil
}

func (u *QRCodeUsecase) Delete(ctx context.Context, id uint, adminID uint, ip string) error {
	if err := u.codes.Delete(ctx, id); err != nil {
		return err
	}
	_ = u.reporter.Audit(ctx, alarm.Entry{
		Action:     model.AuditQRCodeDeleted,
		EntityType: "qr_code",
		EntityID:   id,
		UserID:     &adminID,
		IPAddress:  ip,
	})
	return nil
}
