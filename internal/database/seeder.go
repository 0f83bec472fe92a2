package database

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"kiosk-attendance-backend/internal/credential"
	"kiosk-attendance-backend/internal/model"
)

// SeededCredential is one issued QR payload, printed by the seeder binary.
type SeededCredential struct {
	EmployeeCode string
	KioskID      uint
	Payload      string
}

type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
	Now           time.Time
}

// SeedAll creates a demo admin, kiosk and employees, and issues one credential
// per employee that does not have an active one yet. It is idempotent.
func SeedAll(db *gorm.DB, codec *credential.Codec, opts SeedOptions, logger *zap.Logger) ([]SeededCredential, error) {
	// 1. Admin account
	hashed, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	admin := model.User{Name: "Administrator", Email: opts.AdminEmail, Password: string(hashed), Role: model.RoleAdmin, IsActive: true}
	if err := db.Where(model.User{Email: admin.Email}).FirstOrCreate(&admin).Error; err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	logger.Info("Seeded admin", zap.String("email", admin.Email))

	// 2. Kiosk
	kiosk := model.Kiosk{
		Name:           "Main Entrance",
		Address:        "Head Office, Ground Floor",
		Lat:            14.5995,
		Lng:            120.9842,
		GeofenceRadius: 30,
		IsActive:       true,
	}
	if err := db.Where(model.Kiosk{Name: kiosk.Name}).FirstOrCreate(&kiosk).Error; err != nil {
		return nil, fmt.Errorf("seed kiosk: %w", err)
	}

	// 3. Employees
	employees := []model.Employee{
		{EmployeeCode: "EMP-001", Name: "Ana Cruz", Department: "Operations", IsActive: true},
		{EmployeeCode: "EMP-002", Name: "Ben Santos", Department: "Finance", IsActive: true},
		{EmployeeCode: "EMP-003", Name: "Carla Reyes", Department: "Security", IsActive: true},
	}
	for i := range employees {
		if err := db.Where(model.Employee{EmployeeCode: employees[i].EmployeeCode}).FirstOrCreate(&employees[i]).Error; err != nil {
			return nil, fmt.Errorf("seed employee %s: %w", employees[i].EmployeeCode, err)
		}
	}

	// 4. Credentials
	var issued []SeededCredential
	for _, e := range employees {
		var existing int64
		db.Model(&model.QRCode{}).
			Where("employee_code = ? AND kiosk_id = ? AND is_revoked = ?", e.EmployeeCode, kiosk.ID, false).
			Count(&existing)
		if existing > 0 {
			continue
		}

		p := credential.Issue(strconv.FormatUint(uint64(kiosk.ID), 10), e.EmployeeCode, strconv.FormatUint(uint64(admin.ID), 10), opts.Now)
		encoded, err := codec.Encode(p)
		if err != nil {
			return nil, err
		}
		qr := model.QRCode{
			CodeID:        p.ID,
			KioskID:       kiosk.ID,
			EmployeeCode:  e.EmployeeCode,
			Type:          p.Type,
			EncryptedData: encoded,
			CreatedBy:     admin.ID,
			Signature:     p.Signature,
		}
		if err := db.Create(&qr).Error; err != nil {
			return nil, fmt.Errorf("seed qr code for %s: %w", e.EmployeeCode, err)
		}
		issued = append(issued, SeededCredential{EmployeeCode: e.EmployeeCode, KioskID: kiosk.ID, Payload: encoded})
	}

	logger.Info("Seeding finished",
		zap.Uint("kiosk_id", kiosk.ID),
		zap.Int("employees", len(employees)),
		zap.Int("credentials_issued", len(issued)),
	)
	return issued, nil
}
