package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"kiosk-attendance-backend/internal/alarm"
	"kiosk-attendance-backend/internal/credential"
	"kiosk-attendance-backend/internal/model"
	"kiosk-attendance-backend/internal/repository"
)

type memQRCodes struct {
	codes map[uint]*model.QRCode
}

func (m *memQRCodes) Create(_ context.Context, qr *model.QRCode) error {
	qr.ID = uint(len(m.codes) + 1)
	m.codes[qr.ID] = qr
	return nil
}

func (m *memQRCodes) FindByID(_ context.Context, id uint) (*model.QRCode, error) {
	qr, ok := m.codes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return qr, nil
}

func (m *memQRCodes) FindByCodeID(_ context.Context, codeID string) (*model.QRCode, error) {
	for _, qr := range m.codes {
		if qr.CodeID == codeID {
			return qr, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memQRCodes) List(context.Context, repository.QRCodeFilter) ([]model.QRCode, int64, error) {
	return nil, 0, nil
}

func (m *memQRCodes) Revoke(_ context.Context, id uint, by uint, reason string, at time.Time) error {
	qr, ok := m.codes[id]
	if !ok {
		return repository.ErrNotFound
	}
	qr.IsRevoked, qr.RevokedBy, qr.RevocationReason, qr.RevokedAt = true, &by, reason, &at
	return nil
}

func (m *memQRCodes) Restore(_ context.Context, id uint) error {
	qr, ok := m.codes[id]
	if !ok {
		return repository.ErrNotFound
	}
	qr.IsRevoked, qr.RevokedBy, qr.RevocationReason, qr.RevokedAt = false, nil, "", nil
	return nil
}

func (m *memQRCodes) Delete(_ context.Context, id uint) error {
	if _, ok := m.codes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.codes, id)
	return nil
}

type memKiosks struct{ kiosks map[uint]*model.Kiosk }

func (m *memKiosks) Create(context.Context, *model.Kiosk) error { return nil }
func (m *memKiosks) Update(context.Context, *model.Kiosk) error { return nil }
func (m *memKiosks) FindByID(_ context.Context, id uint) (*model.Kiosk, error) {
	k, ok := m.kiosks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return k, nil
}
func (m *memKiosks) List(context.Context, *bool) ([]model.Kiosk, error) { return nil, nil }
func (m *memKiosks) Deactivate(context.Context, uint) error { return nil }

type memEmployees struct{ byCode map[string]*model.Employee }

func (m *memEmployees) Create(context.Context, *model.Employee) error { return nil }
func (m *memEmployees) Update(context.Context, *model.Employee) error { return nil }
func (m *memEmployees) FindByID(context.Context, uint) (*model.Employee, error) {
	return nil, repository.ErrNotFound
}
func (m *memEmployees) FindByCode(_ context.Context, code string) (*model.Employee, error) {
	e, ok := m.byCode[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e, nil
}
func (m *memEmployees) List(context.Context, repository.EmployeeFilter) ([]model.Employee, int64, error) {
	return nil, 0, nil
}
func (m *memEmployees) Deactivate(context.Context, uint) error { return nil }

func newQRCodeFixture(t *testing.T) (*QRCodeUsecase, *memQRCodes, *memStore, *credential.Codec) {
	t.Helper()
	codec, err := credential.NewCodec("test-secret")
	require.NoError(t, err)

	codes := &memQRCodes{codes: map[uint]*model.QRCode{}}
	kiosks := &memKiosks{kiosks: map[uint]*model.Kiosk{3: {Model: gorm.Model{ID: 3}, GeofenceRadius: 30, IsActive: true}}}
	employees := &memEmployees{byCode: map[string]*model.Employee{"EMP-001": {Model: gorm.Model{ID: 11}, EmployeeCode: "EMP-001", IsActive: true}}}
	audits := newMemStore()
	reporter := alarm.NewReporter(audits, audits, zap.NewNop())
	clock := &fixedClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}

	return NewQRCodeUsecase(codes, kiosks, employees, codec, reporter, clock), codes, audits, codec
}

func TestQRCodeUsecase_Generate(t *testing.T) {
	uc, codes, audits, codec := newQRCodeFixture(t)

	qr, encoded, err := uc.Generate(context.Background(), 3, "EMP-001", 1, "10.0.0.5")
	require.NoError(t, err)
	assert.Equal(t, encoded, qr.EncryptedData)
	assert.Len(t, codes.codes, 1)

	p := codec.Decode(encoded)
	require.NotNil(t, p)
	assert.True(t, credential.ValidateStructure(p))
	assert.Equal(t, qr.CodeID, p.ID)
	assert.Equal(t, "3", p.KioskID)
	assert.Equal(t, "EMP-001", p.EmployeeID)
	assert.Equal(t, "1", p.CreatedBy)
	assert.Equal(t, qr.Signature, p.Signature)

	require.Len(t, audits.audits, 1)
	assert.Equal(t, model.AuditQRCodeGenerated, audits.audits[0].Action)
	require.NotNil(t, audits.audits[0].UserID)
	assert.Equal(t, uint(1), *audits.audits[0].UserID)
}

func TestQRCodeUsecase_GenerateUnknownBinding(t *testing.T) {
	uc, _, _, _ := newQRCodeFixture(t)

	_, _, err := uc.Generate(context.Background(), 99, "EMP-001", 1, "")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, _, err = uc.Generate(context.Background(), 3, "EMP-404", 1, "")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestQRCodeUsecase_RevokeRestore(t *testing.T) {
	uc, codes, audits, _ := newQRCodeFixture(t)
	qr, _, err := uc.Generate(context.Background(), 3, "EMP-001", 1, "")
	require.NoError(t, err)

	require.NoError(t, uc.Revoke(context.Background(), qr.ID, 2, "lost badge", ""))
	assert.True(t, codes.codes[qr.ID].IsRevoked)
	assert.Equal(t, "lost badge", codes.codes[qr.ID].RevocationReason)

	require.NoError(t, uc.Restore(context.Background(), qr.ID, 2, ""))
	assert.False(t, codes.codes[qr.ID].IsRevoked)

	assert.Equal(t, []string{model.AuditQRCodeGenerated, model.AuditQRCodeRevoked, model.AuditQRCodeRestored}, audits.auditActions())
	assert.ErrorIs(t, uc.Revoke(context.Background(), 404, 2, "x", ""), repository.ErrNotFound)
}

func TestQRCodeUsecase_Delete(t *testing.T) {
	uc, codes, audits, _ := newQRCodeFixture(t)
	ctx := context.Background()

	qr, _, err := uc.Generate(ctx, 3, "EMP-001", 1, "")
	require.NoError(t, err)

	require.NoError(t, uc.Delete(ctx, qr.ID, 1, "10.0.0.5"))
	assert.Empty(t, codes.codes)
	require.Len(t, audits.audits, 2)
	assert.Equal(t, model.AuditQRCodeDeleted, audits.audits[1].Action)
	assert.Equal(t, qr.ID, audits.audits[1].EntityID)

	assert.ErrorIs(t, uc.Delete(ctx, qr.ID, 1, ""), repository.ErrNotFound)
	assert.Len(t, audits.audits, 2)
}
