package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"kiosk-attendance-backend/internal/credential"
	"kiosk-attendance-backend/internal/geofence"
	"kiosk-attendance-backend/internal/model"
	"kiosk-attendance-backend/internal/repository"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

type memStore struct {
	mu         sync.Mutex
	qrCodes    map[string]*model.QRCode
	kiosks     map[uint]*model.Kiosk
	employees  map[string]*model.Employee
	attendance []model.Attendance
	alarms     []*model.Alarm
	audits     []*model.AuditLog
	errs       map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		qrCodes:   map[string]*model.QRCode{},
		kiosks:    map[uint]*model.Kiosk{},
		employees: map[string]*model.Employee{},
		errs:      map[string]error{},
	}
}

func (m *memStore) FindQRCode(_ context.Context, codeID string) (*model.QRCode, error) {
	if err := m.errs["FindQRCode"]; err != nil {
		return nil, err
	}
	qr, ok := m.qrCodes[codeID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return qr, nil
}

func (m *memStore) FindKiosk(_ context.Context, id uint) (*model.Kiosk, error) {
	if err := m.errs["FindKiosk"]; err != nil {
		return nil, err
	}
	k, ok := m.kiosks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return k, nil
}

func (m *memStore) FindEmployeeByCode(_ context.Context, code string) (*model.Employee, error) {
	if err := m.errs["FindEmployeeByCode"]; err != nil {
		return nil, err
	}
	e, ok := m.employees[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e, nil
}

func (m *memStore) RecentScans(_ context.Context, employeeID uint, since time.Time) ([]model.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs["RecentScans"]; err != nil {
		return nil, err
	}
	var out []model.Attendance
	for _, a := range m.attendance {
		if a.EmployeeID == employeeID && !a.ScannedAt.Before(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) MostRecentScan(_ context.Context, employeeID uint) (*model.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var mine []model.Attendance
	for _, a := range m.attendance {
		if a.EmployeeID == employeeID {
			mine = append(mine, a)
		}
	}
	if len(mine) == 0 {
		return nil, repository.ErrNotFound
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].ScannedAt.After(mine[j].ScannedAt) })
	return &mine[0], nil
}

func (m *memStore) CreateAttendance(_ context.Context, a *model.Attendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs["CreateAttendance"]; err != nil {
		return err
	}
	a.ID = uint(len(m.attendance) + 1)
	m.attendance = append(m.attendance, *a)
	return nil
}

func (m *memStore) CreateAlarm(_ context.Context, a *model.Alarm) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs["CreateAlarm"]; err != nil {
		return err
	}
	a.ID = uint(len(m.alarms) + 1)
	m.alarms = append(m.alarms, a)
	return nil
}

func (m *memStore) CreateAuditLog(_ context.Context, e *model.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs["CreateAuditLog"]; err != nil {
		return err
	}
	e.ID = uint(len(m.audits) + 1)
	m.audits = append(m.audits, e)
	return nil
}

func (m *memStore) auditActions() []string {
	var actions []string
	for _, a := range m.audits {
		actions = append(actions, a.Action)
	}
	return actions
}

type countingLocker struct {
	acquired int
	released int
	err      error
}

func (l *countingLocker) Acquire(context.Context, uint) (func(), error) {
	l.acquired++
	return func() { l.released++ }, l.err
}

const (
	kioskLat = 14.5995
	kioskLng = 120.9842
)

// north returns a latitude meters north of the kiosk center.
func north(meters float64) float64 {
	return kioskLat + meters/geofence.EarthRadius*180/math.Pi
}

func ptr[T any](v T) *T { return &v }

type fixture struct {
	store   *memStore
	clock   *fixedClock
	locker  *countingLocker
	codec   *credential.Codec
	uc      *ScanUsecase
	kiosk   *model.Kiosk
	emp     *model.Employee
	qr      *model.QRCode
	payload string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	codec, err := credential.NewCodec("test-secret")
	require.NoError(t, err)

	store := newMemStore()
	kiosk := &model.Kiosk{Model: gorm.Model{ID: 3}, Name: "Main Gate", Lat: kioskLat, Lng: kioskLng, GeofenceRadius: 30, IsActive: true}
	emp := &model.Employee{Model: gorm.Model{ID: 11}, EmployeeCode: "EMP-001", Name: "Ana Cruz", IsActive: true}
	store.kiosks[kiosk.ID] = kiosk
	store.employees[emp.EmployeeCode] = emp

	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	p := credential.Issue(strconv.FormatUint(uint64(kiosk.ID), 10), emp.EmployeeCode, "1", issued)
	encoded, err := codec.Encode(p)
	require.NoError(t, err)

	qr := &model.QRCode{Model: gorm.Model{ID: 21}, CodeID: p.ID, KioskID: kiosk.ID, EmployeeCode: emp.EmployeeCode, Signature: p.Signature}
	store.qrCodes[qr.CodeID] = qr

	clock := &fixedClock{t: time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)}
	locker := &countingLocker{}

	return &fixture{
		store:   store,
		clock:   clock,
		locker:  locker,
		codec:   codec,
		uc:      NewScanUsecase(store, codec, locker, clock, DefaultScanPolicy(), zap.NewNop()),
		kiosk:   kiosk,
		emp:     emp,
		qr:      qr,
		payload: encoded,
	}
}

func (f *fixture) request(lat, lng float64) ScanRequest {
	return ScanRequest{
		Credential: f.payload,
		Lat:        ptr(lat),
		Lng:        ptr(lng),
		DeviceID:   ptr("tablet-01"),
		DeviceInfo: map[string]any{"model": "Tab A"},
	}
}

func (f *fixture) seedScan(at time.Time, lat, lng float64) {
	f.store.attendance = append(f.store.attendance, model.Attendance{
		Model:      gorm.Model{ID: uint(len(f.store.attendance) + 100)},
		EmployeeID: f.emp.ID,
		KioskID:    f.kiosk.ID,
		Type:       model.ScanTypeCheckin,
		ScannedAt:  at,
		Lat:        lat,
		Lng:        lng,
		IsValid:    true,
	})
}

func TestSubmit_AcceptedCheckin(t *testing.T) {
	f := newFixture(t)
	f.seedScan(f.clock.t.Add(-12*time.Hour), kioskLat, kioskLng)

	out := f.uc.Submit(context.Background(), f.request(north(10), kioskLng))

	require.True(t, out.Accepted(), "rejection: %+v", out.Rejection)
	assert.Equal(t, StateAccepted, out.FinalState)
	assert.Equal(t, model.ScanTypeCheckin, out.Record.Type)
	assert.Equal(t, float64(10), out.Record.GeofenceDistance)
	assert.Equal(t, f.emp.ID, out.Record.EmployeeID)
	assert.Equal(t, f.kiosk.ID, out.Record.KioskID)
	assert.Equal(t, f.qr.ID, out.Record.QRCodeID)
	assert.True(t, out.Record.IsValid)
	assert.Equal(t, f.clock.t, out.Record.ScannedAt)
	assert.JSONEq(t, `{"model":"Tab A"}`, out.Record.DeviceInfo)
	assert.Same(t, f.emp, out.Record.Employee)
	assert.Zero(t, out.SpoofingAlarmID)

	assert.Len(t, f.store.attendance, 2)
	assert.Empty(t, f.store.alarms)
	require.Equal(t, []string{model.AuditAttendanceRecorded}, f.store.auditActions())
	assert.Nil(t, f.store.audits[0].UserID)

	assert.Equal(t, 1, f.locker.acquired)
	assert.Equal(t, 1, f.locker.released)
}

func TestSubmit_AcceptedCheckout(t *testing.T) {
	f := newFixture(t)
	f.clock.t = time.Date(2026, 3, 2, 21, 0, 0, 0, time.UTC)

	out := f.uc.Submit(context.Background(), f.request(kioskLat, kioskLng))

	require.True(t, out.Accepted())
	assert.Equal(t, model.ScanTypeCheckout, out.Record.Type)
	assert.Equal(t, float64(0), out.Record.GeofenceDistance)
}

func TestSubmit_RepeatScanWithinWindow(t *testing.T) {
	f := newFixture(t)
	f.seedScan(f.clock.t.Add(-3*time.Minute), kioskLat, kioskLng)

	first := f.uc.Submit(context.Background(), f.request(north(10), kioskLng))
	require.True(t, first.Accepted())

	second := f.uc.Submit(context.Background(), f.request(north(10), kioskLng))
	require.False(t, second.Accepted())
	assert.Equal(t, http.StatusTooManyRequests, second.Rejection.Status())
	assert.Equal(t, CodeTooManyScans, second.Rejection.Code)
	assert.True(t, second.Rejection.AlarmTriggered)
	require.NotNil(t, second.Rejection.ScanCount)
	assert.Equal(t, 2, *second.Rejection.ScanCount)
	assert.Equal(t, StateEmployeeFound, second.LastPassed)

	require.Len(t, f.store.alarms, 1)
	assert.Equal(t, "MULTIPLE_SCANS", f.store.alarms[0].Type)
	assert.Equal(t, "medium", f.store.alarms[0].Severity)
	assert.Equal(t, "Employee Ana Cruz has 2 scans within 5 minutes", f.store.alarms[0].Message)
	assert.Len(t, f.store.attendance, 2)
}

func TestSubmit_OnePriorScanInWindowIsAllowed(t *testing.T) {
	f := newFixture(t)
	f.seedScan(f.clock.t.Add(-2*time.Minute), kioskLat, kioskLng)

	out := f.uc.Submit(context.Background(), f.request(kioskLat, kioskLng))
	assert.True(t, out.Accepted())
}

func TestSubmit_RevokedCredential(t *testing.T) {
	f := newFixture(t)
	f.qr.IsRevoked = true
	f.qr.RevocationReason = "lost badge"

	out := f.uc.Submit(context.Background(), f.request(north(10), kioskLng))

	require.False(t, out.Accepted())
	assert.Equal(t, http.StatusForbidden, out.Rejection.Status())
	assert.Equal(t, CodeQRRevoked, out.Rejection.Code)
	assert.True(t, out.Rejection.AlarmTriggered)
	assert.Equal(t, StateCredentialFound, out.LastPassed)

	require.Len(t, f.store.alarms, 1)
	assert.Equal(t, "REVOKED_QR", f.store.alarms[0].Type)
	assert.Equal(t, "high", f.store.alarms[0].Severity)
	assert.Equal(t, "Revoked QR code used by employee Ana Cruz", f.store.alarms[0].Message)
	assert.Empty(t, f.store.attendance)
	assert.Equal(t, []string{model.AuditAlarmTriggered}, f.store.auditActions())
}

func TestSubmit_InvalidCoordinates(t *testing.T) {
	f := newFixture(t)

	for name, req := range map[string]ScanRequest{
		"missing lat":  {Credential: f.payload, Lng: ptr(kioskLng)},
		"lat too big":  {Credential: f.payload, Lat: ptr(91.0), Lng: ptr(kioskLng)},
		"lng too big":  {Credential: f.payload, Lat: ptr(kioskLat), Lng: ptr(-180.5)},
		"not a number": {Credential: f.payload, Lat: ptr(math.NaN()), Lng: ptr(kioskLng)},
	} {
		t.Run(name, func(t *testing.T) {
			out := f.uc.Submit(context.Background(), req)
			require.False(t, out.Accepted())
			assert.Equal(t, http.StatusBadRequest, out.Rejection.Status())
			assert.Equal(t, CodeInvalidCoordinates, out.Rejection.Code)
			assert.True(t, out.Rejection.AlarmTriggered)
			assert.Equal(t, StateReceived, out.LastPassed)
		})
	}

	require.Len(t, f.store.alarms, 4)
	for _, a := range f.store.alarms {
		assert.Equal(t, "GPS_SPOOFING", a.Type)
		assert.Equal(t, "high", a.Severity)
		assert.Equal(t, "Potential GPS spoofing detected: Invalid coordinates", a.Message)
	}
}

func TestSubmit_UndecodableCredential(t *testing.T) {
	f := newFixture(t)
	req := f.request(kioskLat, kioskLng)
	req.Credential = "not-a-credential"

	out := f.uc.Submit(context.Background(), req)

	require.False(t, out.Accepted())
	assert.Equal(t, http.StatusBadRequest, out.Rejection.Status())
	assert.Equal(t, CodeInvalidQR, out.Rejection.Code)
	require.Len(t, f.store.alarms, 1)
	assert.Equal(t, "INVALID_QR", f.store.alarms[0].Type)
	assert.Equal(t, "medium", f.store.alarms[0].Severity)
}

func TestSubmit_StructurallyIncompleteCredential(t *testing.T) {
	f := newFixture(t)
	p := credential.Issue("3", "EMP-001", "1", time.Now())
	p.Signature = ""
	encoded, err := f.codec.Encode(p)
	require.NoError(t, err)

	req := f.request(kioskLat, kioskLng)
	req.Credential = encoded
	out := f.uc.Submit(context.Background(), req)

	require.False(t, out.Accepted())
	assert.Equal(t, CodeInvalidQR, out.Rejection.Code)
	assert.Contains(t, f.store.alarms[0].Metadata, "signature")
}

func TestSubmit_UnregisteredCredential(t *testing.T) {
	f := newFixture(t)
	delete(f.store.qrCodes, f.qr.CodeID)

	out := f.uc.Submit(context.Background(), f.request(kioskLat, kioskLng))

	require.False(t, out.Accepted())
	assert.Equal(t, http.StatusBadRequest, out.Rejection.Status())
	assert.Equal(t, CodeQRNotFound, out.Rejection.Code)
	require.Len(t, f.store.alarms, 1)
	assert.Equal(t, "INVALID_QR", f.store.alarms[0].Type)
}

func TestSubmit_KioskNotFound(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		f := newFixture(t)
		delete(f.store.kiosks, f.kiosk.ID)

		out := f.uc.Submit(context.Background(), f.request(kioskLat, kioskLng))
		require.False(t, out.Accepted())
		assert.Equal(t, http.StatusNotFound, out.Rejection.Status())
		assert.Equal(t, CodeKioskNotFound, out.Rejection.Code)
		assert.False(t, out.Rejection.AlarmTriggered)
		assert.Empty(t, f.store.alarms)
	})

	t.Run("inactive", func(t *testing.T) {
		f := newFixture(t)
		f.kiosk.IsActive = false

		out := f.uc.Submit(context.Background(), f.request(kioskLat, kioskLng))
		require.False(t, out.Accepted())
		assert.Equal(t, CodeKioskNotFound, out.Rejection.Code)
	})
}

func TestSubmit_OutsideGeofence(t *testing.T) {
	f := newFixture(t)

	out := f.uc.Submit(context.Background(), f.request(north(142), kioskLng))

	require.False(t, out.Accepted())
	assert.Equal(t, http.StatusForbidden, out.Rejection.Status())
	assert.Equal(t, CodeOutsideGeofence, out.Rejection.Code)
	assert.True(t, out.Rejection.AlarmTriggered)
	require.NotNil(t, out.Rejection.Distance)
	require.NotNil(t, out.Rejection.AllowedRadius)
	assert.Equal(t, float64(142), *out.Rejection.Distance)
	assert.Equal(t, float64(30), *out.Rejection.AllowedRadius)
	assert.Equal(t, "You are 142m away from the kiosk, allowed 30m", out.Rejection.Message)

	require.Len(t, f.store.alarms, 1)
	a := f.store.alarms[0]
	assert.Equal(t, "OUTSIDE_GEOFENCE", a.Type)
	assert.Equal(t, "medium", a.Severity)
	assert.Equal(t, "Employee Ana Cruz scanned 112m outside geofence", a.Message)
	require.NotNil(t, a.KioskID)
	assert.Equal(t, f.kiosk.ID, *a.KioskID)
	assert.JSONEq(t, `{"distance":142,"allowedRadius":30,"exceededBy":112}`, a.Metadata)
	assert.Empty(t, f.store.attendance)
}

func TestSubmit_EmployeeNotFound(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		f := newFixture(t)
		delete(f.store.employees, f.emp.EmployeeCode)

		out := f.uc.Submit(context.Background(), f.request(kioskLat, kioskLng))
		require.False(t, out.Accepted())
		assert.Equal(t, http.StatusNotFound, out.Rejection.Status())
		assert.Equal(t, CodeEmployeeNotFound, out.Rejection.Code)
		assert.Equal(t, StateGeofenceOK, out.LastPassed)
		assert.Empty(t, f.store.alarms)
	})

	t.Run("inactive", func(t *testing.T) {
		f := newFixture(t)
		f.emp.IsActive = false

		out := f.uc.Submit(context.Background(), f.request(kioskLat, kioskLng))
		require.False(t, out.Accepted())
		assert.Equal(t, CodeEmployeeNotFound, out.Rejection.Code)
	})

	t.Run("lookup unavailable", func(t *testing.T) {
		f := newFixture(t)
		f.store.errs["FindEmployeeByCode"] = fmt.Errorf("%w: i/o timeout", repository.ErrTransient)

		out := f.uc.Submit(context.Background(), f.request(kioskLat, kioskLng))
		require.False(t, out.Accepted())
		assert.Equal(t, http.StatusInternalServerError, out.Rejection.Status())
		assert.Equal(t, CodeStoreUnavailable, out.Rejection.Code)
		assert.True(t, out.Rejection.Retryable)
	})
}

func TestSubmit_SpoofingIsAdvisory(t *testing.T) {
	f := newFixture(t)
	// ~157 km away ten minutes ago
	f.seedScan(f.clock.t.Add(-10*time.Minute), kioskLat+1, kioskLng+1)

	out := f.uc.Submit(context.Background(), f.request(kioskLat, kioskLng))

	require.True(t, out.Accepted(), "rejection: %+v", out.Rejection)
	assert.NotZero(t, out.SpoofingAlarmID)
	require.Len(t, f.store.alarms, 1)
	a := f.store.alarms[0]
	assert.Equal(t, "GPS_SPOOFING", a.Type)
	assert.Equal(t, "critical", a.Severity)
	assert.Contains(t, a.Message, "Unrealistic movement speed")
	assert.Equal(t, []string{model.AuditAlarmTriggered, model.AuditAttendanceRecorded}, f.store.auditActions())
}

func TestSubmit_OutsideTimeWindow(t *testing.T) {
	f := newFixture(t)
	f.clock.t = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	out := f.uc.Submit(context.Background(), f.request(kioskLat, kioskLng))

	require.False(t, out.Accepted())
	assert.Equal(t, http.StatusForbidden, out.Rejection.Status())
	assert.Equal(t, CodeOutsideTimeWindow, out.Rejection.Code)
	assert.False(t, out.Rejection.AlarmTriggered)
	assert.Equal(t, StateRateOK, out.LastPassed)
	assert.Empty(t, f.store.attendance)
	assert.Empty(t, f.store.alarms)
}

func TestSubmit_AlarmPersistFailureIsHard(t *testing.T) {
	f := newFixture(t)
	f.qr.IsRevoked = true
	f.store.errs["CreateAlarm"] = errors.New("disk full")

	out := f.uc.Submit(context.Background(), f.request(kioskLat, kioskLng))

	require.False(t, out.Accepted())
	assert.Equal(t, http.StatusInternalServerError, out.Rejection.Status())
	assert.Equal(t, CodeAlarmNotRecorded, out.Rejection.Code)
	assert.False(t, out.Rejection.AlarmTriggered)
}

func TestSubmit_AuditFailureDoesNotAbort(t *testing.T) {
	f := newFixture(t)
	f.store.errs["CreateAuditLog"] = errors.New("audit table locked")

	out := f.uc.Submit(context.Background(), f.request(kioskLat, kioskLng))

	require.True(t, out.Accepted())
	assert.Len(t, f.store.attendance, 1)
}

func TestSubmit_StoreFailures(t *testing.T) {
	t.Run("transient write", func(t *testing.T) {
		f := newFixture(t)
		f.store.errs["CreateAttendance"] = fmt.Errorf("%w: bad connection", repository.ErrTransient)

		out := f.uc.Submit(context.Background(), f.request(kioskLat, kioskLng))
		require.False(t, out.Accepted())
		assert.Equal(t, CodeStoreUnavailable, out.Rejection.Code)
		assert.True(t, out.Rejection.Retryable)
		assert.Equal(t, 1, f.locker.released)
	})

	t.Run("permanent read", func(t *testing.T) {
		f := newFixture(t)
		f.store.errs["FindQRCode"] = errors.New("unknown column")

		out := f.uc.Submit(context.Background(), f.request(kioskLat, kioskLng))
		require.False(t, out.Accepted())
		assert.Equal(t, http.StatusInternalServerError, out.Rejection.Status())
		assert.Equal(t, CodeInternal, out.Rejection.Code)
		assert.False(t, out.Rejection.Retryable)
	})

	t.Run("rate query", func(t *testing.T) {
		f := newFixture(t)
		f.store.errs["RecentScans"] = fmt.Errorf("%w: timeout", repository.ErrTransient)

		out := f.uc.Submit(context.Background(), f.request(kioskLat, kioskLng))
		require.False(t, out.Accepted())
		assert.Equal(t, CodeStoreUnavailable, out.Rejection.Code)
	})
}

func TestSubmit_LockFailureStillRecords(t *testing.T) {
	f := newFixture(t)
	f.locker.err = errors.New("redis down")

	out := f.uc.Submit(context.Background(), f.request(kioskLat, kioskLng))

	require.True(t, out.Accepted())
	assert.Equal(t, 1, f.locker.released)
}

func TestSubmit_EmployeeHintFallback(t *testing.T) {
	f := newFixture(t)
	other := &model.Employee{Model: gorm.Model{ID: 12}, EmployeeCode: "EMP-002", Name: "Ben", IsActive: true}
	f.store.employees[other.EmployeeCode] = other

	req := f.request(kioskLat, kioskLng)
	req.EmployeeHint = other.EmployeeCode

	out := f.uc.Submit(context.Background(), req)

	require.True(t, out.Accepted())
	assert.Equal(t, f.emp.ID, out.Record.EmployeeID, "embedded employee wins over the hint")
}

func TestScanState_String(t *testing.T) {
	assert.Equal(t, "RECEIVED", StateReceived.String())
	assert.Equal(t, "ACCEPTED", StateAccepted.String())
	assert.Equal(t, "REJECTED", StateRejected.String())
}

func TestErrorKind_HTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, KindValidation.HTTPStatus())
	assert.Equal(t, http.StatusForbidden, KindAuthorization.HTTPStatus())
	assert.Equal(t, http.StatusNotFound, KindNotFound.HTTPStatus())
	assert.Equal(t, http.StatusForbidden, KindPolicy.HTTPStatus())
	assert.Equal(t, http.StatusTooManyRequests, KindRateLimited.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, KindTransientStore.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, KindInternal.HTTPStatus())
}
