package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"kiosk-attendance-backend/internal/alarm"
	"kiosk-attendance-backend/internal/credential"
	"kiosk-attendance-backend/internal/geofence"
	"kiosk-attendance-backend/internal/lock"
	"kiosk-attendance-backend/internal/model"
	"kiosk-attendance-backend/internal/rateguard"
	"kiosk-attendance-backend/internal/repository"
	"kiosk-attendance-backend/internal/spoofing"
)

// ScanStore is what one scan verification reads and writes. Lookups return
// repository.ErrNotFound for missing rows; failures wrapping
// repository.ErrTransient are safe to retry.
type ScanStore interface {
	FindQRCode(ctx context.Context, codeID string) (*model.QRCode, error)
	FindKiosk(ctx context.Context, id uint) (*model.Kiosk, error)
	FindEmployeeByCode(ctx context.Context, code string) (*model.Employee, error)
	RecentScans(ctx context.Context, employeeID uint, since time.Time) ([]model.Attendance, error)
	MostRecentScan(ctx context.Context, employeeID uint) (*model.Attendance, error)
	CreateAttendance(ctx context.Context, a *model.Attendance) error
	CreateAlarm(ctx context.Context, a *model.Alarm) error
	CreateAuditLog(ctx context.Context, entry *model.AuditLog) error
}

// ScanState is the furthest point a scan reached in verification.
type ScanState uint8

const (
	StateReceived ScanState = iota
	StateCoordValidated
	StateCredentialDecoded
	StateCredentialFound
	StateCredentialActive
	StateKioskFound
	StateGeofenceOK
	StateEmployeeFound
	StateRateOK
	StateAccepted
	StateRejected
)

func (s ScanState) String() string {
	switch s {
	case StateReceived:
		return "RECEIVED"
	case StateCoordValidated:
		return "COORD_VALIDATED"
	case StateCredentialDecoded:
		return "CREDENTIAL_DECODED"
	case StateCredentialFound:
		return "CREDENTIAL_FOUND"
	case StateCredentialActive:
		return "CREDENTIAL_ACTIVE"
	case StateKioskFound:
		return "KIOSK_FOUND"
	case StateGeofenceOK:
		return "GEOFENCE_OK"
	case StateEmployeeFound:
		return "EMPLOYEE_FOUND"
	case StateRateOK:
		return "RATE_OK"
	case StateAccepted:
		return "ACCEPTED"
	case StateRejected:
		return "REJECTED"
	}
	return "UNKNOWN"
}

// ScanRequest is one kiosk submission. Lat/Lng are nil when absent or not numeric.
// The scan time always comes from the server clock.
type ScanRequest struct {
	Credential   string
	EmployeeHint string
	Lat          *float64
	Lng          *float64
	DeviceID     *string
	DeviceInfo   map[string]any
	IPAddress    string
}

type ScanRejection struct {
	Kind           ErrorKind
	Code           string
	Message        string
	AlarmTriggered bool
	AlarmID        uint
	Distance       *float64
	AllowedRadius  *float64
	ScanCount      *int
	Retryable      bool
}

func (r *ScanRejection) Status() int {
	return r.Kind.HTTPStatus()
}

// ScanOutcome is exactly one of Record (accepted) or Rejection.
type ScanOutcome struct {
	Record     *model.Attendance
	Rejection  *ScanRejection
	FinalState ScanState
	// LastPassed is the last state reached before a rejection.
	LastPassed ScanState
	// SpoofingAlarmID is set when the advisory spoofing check raised an alarm on an accepted scan.
	SpoofingAlarmID uint
}

func (o ScanOutcome) Accepted() bool {
	return o.Record != nil && o.Rejection == nil
}

// ScanPolicy holds the tunable thresholds of verification.
type ScanPolicy struct {
	Windows           TimeWindows
	RateWindowMinutes int
	RateMaxScans      int
	MaxSpeedKmh       float64
}

func DefaultScanPolicy() ScanPolicy {
	return ScanPolicy{
		Windows:           DefaultTimeWindows(),
		RateWindowMinutes: rateguard.DefaultWindowMinutes,
		RateMaxScans:      rateguard.DefaultMaxScans,
		MaxSpeedKmh:       spoofing.DefaultMaxSpeedKmh,
	}
}

type ScanUsecase struct {
	store    ScanStore
	codec    *credential.Codec
	reporter *alarm.Reporter
	guard    *rateguard.Guard
	detector *spoofing.Detector
	locker   lock.EmployeeLocker
	windows  TimeWindows
	clock    Clock
	logger   *zap.Logger
}

func NewScanUsecase(store ScanStore, codec *credential.Codec, locker lock.EmployeeLocker, clock Clock, policy ScanPolicy, logger *zap.Logger) *ScanUsecase {
	if locker == nil {
		locker = lock.Noop{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &ScanUsecase{
		store:    store,
		codec:    codec,
		reporter: alarm.NewReporter(store, store, logger).WithClock(clock.Now),
		guard:    rateguard.NewGuard(store, policy.RateWindowMinutes, policy.RateMaxScans),
		detector: spoofing.NewDetector(policy.MaxSpeedKmh),
		locker:   locker,
		windows:  policy.Windows,
		clock:    clock,
		logger:   logger,
	}
}

// scanRun carries the values resolved so far for one submission.
type scanRun struct {
	req      ScanRequest
	now      time.Time
	state    ScanState
	payload  *credential.Payload
	qr       *model.QRCode
	kiosk    *model.Kiosk
	employee *model.Employee
	// employeeErr keeps a failed best-effort lookup so the employee check can tell
	// a missing employee from an unavailable store.
	employeeErr error
	distance    float64
}

func (s *scanRun) employeeID() *uint {
	if s.employee == nil {
		return nil
	}
	id := s.employee.ID
	return &id
}

func (s *scanRun) kioskID() *uint {
	if s.kiosk == nil {
		return nil
	}
	id := s.kiosk.ID
	return &id
}

func (s *scanRun) kioskRef() string {
	if s.kiosk != nil {
		return strconv.FormatUint(uint64(s.kiosk.ID), 10)
	}
	if s.payload != nil {
		return s.payload.KioskID
	}
	return ""
}

func (s *scanRun) employeeCode() string {
	if s.employee != nil {
		return s.employee.EmployeeCode
	}
	if s.payload != nil && s.payload.EmployeeID != "" {
		return s.payload.EmployeeID
	}
	return s.req.EmployeeHint
}

func (s *scanRun) employeeName() string {
	if s.employee != nil {
		return s.employee.Name
	}
	return s.employeeCode()
}

// Submit runs one scan through verification. It never panics and never returns
// an error: every failure is a Rejection on the outcome.
func (u *ScanUsecase) Submit(ctx context.Context, req ScanRequest) ScanOutcome {
	run := &scanRun{req: req, now: u.clock.Now(), state: StateReceived}

	outcome := u.verify(ctx, run)
	if outcome.Rejection != nil {
		u.logger.Info("Scan rejected",
			zap.String("code", outcome.Rejection.Code),
			zap.String("last_state", run.state.String()),
			zap.Bool("alarm_triggered", outcome.Rejection.AlarmTriggered),
			zap.String("employee_code", run.employeeCode()),
			zap.String("kiosk", run.kioskRef()),
		)
	}
	return outcome
}

func (u *ScanUsecase) reject(run *scanRun, kind ErrorKind, code, msg string) ScanOutcome {
	return ScanOutcome{
		Rejection:  &ScanRejection{Kind: kind, Code: code, Message: msg},
		FinalState: StateRejected,
		LastPassed: run.state,
	}
}

// storeFailure turns a store error into a 500 rejection; transient errors are marked retryable.
func (u *ScanUsecase) storeFailure(run *scanRun, op string, err error) ScanOutcome {
	u.logger.Error("Scan store failure",
		zap.String("op", op),
		zap.String("state", run.state.String()),
		zap.Error(err),
	)
	if repository.IsTransient(err) {
		out := u.reject(run, KindTransientStore, CodeStoreUnavailable, "Attendance service temporarily unavailable, please retry")
		out.Rejection.Retryable = true
		return out
	}
	return u.reject(run, KindInternal, CodeInternal, "Failed to process scan")
}

// rejectWithAlarm raises the alarm, then rejects. A failed alarm write replaces
// the rejection with ALARM_NOT_RECORDED.
func (u *ScanUsecase) rejectWithAlarm(ctx context.Context, run *scanRun, kind ErrorKind, code, msg string, d alarm.Data) ScanOutcome {
	a, err := u.reporter.Raise(ctx, d)
	if err != nil {
		return u.reject(run, KindInternal, CodeAlarmNotRecorded, "Failed to record security alarm")
	}
	out := u.reject(run, kind, code, msg)
	out.Rejection.AlarmTriggered = true
	out.Rejection.AlarmID = a.ID
	return out
}

func (u *ScanUsecase) alarmData(run *scanRun, t alarm.Type) alarm.Data {
	return alarm.Data{
		Type:       t,
		EmployeeID: run.employeeID(),
		KioskID:    run.kioskID(),
		DeviceID:   run.req.DeviceID,
		Lat:        run.req.Lat,
		Lng:        run.req.Lng,
		Context: alarm.MessageContext{
			KioskID:      run.kioskRef(),
			EmployeeName: run.employeeName(),
			EmployeeID:   run.employeeCode(),
		},
	}
}

func (u *ScanUsecase) verify(ctx context.Context, run *scanRun) ScanOutcome {
	req := run.req

	// 1. Coordinates
	if req.Lat == nil || req.Lng == nil || !geofence.ValidCoordinates(*req.Lat, *req.Lng) {
		d := u.alarmData(run, alarm.GPSSpoofing)
		d.Severity = alarm.SeverityHigh
		d.Context.Reason = "Invalid coordinates"
		d.Metadata = map[string]any{"lat": req.Lat, "lng": req.Lng}
		return u.rejectWithAlarm(ctx, run, KindValidation, CodeInvalidCoordinates, "Invalid GPS coordinates", d)
	}
	run.state = StateCoordValidated
	lat, lng := *req.Lat, *req.Lng

	// 2. Decrypt and validate credential
	payload := u.codec.Decode(req.Credential)
	if !credential.ValidateStructure(payload) {
		d := u.alarmData(run, alarm.InvalidQR)
		d.Metadata = map[string]any{"reason": "decryption or structure validation failed"}
		if payload != nil {
			d.Metadata["missingFields"] = credential.MissingFields(payload)
		}
		return u.rejectWithAlarm(ctx, run, KindValidation, CodeInvalidQR, "Invalid QR code", d)
	}
	run.payload = payload
	run.state = StateCredentialDecoded

	// 3. Best-effort employee lookup; a miss is only fatal at step 8
	if code := run.employeeCode(); code != "" {
		emp, err := u.store.FindEmployeeByCode(ctx, code)
		switch {
		case err == nil:
			run.employee = emp
		case errors.Is(err, repository.ErrNotFound):
		default:
			run.employeeErr = err
			u.logger.Warn("Employee lookup failed, deferring", zap.String("employee_code", code), zap.Error(err))
		}
	}

	// 4. Credential record
	qr, err := u.store.FindQRCode(ctx, payload.ID)
	if errors.Is(err, repository.ErrNotFound) {
		d := u.alarmData(run, alarm.InvalidQR)
		d.Metadata = map[string]any{"reason": "QR code not registered", "qrCodeId": payload.ID}
		return u.rejectWithAlarm(ctx, run, KindValidation, CodeQRNotFound, "QR code not found", d)
	}
	if err != nil {
		return u.storeFailure(run, "find_qr_code", err)
	}
	run.qr = qr
	run.state = StateCredentialFound

	// 5. Revocation
	if qr.IsRevoked {
		d := u.alarmData(run, alarm.RevokedQR)
		d.Metadata = map[string]any{
			"qrCodeId":         qr.CodeID,
			"revokedAt":        qr.RevokedAt,
			"revocationReason": qr.RevocationReason,
		}
		return u.rejectWithAlarm(ctx, run, KindAuthorization, CodeQRRevoked, "This QR code has been revoked", d)
	}
	run.state = StateCredentialActive

	// 6. Kiosk
	kioskID, perr := strconv.ParseUint(payload.KioskID, 10, 64)
	if perr != nil {
		return u.reject(run, KindNotFound, CodeKioskNotFound, "Kiosk not found")
	}
	kiosk, err := u.store.FindKiosk(ctx, uint(kioskID))
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !kiosk.IsActive) {
		return u.reject(run, KindNotFound, CodeKioskNotFound, "Kiosk not found")
	}
	if err != nil {
		return u.storeFailure(run, "find_kiosk", err)
	}
	run.kiosk = kiosk
	run.state = StateKioskFound

	// 7. Geofence
	geo := geofence.Evaluate(
		geofence.Point{Lat: lat, Lng: lng},
		geofence.Point{Lat: kiosk.Lat, Lng: kiosk.Lng},
		kiosk.GeofenceRadius,
	)
	if !geo.IsWithin {
		d := u.alarmData(run, alarm.OutsideGeofence)
		d.Context.Distance = geo.ExceededBy
		d.Metadata = map[string]any{
			"distance":      geo.Distance,
			"allowedRadius": geo.Radius,
			"exceededBy":    geo.ExceededBy,
		}
		msg := fmt.Sprintf("You are %.0fm away from the kiosk, allowed %.0fm", geo.Distance, geo.Radius)
		out := u.rejectWithAlarm(ctx, run, KindPolicy, CodeOutsideGeofence, msg, d)
		if out.Rejection.Code == CodeOutsideGeofence {
			distance, radius := geo.Distance, geo.Radius
			out.Rejection.Distance = &distance
			out.Rejection.AllowedRadius = &radius
		}
		return out
	}
	run.distance = geo.Distance
	run.state = StateGeofenceOK

	// 8. Employee must exist by now
	if run.employee == nil && run.employeeErr != nil {
		return u.storeFailure(run, "find_employee", run.employeeErr)
	}
	if run.employee == nil || !run.employee.IsActive {
		return u.reject(run, KindNotFound, CodeEmployeeNotFound, "Employee not found")
	}
	run.state = StateEmployeeFound

	// Serialize the history-dependent checks and the write per employee.
	release, lerr := u.locker.Acquire(ctx, run.employee.ID)
	if lerr != nil {
		u.logger.Warn("Proceeding without scan lock", zap.Uint("employee_id", run.employee.ID), zap.Error(lerr))
	}
	defer release()

	// 9. Rate guard
	rate, err := u.guard.Check(ctx, run.employee.ID, run.now)
	if err != nil {
		return u.storeFailure(run, "recent_scans", err)
	}
	if rate.IsViolation {
		d := u.alarmData(run, alarm.MultipleScans)
		d.Context.ScanCount = rate.ScanCount
		d.Context.WindowMinutes = rate.WindowMinutes
		d.Metadata = map[string]any{
			"scanCount":     rate.ScanCount,
			"windowMinutes": rate.WindowMinutes,
			"maxScans":      rate.MaxScans,
		}
		msg := fmt.Sprintf("Too many scans: %d within %d minutes", rate.ScanCount, rate.WindowMinutes)
		out := u.rejectWithAlarm(ctx, run, KindRateLimited, CodeTooManyScans, msg, d)
		if out.Rejection.Code == CodeTooManyScans {
			count := rate.ScanCount
			out.Rejection.ScanCount = &count
		}
		return out
	}
	run.state = StateRateOK

	// 10. Spoofing, advisory only
	var spoofAlarmID uint
	prev, err := u.store.MostRecentScan(ctx, run.employee.ID)
	switch {
	case err == nil:
		verdict := u.detector.Check(
			&spoofing.Fix{Lat: prev.Lat, Lng: prev.Lng, At: prev.ScannedAt},
			spoofing.Fix{Lat: lat, Lng: lng, At: run.now},
		)
		if verdict.Suspicious {
			d := u.alarmData(run, alarm.GPSSpoofing)
			d.Context.Reason = verdict.Reason
			d.Metadata = map[string]any{
				"reason":           verdict.Reason,
				"speedKmh":         verdict.SpeedKmh,
				"distance":         verdict.DistanceMeters,
				"previousScanId":   prev.ID,
				"previousLocation": map[string]float64{"lat": prev.Lat, "lng": prev.Lng},
				"previousTime":     prev.ScannedAt,
			}
			a, aerr := u.reporter.Raise(ctx, d)
			if aerr != nil {
				return u.reject(run, KindInternal, CodeAlarmNotRecorded, "Failed to record security alarm")
			}
			spoofAlarmID = a.ID
		}
	case errors.Is(err, repository.ErrNotFound):
	default:
		u.logger.Warn("Skipping spoofing check", zap.Uint("employee_id", run.employee.ID), zap.Error(err))
	}

	// 11. Time window
	scanType, ok := u.windows.Classify(run.now)
	if !ok {
		msg := fmt.Sprintf("Scans are accepted %s (check-in) and %s (check-out)", u.windows.Checkin, u.windows.Checkout)
		return u.reject(run, KindPolicy, CodeOutsideTimeWindow, msg)
	}

	// 12. Record
	record := &model.Attendance{
		EmployeeID:       run.employee.ID,
		KioskID:          run.kiosk.ID,
		QRCodeID:         run.qr.ID,
		Type:             scanType,
		ScannedAt:        run.now,
		Lat:              lat,
		Lng:              lng,
		DeviceID:         req.DeviceID,
		DeviceInfo:       deviceInfoJSON(req.DeviceInfo),
		IsValid:          true,
		GeofenceDistance: run.distance,
	}
	if err := u.store.CreateAttendance(ctx, record); err != nil {
		return u.storeFailure(run, "create_attendance", err)
	}
	record.Employee = run.employee
	record.Kiosk = run.kiosk
	run.state = StateAccepted

	_ = u.reporter.Audit(ctx, alarm.Entry{
		Action:     model.AuditAttendanceRecorded,
		EntityType: "attendance",
		EntityID:   record.ID,
		Details: map[string]any{
			"type":             scanType,
			"employeeId":       run.employee.EmployeeCode,
			"kioskId":          run.kiosk.ID,
			"qrCodeId":         run.qr.CodeID,
			"geofenceDistance": run.distance,
		},
		IPAddress: req.IPAddress,
	})

	u.logger.Info("Attendance recorded",
		zap.Uint("attendance_id", record.ID),
		zap.String("type", scanType),
		zap.String("employee_code", run.employee.EmployeeCode),
		zap.Uint("kiosk_id", run.kiosk.ID),
		zap.Float64("distance", run.distance),
	)

	return ScanOutcome{
		Record:          record,
		FinalState:      StateAccepted,
		LastPassed:      StateAccepted,
		SpoofingAlarmID: spoofAlarmID,
	}
}

func deviceInfoJSON(info map[string]any) string {
	if len(info) == 0 {
		return "{}"
	}
	b, err := json.Marshal(info)
	if err != nil {
		return "{}"
	}
	return string(b)
}
