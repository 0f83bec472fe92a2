package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"kiosk-attendance-backend/internal/model"
	"kiosk-attendance-backend/internal/repository"
)

var testClock = stubClock{t: time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)}

// asUser stands in for Auth on admin routes.
func asUser(id uint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", float64(id))
		c.Locals("role", model.RoleAdmin)
		return c.Next()
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

type kioskRepo struct {
	kiosks map[uint]*model.Kiosk
	err    error
}

func (r *kioskRepo) Create(_ context.Context, k *model.Kiosk) error {
	if r.err != nil {
		return r.err
	}
	k.ID = uint(len(r.kiosks) + 1)
	r.kiosks[k.ID] = k
	return nil
}

func (r *kioskRepo) Update(_ context.Context, k *model.Kiosk) error {
	if r.err != nil {
		return r.err
	}
	r.kiosks[k.ID] = k
	return nil
}

func (r *kioskRepo) FindByID(_ context.Context, id uint) (*model.Kiosk, error) {
	if r.err != nil {
		return nil, r.err
	}
	k, ok := r.kiosks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return k, nil
}

func (r *kioskRepo) List(_ context.Context, isActive *bool) ([]model.Kiosk, error) {
	out := make([]model.Kiosk, 0, len(r.kiosks))
	for _, k := range r.kiosks {
		if isActive != nil && k.IsActive != *isActive {
			continue
		}
		out = append(out, *k)
	}
	return out, r.err
}

func (r *kioskRepo) Deactivate(_ context.Context, id uint) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.kiosks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.kiosks, id)
	return nil
}

type employeeRepo struct {
	employees map[uint]*model.Employee
}

func (r *employeeRepo) Create(_ context.Context, e *model.Employee) error {
	e.ID = uint(len(r.employees) + 1)
	r.employees[e.ID] = e
	return nil
}

func (r *employeeRepo) Update(_ context.Context, e *model.Employee) error {
	r.employees[e.ID] = e
	return nil
}

func (r *employeeRepo) FindByID(_ context.Context, id uint) (*model.Employee, error) {
	e, ok := r.employees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e, nil
}

func (r *employeeRepo) FindByCode(_ context.Context, code string) (*model.Employee, error) {
	for _, e := range r.employees {
		if e.EmployeeCode == code {
			return e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *employeeRepo) List(context.Context, repository.EmployeeFilter) ([]model.Employee, int64, error) {
	return nil, 0, nil
}

func (r *employeeRepo) Deactivate(_ context.Context, id uint) error {
	if _, ok := r.employees[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.employees, id)
	return nil
}

type statsCall struct {
	kioskID  uint
	from, to time.Time
}

type attendanceRepo struct {
	byDay      map[string]map[string]int64
	records    []model.Attendance
	kioskStats *repository.KioskStats
	err        error

	listed     []repository.AttendanceFilter
	statsCalls []statsCall
	since      []time.Time
}

func (r *attendanceRepo) Create(context.Context, *model.Attendance) error { return r.err }

func (r *attendanceRepo) FindByID(context.Context, uint) (*model.Attendance, error) {
	return nil, repository.ErrNotFound
}

func (r *attendanceRepo) RecentScans(context.Context, uint, time.Time) ([]model.Attendance, error) {
	return nil, r.err
}

func (r *attendanceRepo) MostRecent(context.Context, uint) (*model.Attendance, error) {
	return nil, repository.ErrNotFound
}

func (r *attendanceRepo) List(_ context.Context, f repository.AttendanceFilter) ([]model.Attendance, int64, error) {
	r.listed = append(r.listed, f)
	if r.err != nil {
		return nil, 0, r.err
	}
	return r.records, int64(len(r.records)), nil
}

func (r *attendanceRepo) Invalidate(context.Context, uint, string) error { return r.err }

func (r *attendanceRepo) CountByType(_ context.Context, from, _ time.Time) (map[string]int64, error) {
	if r.err != nil {
		return nil, r.err
	}
	counts := map[string]int64{model.ScanTypeCheckin: 0, model.ScanTypeCheckout: 0}
	for k, v := range r.byDay[from.Format("2006-01-02")] {
		counts[k] = v
	}
	return counts, nil
}

func (r *attendanceRepo) Since(_ context.Context, since time.Time, _ int) ([]model.Attendance, error) {
	r.since = append(r.since, since)
	return r.records, r.err
}

func (r *attendanceRepo) KioskStats(_ context.Context, kioskID uint, from, to time.Time) (*repository.KioskStats, error) {
	r.statsCalls = append(r.statsCalls, statsCall{kioskID: kioskID, from: from, to: to})
	if r.err != nil {
		return nil, r.err
	}
	return r.kioskStats, nil
}

type alarmRepo struct {
	alarms  map[uint]*model.Alarm
	summary *repository.AlarmSummary
	err     error

	summaryFrom, summaryTo time.Time
}

func (r *alarmRepo) Create(_ context.Context, a *model.Alarm) error {
	a.ID = uint(len(r.alarms) + 1)
	r.alarms[a.ID] = a
	return nil
}

func (r *alarmRepo) FindByID(_ context.Context, id uint) (*model.Alarm, error) {
	if r.err != nil {
		return nil, r.err
	}
	a, ok := r.alarms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

func (r *alarmRepo) List(context.Context, repository.AlarmFilter) ([]model.Alarm, int64, error) {
	return nil, 0, r.err
}

func (r *alarmRepo) CountUnresolvedBySeverity(context.Context) (map[string]int64, error) {
	return nil, r.err
}

func (r *alarmRepo) Recent(context.Context, int) ([]model.Alarm, error) { return nil, r.err }

func (r *alarmRepo) Resolve(_ context.Context, id uint, res repository.Resolution) error {
	if r.err != nil {
		return r.err
	}
	a, ok := r.alarms[id]
	if !ok || a.IsResolved {
		return repository.ErrNotFound
	}
	at, by := res.At, res.By
	a.IsResolved, a.ResolvedAt, a.ResolvedBy = true, &at, &by
	a.Resolution, a.ResolutionNotes = res.Resolution, res.Notes
	return nil
}

func (r *alarmRepo) ResolveMany(_ context.Context, ids []uint, res repository.Resolution) (int64, error) {
	var n int64
	for _, id := range ids {
		if err := r.Resolve(context.Background(), id, res); err == nil {
			n++
		}
	}
	return n, r.err
}

func (r *alarmRepo) Summary(_ context.Context, from, to time.Time) (*repository.AlarmSummary, error) {
	r.summaryFrom, r.summaryTo = from, to
	if r.err != nil {
		return nil, r.err
	}
	return r.summary, nil
}

type dashboardRepo struct {
	stats    *repository.DashboardStats
	err      error
	from, to time.Time
}

func (r *dashboardRepo) GetStats(_ context.Context, dayStart, dayEnd time.Time) (*repository.DashboardStats, error) {
	r.from, r.to = dayStart, dayEnd
	return r.stats, r.err
}

type auditRepo struct{}

func (auditRepo) Create(context.Context, *model.AuditLog) error { return nil }

func (auditRepo) List(context.Context, repository.AuditLogFilter) ([]model.AuditLog, int64, error) {
	return nil, 0, nil
}
