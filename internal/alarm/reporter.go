// Package alarm turns detected anomalies into persisted alarm records and
// keeps the audit trail for scan decisions.
package alarm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kiosk-attendance-backend/internal/model"
)

type AlarmStore interface {
	CreateAlarm(ctx context.Context, a *model.Alarm) error
}

type AuditStore interface {
	CreateAuditLog(ctx context.Context, entry *model.AuditLog) error
}

// Data describes an anomaly to raise. An empty Severity uses the type default,
// an empty Message renders the type template from Context.
type Data struct {
	Type       Type
	Severity   Severity
	Message    string
	Context    MessageContext
	EmployeeID *uint
	KioskID    *uint
	DeviceID   *string
	Lat        *float64
	Lng        *float64
	Metadata   map[string]any
}

// Entry is one audit trail line. UserID is nil for unauthenticated kiosk scans.
type Entry struct {
	Action     string
	EntityType string
	EntityID   uint
	UserID     *uint
	Details    any
	IPAddress  string
}

type Reporter struct {
	alarms AlarmStore
	audits AuditStore
	logger *zap.Logger
	now    func() time.Time
}

func NewReporter(alarms AlarmStore, audits AuditStore, logger *zap.Logger) *Reporter {
	return &Reporter{alarms: alarms, audits: audits, logger: logger, now: time.Now}
}

// WithClock overrides the trigger timestamp source.
func (r *Reporter) WithClock(now func() time.Time) *Reporter {
	r.now = now
	return r
}

func marshalJSON(v any, fallback string) string {
	if v == nil {
		return fallback
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fallback
	}
	return string(b)
}

// Raise persists the alarm, then writes an ALARM_TRIGGERED audit entry.
// A failed alarm insert is returned to the caller; a failed audit write is not.
func (r *Reporter) Raise(ctx context.Context, d Data) (*model.Alarm, error) {
	severity := d.Severity
	if !severity.Valid() {
		severity = d.Type.Severity()
	}
	message := d.Message
	if message == "" {
		message = Message(d.Type, d.Context)
	}
	metadata := "{}"
	if len(d.Metadata) > 0 {
		metadata = marshalJSON(d.Metadata, "{}")
	}

	a := &model.Alarm{
		Type:        d.Type.String(),
		Severity:    string(severity),
		Message:     message,
		EmployeeID:  d.EmployeeID,
		KioskID:     d.KioskID,
		DeviceID:    d.DeviceID,
		Lat:         d.Lat,
		Lng:         d.Lng,
		Metadata:    metadata,
		IsResolved:  false,
		TriggeredAt: r.now(),
	}

	if err := r.alarms.CreateAlarm(ctx, a); err != nil {
		r.logger.Error("Failed to trigger alarm",
			zap.String("type", a.Type),
			zap.String("severity", a.Severity),
			zap.Error(err),
		)
		return nil, fmt.Errorf("persist %s alarm: %w", a.Type, err)
	}

	r.logger.Warn("Alarm triggered",
		zap.Uint("alarm_id", a.ID),
		zap.String("type", a.Type),
		zap.String("severity", a.Severity),
		zap.String("message", a.Message),
	)

	// best-effort, the alarm itself is already durable
	_ = r.Audit(ctx, Entry{
		Action:     model.AuditAlarmTriggered,
		EntityType: "alarm",
		EntityID:   a.ID,
		Details: map[string]any{
			"type":        a.Type,
			"severity":    a.Severity,
			"message":     a.Message,
			"employee_id": a.EmployeeID,
			"kiosk_id":    a.KioskID,
			"device_id":   a.DeviceID,
			"metadata":    json.RawMessage(a.Metadata),
		},
	})

	return a, nil
}

// Audit writes one audit entry. Failures are logged and returned so the caller
// can decide to discard them explicitly.
func (r *Reporter) Audit(ctx context.Context, e Entry) error {
	entry := &model.AuditLog{
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		UserID:     e.UserID,
		Details:    marshalJSON(e.Details, "{}"),
		IPAddress:  e.IPAddress,
	}

	if err := r.audits.CreateAuditLog(ctx, entry); err != nil {
		r.logger.Warn("Failed to create audit log",
			zap.String("action", e.Action),
			zap.String("entity_type", e.EntityType),
			zap.Uint("entity_id", e.EntityID),
			zap.Error(err),
		)
		return fmt.Errorf("write audit %s: %w", e.Action, err)
	}
	return nil
}
