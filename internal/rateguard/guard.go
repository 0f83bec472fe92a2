// Package rateguard detects scan flooding by counting an employee's persisted
// scans inside a sliding window. It holds policy only; counting is delegated
// to the store.
package rateguard

import (
	"context"
	"fmt"
	"time"

	"kiosk-attendance-backend/internal/model"
)

const (
	DefaultWindowMinutes = 5
	DefaultMaxScans      = 2
)

// ScanCounter returns an employee's attendance records scanned at or after since, newest first.
type ScanCounter interface {
	RecentScans(ctx context.Context, employeeID uint, since time.Time) ([]model.Attendance, error)
}

type Result struct {
	IsViolation   bool               `json:"isViolation"`
	ScanCount     int                `json:"scanCount"`
	WindowMinutes int                `json:"windowMinutes"`
	MaxScans      int                `json:"maxScans"`
	RecentScans   []model.Attendance `json:"-"`
}

type Guard struct {
	WindowMinutes int
	MaxScans      int
	counter       ScanCounter
}

func NewGuard(counter ScanCounter, windowMinutes, maxScans int) *Guard {
	if windowMinutes <= 0 {
		windowMinutes = DefaultWindowMinutes
	}
	if maxScans <= 0 {
		maxScans = DefaultMaxScans
	}
	return &Guard{WindowMinutes: windowMinutes, MaxScans: maxScans, counter: counter}
}

// Check counts scans in [now - window, now]; scanCount >= MaxScans is a violation.
func (g *Guard) Check(ctx context.Context, employeeID uint, now time.Time) (Result, error) {
	since := now.Add(-time.Duration(g.WindowMinutes) * time.Minute)

	scans, err := g.counter.RecentScans(ctx, employeeID, since)
	if err != nil {
		return Result{}, fmt.Errorf("count recent scans: %w", err)
	}

	// records written with a future timestamp are outside the window
	inWindow := make([]model.Attendance, 0, len(scans))
	for _, s := range scans {
		if !s.ScannedAt.After(now) {
			inWindow = append(inWindow, s)
		}
	}

	return Result{
		IsViolation:   len(inWindow) >= g.MaxScans,
		ScanCount:     len(inWindow),
		WindowMinutes: g.WindowMinutes,
		MaxScans:      g.MaxScans,
		RecentScans:   inWindow,
	}, nil
}
