package usecase

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"kiosk-attendance-backend/internal/model"
)

const (
	DefaultCheckinWindow  = "06:00-08:59"
	DefaultCheckoutWindow = "20:45-21:10"
)

// Window is a range of minutes-of-day, both ends inclusive.
type Window struct {
	From int
	To   int
}

func parseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// ParseWindow parses "HH:MM-HH:MM".
func ParseWindow(s string) (Window, error) {
	from, to, ok := strings.Cut(s, "-")
	if !ok {
		return Window{}, fmt.Errorf("invalid window %q, want HH:MM-HH:MM", s)
	}
	f, err := parseClock(from)
	if err != nil {
		return Window{}, err
	}
	t, err := parseClock(to)
	if err != nil {
		return Window{}, err
	}
	if t < f {
		return Window{}, fmt.Errorf("window %q ends before it starts", s)
	}
	return Window{From: f, To: t}, nil
}

func (w Window) Contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	return m >= w.From && m <= w.To
}

func (w Window) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.From/60, w.From%60, w.To/60, w.To%60)
}

// TimeWindows decides the scan type from the local wall clock.
type TimeWindows struct {
	Checkin  Window
	Checkout Window
}

func NewTimeWindows(checkin, checkout string) (TimeWindows, error) {
	in, err := ParseWindow(checkin)
	if err != nil {
		return TimeWindows{}, fmt.Errorf("checkin window: %w", err)
	}
	out, err := ParseWindow(checkout)
	if err != nil {
		return TimeWindows{}, fmt.Errorf("checkout window: %w", err)
	}
	return TimeWindows{Checkin: in, Checkout: out}, nil
}

func DefaultTimeWindows() TimeWindows {
	w, _ := NewTimeWindows(DefaultCheckinWindow, DefaultCheckoutWindow)
	return w
}

// Classify returns the scan type for t, or false outside both windows.
func (tw TimeWindows) Classify(t time.Time) (string, bool) {
	switch {
	case tw.Checkin.Contains(t):
		return model.ScanTypeCheckin, true
	case tw.Checkout.Contains(t):
		return model.ScanTypeCheckout, true
	}
	return "", false
}
