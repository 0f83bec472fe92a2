package alarm

import (
	"fmt"
	"strconv"
)

// MessageContext carries the values interpolated into alarm messages.
// Zero values render as a placeholder.
type MessageContext struct {
	KioskID       string
	EmployeeName  string
	EmployeeID    string
	Distance      float64
	ScanCount     int
	WindowMinutes int
	Reason        string
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func numOrQuestion(v float64) string {
	if v == 0 {
		return "?"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Message renders the human-readable text for an alarm of type t.
func Message(t Type, c MessageContext) string {
	employee := c.EmployeeName
	if employee == "" {
		employee = c.EmployeeID
	}

	switch t {
	case InvalidQR:
		return fmt.Sprintf("Invalid QR code scanned at kiosk %s", orUnknown(c.KioskID))
	case RevokedQR:
		return fmt.Sprintf("Revoked QR code used by employee %s", orUnknown(employee))
	case OutsideGeofence:
		return fmt.Sprintf("Employee %s scanned %sm outside geofence", orUnknown(employee), numOrQuestion(c.Distance))
	case MultipleScans:
		return fmt.Sprintf("Employee %s has %s scans within %s minutes",
			orUnknown(employee), numOrQuestion(float64(c.ScanCount)), numOrQuestion(float64(c.WindowMinutes)))
	case GPSSpoofing:
		reason := c.Reason
		if reason == "" {
			reason = "Unknown reason"
		}
		return fmt.Sprintf("Potential GPS spoofing detected: %s", reason)
	case DeviceTampering:
		return fmt.Sprintf("Device tampering detected at kiosk %s", orUnknown(c.KioskID))
	case UnknownDevice:
		return fmt.Sprintf("Unknown device attempted scan at kiosk %s", orUnknown(c.KioskID))
	}
	return fmt.Sprintf("Alarm %s", t)
}
