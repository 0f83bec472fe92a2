package alarm

// Type is the closed set of anomaly kinds the service raises.
type Type uint8

const (
	InvalidQR Type = iota + 1
	RevokedQR
	OutsideGeofence
	MultipleScans
	GPSSpoofing
	DeviceTampering
	UnknownDevice
)

// Types lists every alarm type, in declaration order.
var Types = []Type{InvalidQR, RevokedQR, OutsideGeofence, MultipleScans, GPSSpoofing, DeviceTampering, UnknownDevice}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

func (t Type) String() string {
	switch t {
	case InvalidQR:
		return "INVALID_QR"
	case RevokedQR:
		return "REVOKED_QR"
	case OutsideGeofence:
		return "OUTSIDE_GEOFENCE"
	case MultipleScans:
		return "MULTIPLE_SCANS"
	case GPSSpoofing:
		return "GPS_SPOOFING"
	case DeviceTampering:
		return "DEVICE_TAMPERING"
	case UnknownDevice:
		return "UNKNOWN_DEVICE"
	}
	return "UNKNOWN"
}

// Severity is the default severity of the type.
func (t Type) Severity() Severity {
	switch t {
	case RevokedQR:
		return SeverityHigh
	case GPSSpoofing, DeviceTampering:
		return SeverityCritical
	case UnknownDevice:
		return SeverityLow
	case InvalidQR, OutsideGeofence, MultipleScans:
		return SeverityMedium
	}
	return SeverityMedium
}

// ParseType maps a stored/queried tag back to its Type.
func ParseType(s string) (Type, bool) {
	for _, t := range Types {
		if t.String() == s {
			return t, true
		}
	}
	return 0, false
}
