// Package spoofing flags physically implausible movement between two
// consecutive scans of the same employee.
package spoofing

import (
	"fmt"
	"math"
	"time"

	"kiosk-attendance-backend/internal/geofence"
)

const DefaultMaxSpeedKmh = 150.0

const ReasonInvalidSequence = "Invalid timestamp sequence"

// Fix is a located, timestamped scan.
type Fix struct {
	Lat float64
	Lng float64
	At  time.Time
}

type Verdict struct {
	Suspicious     bool    `json:"isSuspicious"`
	Reason         string  `json:"reason,omitempty"`
	SpeedKmh       float64 `json:"speed,omitempty"`
	DistanceMeters float64 `json:"distance,omitempty"`
}

type Detector struct {
	MaxSpeedKmh float64
}

func NewDetector(maxSpeedKmh float64) *Detector {
	if maxSpeedKmh <= 0 {
		maxSpeedKmh = DefaultMaxSpeedKmh
	}
	return &Detector{MaxSpeedKmh: maxSpeedKmh}
}

// Check compares curr against prev. A nil prev (first scan ever) is never suspicious.
// A non-positive elapsed time is always suspicious regardless of distance.
func (d *Detector) Check(prev *Fix, curr Fix) Verdict {
	if prev == nil || prev.At.IsZero() {
		return Verdict{}
	}

	elapsedHours := curr.At.Sub(prev.At).Hours()
	if elapsedHours <= 0 {
		return Verdict{Suspicious: true, Reason: ReasonInvalidSequence}
	}

	distance := geofence.Distance(
		geofence.Point{Lat: prev.Lat, Lng: prev.Lng},
		geofence.Point{Lat: curr.Lat, Lng: curr.Lng},
	)
	speed := (distance / 1000) / elapsedHours

	if speed > d.MaxSpeedKmh {
		return Verdict{
			Suspicious:     true,
			Reason:         fmt.Sprintf("Unrealistic movement speed detected: %.0f km/h over %.0f m", speed, distance),
			SpeedKmh:       math.Round(speed),
			DistanceMeters: math.Round(distance),
		}
	}

	return Verdict{}
}
