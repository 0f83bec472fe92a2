package spoofing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

func TestCheck_FirstScanNeverSuspicious(t *testing.T) {
	d := NewDetector(0)
	assert.Equal(t, DefaultMaxSpeedKmh, d.MaxSpeedKmh)

	v := d.Check(nil, Fix{Lat: 14, Lng: 120, At: t0})
	assert.False(t, v.Suspicious)
	assert.Empty(t, v.Reason)
}

func TestCheck_ZeroDistance(t *testing.T) {
	d := NewDetector(150)
	prev := &Fix{Lat: 14.0, Lng: 120.0, At: t0}

	v := d.Check(prev, Fix{Lat: 14.0, Lng: 120.0, At: t0.Add(time.Second)})
	assert.False(t, v.Suspicious)
}

func TestCheck_ImpossibleSpeed(t *testing.T) {
	d := NewDetector(150)
	prev := &Fix{Lat: 14.0, Lng: 120.0, At: t0}

	v := d.Check(prev, Fix{Lat: 15.0, Lng: 121.0, At: t0.Add(time.Second)})
	assert.True(t, v.Suspicious)
	assert.Greater(t, v.SpeedKmh, d.MaxSpeedKmh)
	assert.Greater(t, v.DistanceMeters, 100000.0)
	assert.Contains(t, v.Reason, "km/h")
}

func TestCheck_PlausibleCommute(t *testing.T) {
	d := NewDetector(150)
	prev := &Fix{Lat: 14.0, Lng: 120.0, At: t0}

	// ~111 km in 13 hours
	v := d.Check(prev, Fix{Lat: 15.0, Lng: 120.0, At: t0.Add(13 * time.Hour)})
	assert.False(t, v.Suspicious)
}

func TestCheck_NonMonotonicTimestamps(t *testing.T) {
	d := NewDetector(150)
	prev := &Fix{Lat: 14.0, Lng: 120.0, At: t0}

	same := d.Check(prev, Fix{Lat: 14.0, Lng: 120.0, At: t0})
	assert.True(t, same.Suspicious)
	assert.Equal(t, ReasonInvalidSequence, same.Reason)

	earlier := d.Check(prev, Fix{Lat: 14.0, Lng: 120.0, At: t0.Add(-time.Minute)})
	assert.True(t, earlier.Suspicious)
	assert.Equal(t, ReasonInvalidSequence, earlier.Reason)
}
