// Package geofence measures great-circle distances and tests whether a scan
// location falls inside a kiosk's circular boundary.
package geofence

import "math"

// EarthRadius in meters.
const EarthRadius = 6371000.0

// approximate meters per degree of latitude
const metersPerDegree = 111320.0

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Result struct {
	IsWithin   bool    `json:"isWithin"`
	Distance   float64 `json:"distance"`   // meters, rounded
	Radius     float64 `json:"radius"`     // meters
	ExceededBy float64 `json:"exceededBy"` // meters, rounded, 0 when within
}

func toRadians(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}

// Distance returns the haversine distance between two points in meters.
func Distance(p1, p2 Point) float64 {
	dLat := toRadians(p2.Lat - p1.Lat)
	dLng := toRadians(p2.Lng - p1.Lng)

	lat1Rad := toRadians(p1.Lat)
	lat2Rad := toRadians(p2.Lat)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadius * c
}

// Evaluate checks point against a circle; the boundary counts as inside.
func Evaluate(point, center Point, radiusMeters float64) Result {
	d := Distance(point, center)

	res := Result{
		IsWithin: d <= radiusMeters,
		Distance: math.Round(d),
		Radius:   radiusMeters,
	}
	if !res.IsWithin {
		res.ExceededBy = math.Round(d - radiusMeters)
	}
	return res
}

// ValidCoordinates reports whether lat/lng are finite and within [-90,90] / [-180,180].
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	if lat < -90 || lat > 90 {
		return false
	}
	if lng < -180 || lng > 180 {
		return false
	}
	return true
}

// Polygon approximates the geofence circle with n vertices for map rendering.
func Polygon(center Point, radiusMeters float64, n int) []Point {
	if n <= 0 {
		n = 32
	}
	radiusDeg := radiusMeters / metersPerDegree
	cosLat := math.Cos(toRadians(center.Lat))

	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		angle := float64(i) / float64(n) * 2 * math.Pi
		lng := center.Lng
		if cosLat != 0 {
			lng += radiusDeg * math.Sin(angle) / cosLat
		}
		points = append(points, Point{
			Lat: center.Lat + radiusDeg*math.Cos(angle),
			Lng: lng,
		})
	}
	return points
}
