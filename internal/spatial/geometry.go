package spatial

import (
	"math"

	"github.com/golang/geo/s1"
)

// Point represents a 2D point with latitude and longitude
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// TurnAngle returns the angle at vertex p2 between the rays p2->p1 and
// p2->p3, in radians, normalized into [0, 2π). Bearings are taken on raw
// degree deltas, so the angle is only meaningful for short segments.
//
// Travelling p1->p2->p3, a straight line gives π, a left turn gives about
// 3π/2 and a right turn about π/2.
func TurnAngle(p1, p2, p3 Point) s1.Angle {
	out := math.Atan2(p3.Lat-p2.Lat, p3.Lon-p2.Lon)
	back := math.Atan2(p1.Lat-p2.Lat, p1.Lon-p2.Lon)
	return normalizeAngle(s1.Angle(out - back))
}

// normalizeAngle wraps a into [0, 2π).
func normalizeAngle(a s1.Angle) s1.Angle {
	r := math.Mod(a.Radians(), 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	// math.Mod can round a tiny negative value up to exactly 2π.
	if r >= 2*math.Pi {
		r = 0
	}
	return s1.Angle(r)
}
