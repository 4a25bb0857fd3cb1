package spatial

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/s2"
)

// Frame is a local planar approximation that converts degree deltas into
// meters. Its two ratios are calibrated for one region only and become
// increasingly wrong away from it.
type Frame struct {
	LatMeters float64 // meters in one degree of latitude
	LonMeters float64 // meters in one degree of longitude
}

// NewYorkFrame is calibrated for upstate New York, where the recorded
// commute trips were collected.
var NewYorkFrame = Frame{
	LatMeters: 111200,
	LonMeters: 81210,
}

// FrameAt derives a frame for the region around ref from great-circle
// distances of one degree in each direction.
func FrameAt(ref Point) Frame {
	return Frame{
		LatMeters: HaversineDistance(ref.Lat-0.5, ref.Lon, ref.Lat+0.5, ref.Lon),
		LonMeters: HaversineDistance(ref.Lat, ref.Lon-0.5, ref.Lat, ref.Lon+0.5),
	}
}

// Project maps a position onto the frame's plane, in meters.
func (f Frame) Project(p Point) r2.Point {
	return r2.Point{X: p.Lon * f.LonMeters, Y: p.Lat * f.LatMeters}
}

// Unproject is the inverse of Project.
func (f Frame) Unproject(p r2.Point) Point {
	return Point{Lat: p.Y / f.LatMeters, Lon: p.X / f.LonMeters}
}

// Distance returns the planar distance between a and b in meters.
func (f Frame) Distance(a, b Point) float64 {
	return f.Project(a).Sub(f.Project(b)).Norm()
}

// PathLength sums the distance between consecutive points.
func (f Frame) PathLength(points []Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += f.Distance(points[i-1], points[i])
	}
	return total
}

// HaversineDistance calculates the great-circle distance between two points in meters
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
)
