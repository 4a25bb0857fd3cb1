package models

import "github.com/jengzang/trip-hazards/internal/spatial"

// Sample is one recorded fix along a trip. Speed is in knots, as reported
// by the receiver.
type Sample struct {
	Lon   float64 `json:"lon"`
	Lat   float64 `json:"lat"`
	Speed float64 `json:"speed"`
}

// Point returns the sample's position.
func (s Sample) Point() spatial.Point {
	return spatial.Point{Lat: s.Lat, Lon: s.Lon}
}

// Path is the time-ordered list of samples for one trip. Consecutive samples
// are assumed to be roughly evenly spaced in time.
type Path []Sample

// Validate reports ErrEmptyInput for a path without samples.
func (p Path) Validate() error {
	if len(p) == 0 {
		return ErrEmptyInput
	}
	return nil
}

// Points returns the positions of every sample in order.
func (p Path) Points() []spatial.Point {
	pts := make([]spatial.Point, len(p))
	for i, s := range p {
		pts[i] = s.Point()
	}
	return pts
}
