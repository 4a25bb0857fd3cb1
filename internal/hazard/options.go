package hazard

import (
	"math"

	"github.com/golang/geo/s1"

	"github.com/jengzang/trip-hazards/internal/spatial"
)

// StopOptions controls stop detection
type StopOptions struct {
	Window   int     // consecutive samples that must all be slow
	MaxSpeed float64 // highest speed still counted as stopped, in the samples' unit
}

// TurnOptions controls left-turn detection
type TurnOptions struct {
	SegmentMeters float64 // minimum length of each of the two segments
	MinAngle      s1.Angle
	MaxAngle      s1.Angle
}

// Options bundles everything Detect needs
type Options struct {
	Frame             spatial.Frame
	Stops             StopOptions
	Turns             TurnOptions
	MinHazardDistance float64 // meters; closer hazards are merged
}

// DefaultStopOptions returns the thresholds tuned on the recorded commutes.
func DefaultStopOptions() StopOptions {
	return StopOptions{
		Window:   5,
		MaxSpeed: 0.10,
	}
}

// DefaultTurnOptions returns a 35 m segment length and a band of
// [1.25π, 1.75π] around the 3π/2 of a square left turn.
func DefaultTurnOptions() TurnOptions {
	return TurnOptions{
		SegmentMeters: 35,
		MinAngle:      s1.Angle(1.25 * math.Pi),
		MaxAngle:      s1.Angle(1.75 * math.Pi),
	}
}

// DefaultOptions returns the default thresholds in the New York frame.
func DefaultOptions() Options {
	return Options{
		Frame:             spatial.NewYorkFrame,
		Stops:             DefaultStopOptions(),
		Turns:             DefaultTurnOptions(),
		MinHazardDistance: 30,
	}
}
