// Package tripcost scores recorded trips so the best of a batch can be
// picked. Lower cost is better.
package tripcost

import (
	"github.com/jengzang/trip-hazards/internal/models"
	"github.com/jengzang/trip-hazards/internal/spatial"
)

// KnotsToMPS converts a speed in knots to meters per second.
const KnotsToMPS = 0.51444

// Params weights the two cost terms. Distance and speed are in different
// units, so SpeedRatio is an empirical normalization that brings the spread
// of average speeds in line with the spread of distances.
type Params struct {
	Frame          spatial.Frame
	DistanceWeight float64
	SpeedRatio     float64
}

// DefaultParams returns weights calibrated on the recorded commutes.
// Distance was meant to count for twice as much as speed; that intent is
// carried by the ratio rather than by DistanceWeight, which stays 1.
func DefaultParams() Params {
	return Params{
		Frame:          spatial.NewYorkFrame,
		DistanceWeight: 1,
		SpeedRatio:     7865.099,
	}
}

// Score is the cost of one trip together with its inputs
type Score struct {
	Distance float64 `json:"distance_meters"`
	AvgSpeed float64 `json:"avg_speed_mps"`
	Cost     float64 `json:"cost"`
}

// Evaluate computes the cost of path:
//
//	cost = DistanceWeight*distance - SpeedRatio*avgSpeed
//
// An empty path has no average speed and fails with models.ErrEmptyInput.
func Evaluate(path models.Path, p Params) (Score, error) {
	avg, err := AverageSpeed(path)
	if err != nil {
		return Score{}, err
	}
	dist := TotalDistance(path, p.Frame)

	return Score{
		Distance: dist,
		AvgSpeed: avg,
		Cost:     p.DistanceWeight*dist - p.SpeedRatio*avg,
	}, nil
}

// TotalDistance sums the planar distance between consecutive samples, in
// meters.
func TotalDistance(path models.Path, frame spatial.Frame) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += frame.Distance(path[i-1].Point(), path[i].Point())
	}
	return total
}

// AverageSpeed returns the mean sample speed in meters per second.
func AverageSpeed(path models.Path) (float64, error) {
	if err := path.Validate(); err != nil {
		return 0, err
	}
	var sum float64
	for _, s := range path {
		sum += s.Speed
	}
	return KnotsToMPS * sum / float64(len(path)), nil
}
