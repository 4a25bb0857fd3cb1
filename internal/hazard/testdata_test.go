package hazard

import (
	"github.com/jengzang/trip-hazards/internal/models"
	"github.com/jengzang/trip-hazards/internal/spatial"
)

var (
	testFrame  = spatial.NewYorkFrame
	testOrigin = spatial.Point{Lat: 43.1, Lon: -77.5}
)

// at returns a sample x meters east and y meters north of testOrigin.
func at(x, y, speed float64) models.Sample {
	return models.Sample{
		Lon:   testOrigin.Lon + x/testFrame.LonMeters,
		Lat:   testOrigin.Lat + y/testFrame.LatMeters,
		Speed: speed,
	}
}

// lPath drives 100 m east in 10 m steps, then 100 m north, turning left at
// sample 10. northSign -1 makes it a right turn instead.
func lPath(northSign float64) models.Path {
	var path models.Path
	for i := 0; i <= 10; i++ {
		path = append(path, at(float64(i)*10, 0, 10))
	}
	for i := 1; i <= 10; i++ {
		path = append(path, at(100, northSign*float64(i)*10, 10))
	}
	return path
}

func speeds(values ...float64) models.Path {
	path := make(models.Path, len(values))
	for i, v := range values {
		path[i] = at(float64(i)*10, 0, v)
	}
	return path
}

func indices(hazards []models.Hazard) []int {
	out := make([]int, 0, len(hazards))
	for _, h := range hazards {
		out = append(out, h.Index)
	}
	return out
}
