package hazard

import "github.com/jengzang/trip-hazards/internal/models"

// DetectStops slides a window of opts.Window samples over the path and
// reports one hazard per run of consecutive windows in which every sample
// is at or below opts.MaxSpeed. The hazard is the first sample of the first
// window in the run. Paths shorter than the window have no stops.
func DetectStops(path models.Path, opts StopOptions) []models.Hazard {
	window := opts.Window
	if window < 1 {
		window = 1
	}
	if len(path) < window {
		return nil
	}

	var stops []models.Hazard
	inStop := false
	// slow counts consecutive slow samples ending at i, so the window ending
	// at i is a stop window exactly when slow >= window.
	slow := 0

	for i, s := range path {
		if s.Speed <= opts.MaxSpeed {
			slow++
		} else {
			slow = 0
		}
		if i < window-1 {
			continue
		}

		if slow >= window {
			if !inStop {
				start := i - window + 1
				stops = append(stops, models.Hazard{
					Kind:  models.HazardStop,
					Point: path[start].Point(),
					Index: start,
				})
				inStop = true
			}
		} else {
			inStop = false
		}
	}

	return stops
}
