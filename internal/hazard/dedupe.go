package hazard

import (
	"github.com/jengzang/trip-hazards/internal/models"
	"github.com/jengzang/trip-hazards/internal/spatial"
)

// Dedupe reduces clusters of nearby hazards to one representative each.
//
// Hazards are treated as a circular buffer. The front hazard seeds a group;
// the buffer is then walked once around, backwards from the seed, and every
// hazard closer than minDistance to any group member joins the group and
// leaves the buffer. When the walk is back at the seed, the seed is kept and
// the rest of its group dropped. This repeats until the buffer is empty.
//
// The result depends on input order. Kept hazards are always at least
// minDistance apart, so running Dedupe on its own output changes nothing.
func Dedupe(hazards []models.Hazard, frame spatial.Frame, minDistance float64) []models.Hazard {
	n := len(hazards)
	if n == 0 {
		return nil
	}

	inBuffer := make([]bool, n)
	for i := range inBuffer {
		inBuffer[i] = true
	}

	kept := make([]models.Hazard, 0, n)
	group := make([]int, 0, n)

	for seed := 0; seed < n; seed++ {
		if !inBuffer[seed] {
			continue
		}

		group = append(group[:0], seed)
		for step := 1; step < n; step++ {
			i := (seed - step + n) % n
			if !inBuffer[i] {
				continue
			}
			if near(hazards, group, i, frame, minDistance) {
				inBuffer[i] = false
				group = append(group, i)
			}
		}

		inBuffer[seed] = false
		kept = append(kept, hazards[seed])
	}

	return kept
}

func near(hazards []models.Hazard, group []int, i int, frame spatial.Frame, minDistance float64) bool {
	p := hazards[i].Point
	for _, g := range group {
		if frame.Distance(hazards[g].Point, p) < minDistance {
			return true
		}
	}
	return false
}
