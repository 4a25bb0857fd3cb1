package hazard

import (
	"errors"

	"github.com/jengzang/trip-hazards/internal/models"
	"github.com/jengzang/trip-hazards/internal/spatial"
)

// errIndexExhausted means a segment walk ran off the end of the path. It is
// how the turn scan learns it is complete and never leaves this file.
var errIndexExhausted = errors.New("path index exhausted")

// DetectLeftTurns walks two connected segments down the path and reports a
// hazard wherever the angle between them falls inside the configured band.
//
// Three indices p1 < p2 < p3 only ever move forward. Each step advances p1
// by one, pushes p2 until p1->p2 is at least SegmentMeters long, and pushes
// p3 until p2->p3 is too. The hazard is placed on the vertex sample p2. A
// single real turn is usually reported several times in a row; Dedupe
// collapses those.
func DetectLeftTurns(path models.Path, frame spatial.Frame, opts TurnOptions) []models.Hazard {
	var turns []models.Hazard

	p1, p2, p3 := 0, 1, 2
	for {
		p1++

		var err error
		if p2, err = walk(path, frame, opts.SegmentMeters, p1, p2); err != nil {
			break
		}
		if p3 <= p2 {
			p3 = p2 + 1
		}
		if p3, err = walk(path, frame, opts.SegmentMeters, p2, p3); err != nil {
			break
		}

		angle := spatial.TurnAngle(path[p1].Point(), path[p2].Point(), path[p3].Point())
		if opts.MinAngle <= angle && angle <= opts.MaxAngle {
			turns = append(turns, models.Hazard{
				Kind:  models.HazardLeftTurn,
				Point: path[p2].Point(),
				Index: p2,
			})
		}
	}

	return turns
}

// walk returns the first index at or after from whose sample is at least
// minMeters away from path[anchor].
func walk(path models.Path, frame spatial.Frame, minMeters float64, anchor, from int) (int, error) {
	if anchor >= len(path) {
		return 0, errIndexExhausted
	}
	a := path[anchor].Point()
	for i := from; i < len(path); i++ {
		if frame.Distance(a, path[i].Point()) >= minMeters {
			return i, nil
		}
	}
	return 0, errIndexExhausted
}
