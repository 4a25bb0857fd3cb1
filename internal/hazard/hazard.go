// Package hazard finds stops and left turns along a recorded trip.
package hazard

import "github.com/jengzang/trip-hazards/internal/models"

// Detect runs stop and left-turn detection over path and merges hazards that
// lie within opts.MinHazardDistance of each other. Stops come before turns
// in the merge order, so a stop wins over a turn at the same intersection.
func Detect(path models.Path, opts Options) ([]models.Hazard, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}

	stops := DetectStops(path, opts.Stops)
	turns := DetectLeftTurns(path, opts.Frame, opts.Turns)

	raw := make([]models.Hazard, 0, len(stops)+len(turns))
	raw = append(raw, stops...)
	raw = append(raw, turns...)

	return Dedupe(raw, opts.Frame, opts.MinHazardDistance), nil
}
