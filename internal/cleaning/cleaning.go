// Package cleaning rejects recorded trips that are unusable for comparison:
// trips that do not run between the expected endpoints and trips with
// position jumps from lost fixes.
package cleaning

import (
	"fmt"

	"github.com/jengzang/trip-hazards/internal/models"
	"github.com/jengzang/trip-hazards/internal/spatial"
)

// Anchor is a place a trip must start or end near
type Anchor struct {
	Name    string
	Point   spatial.Point
	RadiusM float64
}

// DefaultAnchors are the two ends of the recorded commute.
var DefaultAnchors = []Anchor{
	{Name: "RIT", Point: spatial.Point{Lat: 43.085, Lon: -77.675}, RadiusM: 1000},
	{Name: "Home", Point: spatial.Point{Lat: 43.138, Lon: -77.438}, RadiusM: 500},
}

// DefaultMaxJumpM is the largest distance allowed between consecutive samples.
const DefaultMaxJumpM = 100.0

// RejectionError describes why a trip failed validation
type RejectionError struct {
	Reason string
	Index  int // offending sample, -1 when not tied to one sample
}

func (e *RejectionError) Error() string {
	if e.Index < 0 {
		return "trip rejected: " + e.Reason
	}
	return fmt.Sprintf("trip rejected at sample %d: %s", e.Index, e.Reason)
}

type Validator struct {
	Frame    spatial.Frame
	Anchors  []Anchor
	MaxJumpM float64
}

func NewValidator(frame spatial.Frame, maxJumpM float64) *Validator {
	anchors := make([]Anchor, len(DefaultAnchors))
	copy(anchors, DefaultAnchors)
	return &Validator{Frame: frame, Anchors: anchors, MaxJumpM: maxJumpM}
}

// Validate runs the endpoint check and then the jump check.
func (v *Validator) Validate(path models.Path) error {
	if err := path.Validate(); err != nil {
		return err
	}
	if err := v.CheckEndpoints(path); err != nil {
		return err
	}
	return v.CheckJumps(path)
}

// CheckEndpoints requires every anchor to be reached by the first or the
// last sample. An endpoint counts for the first anchor in list order that it
// lies within, so one endpoint cannot satisfy two overlapping anchors.
func (v *Validator) CheckEndpoints(path models.Path) error {
	if err := path.Validate(); err != nil {
		return err
	}

	reached := make([]bool, len(v.Anchors))
	for _, s := range []models.Sample{path[0], path[len(path)-1]} {
		for i, a := range v.Anchors {
			if v.Frame.Distance(a.Point, s.Point()) <= a.RadiusM {
				reached[i] = true
				break
			}
		}
	}

	for i, ok := range reached {
		if !ok {
			return &RejectionError{
				Reason: fmt.Sprintf("no endpoint within %.0f m of %s", v.Anchors[i].RadiusM, v.Anchors[i].Name),
				Index:  -1,
			}
		}
	}
	return nil
}

// CheckJumps rejects a path with consecutive samples more than MaxJumpM apart.
func (v *Validator) CheckJumps(path models.Path) error {
	for i := 1; i < len(path); i++ {
		d := v.Frame.Distance(path[i-1].Point(), path[i].Point())
		if d > v.MaxJumpM {
			return &RejectionError{
				Reason: fmt.Sprintf("jump of %.1f m exceeds %.0f m", d, v.MaxJumpM),
				Index:  i,
			}
		}
	}
	return nil
}
