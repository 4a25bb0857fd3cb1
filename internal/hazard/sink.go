package hazard

import "github.com/jengzang/trip-hazards/internal/models"

// Sink receives final hazards for rendering. style is a label chosen by the
// caller, typically a style id keyed by hazard kind.
type Sink interface {
	AddHazard(h models.Hazard, style string)
}

// Emit hands every hazard to sink in order. Kinds missing from labels are
// labelled with the kind name.
func Emit(sink Sink, hazards []models.Hazard, labels map[models.HazardKind]string) {
	for _, h := range hazards {
		label, ok := labels[h.Kind]
		if !ok {
			label = string(h.Kind)
		}
		sink.AddHazard(h, label)
	}
}
