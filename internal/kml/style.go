package kml

import "github.com/jengzang/trip-hazards/internal/models"

const (
	PathStyleID   = "yellowPoly"
	HazardStyleID = "redMarker"

	markerIcon = "https://cdn0.iconfinder.com/data/icons/small-n-flat/24/678111-map-marker-512.png"
)

type Style struct {
	ID        string     `xml:"id,attr"`
	IconStyle *IconStyle `xml:"IconStyle,omitempty"`
	LineStyle *LineStyle `xml:"LineStyle,omitempty"`
	PolyStyle *PolyStyle `xml:"PolyStyle,omitempty"`
}

type IconStyle struct {
	Color string `xml:"color,omitempty"`
	Icon  *Icon  `xml:"Icon,omitempty"`
}

type Icon struct {
	Href string `xml:"href"`
}

type LineStyle struct {
	Color string  `xml:"color,omitempty"`
	Width float64 `xml:"width,omitempty"`
}

type PolyStyle struct {
	Color string `xml:"color,omitempty"`
}

// Styles is the rendering configuration handed to encoders and renderers.
// Hazard styles are keyed by kind; several kinds may share one style.
type Styles struct {
	Path   Style
	Hazard map[models.HazardKind]Style
}

// DefaultStyles draws the path as a wide yellow line and every hazard as a
// red map marker.
func DefaultStyles() Styles {
	marker := Style{
		ID: HazardStyleID,
		IconStyle: &IconStyle{
			Color: "ff0000ff",
			Icon:  &Icon{Href: markerIcon},
		},
	}
	return Styles{
		Path: Style{
			ID:        PathStyleID,
			LineStyle: &LineStyle{Color: "Af00ffff", Width: 6},
			PolyStyle: &PolyStyle{Color: "7f00ff00"},
		},
		Hazard: map[models.HazardKind]Style{
			models.HazardStop:     marker,
			models.HazardLeftTurn: marker,
		},
	}
}

// Labels maps each hazard kind to its style id.
func (s Styles) Labels() map[models.HazardKind]string {
	labels := make(map[models.HazardKind]string, len(s.Hazard))
	for kind, style := range s.Hazard {
		labels[kind] = style.ID
	}
	return labels
}

func (s Styles) lookup(id string) (Style, bool) {
	if s.Path.ID == id {
		return s.Path, true
	}
	for _, style := range s.Hazard {
		if style.ID == id {
			return style, true
		}
	}
	return Style{}, false
}
