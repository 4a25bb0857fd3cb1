package kml

import (
	"github.com/jengzang/trip-hazards/internal/models"
)

// Renderer appends hazard placemarks to a document. Style definitions are
// added to the document the first time their id is used.
type Renderer struct {
	doc    *KML
	styles Styles
}

func NewRenderer(doc *KML, styles Styles) *Renderer {
	return &Renderer{doc: doc, styles: styles}
}

// AddHazard appends a Point placemark for h referencing style.
func (r *Renderer) AddHazard(h models.Hazard, style string) {
	d := &r.doc.Document
	if !d.hasStyle(style) {
		if def, ok := r.styles.lookup(style); ok {
			d.Styles = append(d.Styles, def)
		}
	}

	d.Placemarks = append(d.Placemarks, Placemark{
		Name:     string(h.Kind),
		StyleURL: "#" + style,
		Point: &Point{
			AltitudeMode: "relativeToGround",
			Coordinates:  formatFloat(h.Point.Lon) + "," + formatFloat(h.Point.Lat),
		},
	})
}

// Document returns the document being rendered into.
func (r *Renderer) Document() *KML {
	return r.doc
}
