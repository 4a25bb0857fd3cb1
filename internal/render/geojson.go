// Package render turns trips and hazards into GeoJSON for map clients.
package render

import (
	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"

	"github.com/jengzang/trip-hazards/internal/models"
	"github.com/jengzang/trip-hazards/internal/spatial"
)

// Renderer collects features into a single FeatureCollection. It satisfies
// hazard.Sink.
type Renderer struct {
	frame spatial.Frame
	fc    *geojson.FeatureCollection
}

func NewRenderer(frame spatial.Frame) *Renderer {
	return &Renderer{frame: frame, fc: geojson.NewFeatureCollection()}
}

// AddPath adds the trip as a LineString. When toleranceM is positive the line
// is simplified with Douglas-Peucker in the renderer's planar frame, so the
// tolerance is in meters.
func (r *Renderer) AddPath(path models.Path, toleranceM float64) {
	ls := make(orb.LineString, len(path))
	for i, s := range path {
		ls[i] = orb.Point{s.Lon, s.Lat}
	}
	if toleranceM > 0 && len(ls) > 2 {
		ls = r.simplify(ls, toleranceM)
	}

	f := geojson.NewFeature(ls)
	f.Properties["type"] = "trip"
	f.Properties["samples"] = len(path)
	f.Properties["distance_meters"] = r.frame.PathLength(path.Points())
	r.fc.Append(f)
}

func (r *Renderer) simplify(ls orb.LineString, toleranceM float64) orb.LineString {
	projected := make(orb.LineString, len(ls))
	for i, p := range ls {
		xy := r.frame.Project(spatial.Point{Lon: p[0], Lat: p[1]})
		projected[i] = orb.Point{xy.X, xy.Y}
	}

	simplified := simplify.DouglasPeucker(toleranceM).LineString(projected.Clone())

	out := make(orb.LineString, len(simplified))
	for i, p := range simplified {
		ll := r.frame.Unproject(r2.Point{X: p[0], Y: p[1]})
		out[i] = orb.Point{ll.Lon, ll.Lat}
	}
	return out
}

// AddHazard adds h as a Point feature tagged with its kind and style label.
func (r *Renderer) AddHazard(h models.Hazard, style string) {
	f := geojson.NewFeature(orb.Point{h.Point.Lon, h.Point.Lat})
	f.Properties["type"] = "hazard"
	f.Properties["kind"] = string(h.Kind)
	f.Properties["index"] = h.Index
	f.Properties["style"] = style
	r.fc.Append(f)
}

func (r *Renderer) Collection() *geojson.FeatureCollection {
	return r.fc
}

// MarshalJSON encodes the collected features.
func (r *Renderer) MarshalJSON() ([]byte, error) {
	return r.fc.MarshalJSON()
}
