package kml

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jengzang/trip-hazards/internal/hazard"
	"github.com/jengzang/trip-hazards/internal/models"
)

// ErrNoTrack is returned when a document has no LineString placemark.
var ErrNoTrack = errors.New("kml: document has no LineString placemark")

// Decode reads a KML document and returns its trip.
func Decode(r io.Reader) (models.Path, error) {
	doc, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return doc.Path()
}

// Path returns the samples of the document's first LineString.
func (k *KML) Path() (models.Path, error) {
	pm := k.Document.trackPlacemark()
	if pm == nil {
		return nil, ErrNoTrack
	}
	return ParseCoordinates(pm.LineString.Coordinates)
}

// ParseCoordinates parses whitespace-separated lon,lat,speed tuples.
func ParseCoordinates(s string) (models.Path, error) {
	tuples := strings.Fields(s)
	if len(tuples) == 0 {
		return nil, models.ErrEmptyInput
	}

	path := make(models.Path, 0, len(tuples))
	for i, tuple := range tuples {
		sample, err := parseTuple(i, tuple)
		if err != nil {
			return nil, err
		}
		path = append(path, sample)
	}
	return path, nil
}

var tupleFields = [...]string{"lon", "lat", "speed"}

func parseTuple(index int, tuple string) (models.Sample, error) {
	parts := strings.Split(tuple, ",")
	var values [3]float64
	for f, name := range tupleFields {
		if f >= len(parts) || parts[f] == "" {
			return models.Sample{}, &models.MalformedSampleError{Index: index, Field: name}
		}
		v, err := strconv.ParseFloat(parts[f], 64)
		if err != nil {
			return models.Sample{}, &models.MalformedSampleError{Index: index, Field: name, Err: err}
		}
		values[f] = v
	}
	return models.Sample{Lon: values[0], Lat: values[1], Speed: values[2]}, nil
}

// FormatCoordinates is the inverse of ParseCoordinates.
func FormatCoordinates(path models.Path) string {
	var b strings.Builder
	for i, s := range path {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(formatFloat(s.Lon))
		b.WriteByte(',')
		b.WriteString(formatFloat(s.Lat))
		b.WriteByte(',')
		b.WriteString(formatFloat(s.Speed))
	}
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NewDocument builds a document holding path as a styled LineString.
func NewDocument(name string, path models.Path, styles Styles) *KML {
	return &KML{
		Xmlns: Namespace,
		Document: Document{
			Name:   name,
			Styles: []Style{styles.Path},
			Placemarks: []Placemark{{
				StyleURL: "#" + styles.Path.ID,
				LineString: &LineString{
					Extrude:      1,
					Tessellate:   1,
					AltitudeMode: "relativeToGround",
					Coordinates:  FormatCoordinates(path),
				},
			}},
		},
	}
}

// Encode writes path and its hazards as a new document.
func Encode(w io.Writer, path models.Path, hazards []models.Hazard, styles Styles) error {
	doc := NewDocument("", path, styles)
	r := NewRenderer(doc, styles)
	hazard.Emit(r, hazards, styles.Labels())
	return Write(w, doc)
}

// DetectFunc finds the hazards of a path.
type DetectFunc func(models.Path) ([]models.Hazard, error)

// Annotate reads a trip document from r, appends a placemark for every hazard
// detect finds and writes the result to w. The track coordinates are
// rewritten on one line; everything else in the document is kept.
func Annotate(r io.Reader, w io.Writer, detect DetectFunc, styles Styles) (int, error) {
	doc, err := Parse(r)
	if err != nil {
		return 0, err
	}
	path, err := doc.Path()
	if err != nil {
		return 0, err
	}
	hazards, err := detect(path)
	if err != nil {
		return 0, fmt.Errorf("failed to detect hazards: %w", err)
	}

	doc.Document.trackPlacemark().LineString.Coordinates = FormatCoordinates(path)
	hazard.Emit(NewRenderer(doc, styles), hazards, styles.Labels())
	if err := Write(w, doc); err != nil {
		return 0, err
	}
	return len(hazards), nil
}
