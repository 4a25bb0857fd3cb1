// Package kml reads and writes recorded trips as KML documents. A trip is the
// first LineString placemark of the document, its coordinates holding
// lon,lat,speed tuples. Hazards are written back as styled Point placemarks.
package kml

import (
	"encoding/xml"
	"fmt"
	"io"
)

// Namespace is the KML 2.2 namespace written on every encoded document.
const Namespace = "http://www.opengis.net/kml/2.2"

// KML is the document root
type KML struct {
	XMLName  xml.Name `xml:"kml"`
	Xmlns    string   `xml:"xmlns,attr,omitempty"`
	Document Document `xml:"Document"`
}

type Document struct {
	Name       string      `xml:"name,omitempty"`
	Styles     []Style     `xml:"Style"`
	Placemarks []Placemark `xml:"Placemark"`
	Folders    []Folder    `xml:"Folder"`
}

type Folder struct {
	Name       string      `xml:"name,omitempty"`
	Placemarks []Placemark `xml:"Placemark"`
}

type Placemark struct {
	Name        string      `xml:"name,omitempty"`
	Description string      `xml:"description,omitempty"`
	StyleURL    string      `xml:"styleUrl,omitempty"`
	Point       *Point      `xml:"Point,omitempty"`
	LineString  *LineString `xml:"LineString,omitempty"`
}

type Point struct {
	AltitudeMode string `xml:"altitudeMode,omitempty"`
	Coordinates  string `xml:"coordinates"`
}

type LineString struct {
	Extrude      int    `xml:"extrude,omitempty"`
	Tessellate   int    `xml:"tessellate,omitempty"`
	AltitudeMode string `xml:"altitudeMode,omitempty"`
	Coordinates  string `xml:"coordinates"`
}

// ParseError wraps a document that is not well-formed KML.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse kml: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse reads a whole KML document.
func Parse(r io.Reader) (*KML, error) {
	var doc KML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &doc, nil
}

// Write serializes doc with an XML header and two-space indentation.
func Write(w io.Writer, doc *KML) error {
	// A parsed root carries its namespace in XMLName as well as in Xmlns,
	// which would be written out twice.
	doc.XMLName = xml.Name{}
	if doc.Xmlns == "" {
		doc.Xmlns = Namespace
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write kml header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to write kml: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("failed to write kml: %w", err)
	}
	return nil
}

// trackPlacemark returns the first placemark carrying a LineString, looking
// at top-level placemarks before folders.
func (d *Document) trackPlacemark() *Placemark {
	for i := range d.Placemarks {
		if d.Placemarks[i].LineString != nil {
			return &d.Placemarks[i]
		}
	}
	for f := range d.Folders {
		for i := range d.Folders[f].Placemarks {
			if d.Folders[f].Placemarks[i].LineString != nil {
				return &d.Folders[f].Placemarks[i]
			}
		}
	}
	return nil
}

func (d *Document) hasStyle(id string) bool {
	for _, s := range d.Styles {
		if s.ID == id {
			return true
		}
	}
	return false
}
