package service

import (
	"context"
	"fmt"
	"io"

	"github.com/jengzang/trip-hazards/internal/hazard"
	"github.com/jengzang/trip-hazards/internal/kml"
	"github.com/jengzang/trip-hazards/internal/metrics"
	"github.com/jengzang/trip-hazards/internal/models"
	"github.com/jengzang/trip-hazards/internal/render"
	"github.com/jengzang/trip-hazards/internal/repository"
)

// HazardService detects, stores and renders the hazards of trips
type HazardService struct {
	trips   *repository.TripRepository
	hazards *repository.HazardRepository
	opts    hazard.Options
	styles  kml.Styles
	metrics *metrics.Collector
}

// NewHazardService creates a new hazard service
func NewHazardService(trips *repository.TripRepository, hazards *repository.HazardRepository, opts hazard.Options, styles kml.Styles, m *metrics.Collector) *HazardService {
	return &HazardService{trips: trips, hazards: hazards, opts: opts, styles: styles, metrics: m}
}

// DetectForTrip runs detection on a stored trip and replaces its hazards.
func (s *HazardService) DetectForTrip(ctx context.Context, tripID int64) ([]models.Hazard, error) {
	path, err := s.trips.LoadPath(ctx, tripID)
	if err != nil {
		return nil, err
	}
	hazards, err := hazard.Detect(path, s.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to detect hazards: %w", err)
	}
	if err := s.hazards.ReplaceForTrip(tripID, hazards); err != nil {
		return nil, err
	}
	s.metrics.ObserveHazards(hazards)
	return hazards, nil
}

// GetHazards returns the stored hazards of a trip. A trip that was never
// analyzed has none.
func (s *HazardService) GetHazards(tripID int64) ([]models.StoredHazard, error) {
	if _, err := s.trips.GetByID(tripID); err != nil {
		return nil, err
	}
	return s.hazards.ListByTrip(tripID)
}

// Totals counts stored trips and hazards by kind
func (s *HazardService) Totals() (*models.HazardTotals, error) {
	trips, err := s.trips.Count()
	if err != nil {
		return nil, err
	}
	counts, err := s.hazards.CountByKind()
	if err != nil {
		return nil, err
	}
	return &models.HazardTotals{Trips: trips, Hazards: counts}, nil
}

// RenderKML writes the trip and its hazards as a KML document.
func (s *HazardService) RenderKML(ctx context.Context, w io.Writer, tripID int64) error {
	path, hazards, err := s.pathAndHazards(ctx, tripID)
	if err != nil {
		return err
	}
	return kml.Encode(w, path, hazards, s.styles)
}

// RenderGeoJSON returns the trip line and its hazards as GeoJSON features.
// toleranceM simplifies the line; zero keeps every sample.
func (s *HazardService) RenderGeoJSON(ctx context.Context, tripID int64, toleranceM float64) (*render.Renderer, error) {
	path, hazards, err := s.pathAndHazards(ctx, tripID)
	if err != nil {
		return nil, err
	}
	r := render.NewRenderer(s.opts.Frame)
	r.AddPath(path, toleranceM)
	hazard.Emit(r, hazards, s.styles.Labels())
	return r, nil
}

// pathAndHazards loads a trip with its stored hazards, detecting them on the
// fly without storing when the trip was never analyzed.
func (s *HazardService) pathAndHazards(ctx context.Context, tripID int64) (models.Path, []models.Hazard, error) {
	trip, err := s.trips.GetByID(tripID)
	if err != nil {
		return nil, nil, err
	}
	path, err := s.trips.LoadPath(ctx, tripID)
	if err != nil {
		return nil, nil, err
	}

	if trip.HazardsAt == nil {
		hazards, err := hazard.Detect(path, s.opts)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to detect hazards: %w", err)
		}
		return path, hazards, nil
	}

	stored, err := s.hazards.ListByTrip(tripID)
	if err != nil {
		return nil, nil, err
	}
	hazards := make([]models.Hazard, len(stored))
	for i, h := range stored {
		hazards[i] = h.Hazard
	}
	return path, hazards, nil
}
