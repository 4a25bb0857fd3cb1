package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jengzang/trip-hazards/internal/cleaning"
	"github.com/jengzang/trip-hazards/internal/kml"
	"github.com/jengzang/trip-hazards/internal/metrics"
	"github.com/jengzang/trip-hazards/internal/models"
	"github.com/jengzang/trip-hazards/internal/nmea"
	"github.com/jengzang/trip-hazards/internal/repository"
	"github.com/jengzang/trip-hazards/internal/stats"
	"github.com/jengzang/trip-hazards/internal/tripcost"
)

// Upload formats
const (
	FormatKML  = "kml"
	FormatNMEA = "nmea"
)

// ImportOptions describes one trip upload
type ImportOptions struct {
	BatchID string
	Name    string
	Source  string
	Format  string // kml (default) or nmea
	Clean   bool   // reject trips failing endpoint and jump validation
}

// ImportResult reports a directory import
type ImportResult struct {
	BatchID  string        `json:"batch_id"`
	Imported []models.Trip `json:"imported"`
	Skipped  []string      `json:"skipped,omitempty"`
}

// TripService handles business logic for trips
type TripService struct {
	repo      *repository.TripRepository
	validator *cleaning.Validator
	params    tripcost.Params
	metrics   *metrics.Collector
}

// NewTripService creates a new trip service
func NewTripService(repo *repository.TripRepository, validator *cleaning.Validator, params tripcost.Params, m *metrics.Collector) *TripService {
	return &TripService{repo: repo, validator: validator, params: params, metrics: m}
}

// Import decodes a trip from r and stores it.
func (s *TripService) Import(r io.Reader, opts ImportOptions) (*models.Trip, error) {
	var path models.Path
	var err error
	switch opts.Format {
	case "", FormatKML:
		path, err = kml.Decode(r)
	case FormatNMEA:
		path, err = nmea.DecodeRMC(r)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidArgument, opts.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode trip: %w", err)
	}

	if opts.Clean {
		if err := s.validator.Validate(path); err != nil {
			s.metrics.TripRejected()
			return nil, err
		}
	}

	name := opts.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(opts.Source), filepath.Ext(opts.Source))
	}
	if name == "" || name == "." {
		name = "trip"
	}

	trip := &models.Trip{BatchID: opts.BatchID, Name: name, Source: opts.Source}
	if err := s.repo.Create(trip, path); err != nil {
		return nil, fmt.Errorf("failed to store trip: %w", err)
	}
	s.metrics.TripImported()
	return trip, nil
}

// ImportDirectory stores every .kml file of dir under a new batch. Files that
// fail to decode or validate are skipped and listed in the result.
func (s *TripService) ImportDirectory(dir string, clean bool) (*ImportResult, error) {
	files, err := ListKMLFiles(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{BatchID: uuid.NewString(), Imported: []models.Trip{}}
	for _, file := range files {
		trip, err := s.importFile(file, result.BatchID, clean)
		if err != nil {
			log.Printf("[TripService] Skipping %s: %v", file, err)
			result.Skipped = append(result.Skipped, filepath.Base(file))
			continue
		}
		result.Imported = append(result.Imported, *trip)
	}

	log.Printf("[TripService] Imported %d trips into batch %s (%d skipped)",
		len(result.Imported), result.BatchID, len(result.Skipped))
	return result, nil
}

func (s *TripService) importFile(file, batchID string, clean bool) (*models.Trip, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open trip file: %w", err)
	}
	defer f.Close()

	return s.Import(f, ImportOptions{BatchID: batchID, Source: filepath.Base(file), Clean: clean})
}

// GetTrips retrieves trips with filtering and pagination
func (s *TripService) GetTrips(filter models.TripFilter) (*models.TripsResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}

	trips, total, err := s.repo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get trips: %w", err)
	}

	return &models.TripsResponse{
		Data:       trips,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.PageSize))),
	}, nil
}

// GetTripByID retrieves a single trip by ID
func (s *TripService) GetTripByID(id int64) (*models.Trip, error) {
	return s.repo.GetByID(id)
}

// GetPath returns the samples of a stored trip
func (s *TripService) GetPath(ctx context.Context, id int64) (models.Path, error) {
	return s.repo.LoadPath(ctx, id)
}

// BestInBatch evaluates every trip of a batch and returns the cheapest.
// workers > 1 evaluates trips concurrently with the same result.
func (s *TripService) BestInBatch(ctx context.Context, batchID string, workers int) (*models.BestTrip, error) {
	ids, err := s.repo.ListBatchIDs(batchID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("batch %s: %w", batchID, repository.ErrNotFound)
	}

	candidates := make([]string, len(ids))
	for i, id := range ids {
		candidates[i] = strconv.FormatInt(id, 10)
	}

	var best tripcost.Result
	if workers > 1 {
		best, err = tripcost.SelectBestConcurrent(ctx, candidates, s.loadCandidate, s.params, workers)
	} else {
		best, err = tripcost.SelectBest(ctx, candidates, s.loadCandidate, s.params)
	}
	if err != nil {
		return nil, err
	}

	trip, err := s.repo.GetByID(ids[best.Index])
	if err != nil {
		return nil, err
	}
	return &models.BestTrip{
		BatchID:    batchID,
		Trip:       *trip,
		Distance:   best.Score.Distance,
		AvgSpeed:   best.Score.AvgSpeed,
		Cost:       best.Score.Cost,
		Candidates: len(ids),
	}, nil
}

// BatchStats summarizes the score columns of a batch. Only trips scored by
// the trip_cost analysis are counted.
func (s *TripService) BatchStats(batchID string) (*models.BatchStats, error) {
	ids, err := s.repo.ListBatchIDs(batchID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("batch %s: %w", batchID, repository.ErrNotFound)
	}

	scored, err := s.repo.ListScored(batchID)
	if err != nil {
		return nil, err
	}

	distances := make([]float64, len(scored))
	speeds := make([]float64, len(scored))
	costs := make([]float64, len(scored))
	for i, t := range scored {
		distances[i] = *t.DistanceMeters
		speeds[i] = *t.AvgSpeedMPS
		costs[i] = *t.Cost
	}

	result := &models.BatchStats{
		BatchID:      batchID,
		Trips:        len(ids),
		Scored:       len(scored),
		Distance:     stats.Summarize(distances),
		AvgSpeed:     stats.Summarize(speeds),
		Cost:         stats.Summarize(costs),
		CostOutliers: []int64{},
	}
	for _, i := range stats.DetectOutliers(costs) {
		result.CostOutliers = append(result.CostOutliers, scored[i].ID)
	}
	return result, nil
}

func (s *TripService) loadCandidate(ctx context.Context, id string) (models.Path, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad trip id %q: %w", id, err)
	}
	return s.repo.LoadPath(ctx, n)
}

// ListKMLFiles returns the .kml files directly inside dir in name order.
func ListKMLFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read trip directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".kml") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
