package analysis

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/jengzang/trip-hazards/internal/models"
	"github.com/jengzang/trip-hazards/internal/repository"
)

// TripFunc analyzes one stored trip
type TripFunc func(ctx context.Context, tripID int64, path models.Path) error

// Summary is the bookkeeping part of a task result
type Summary struct {
	Mode      string `json:"mode"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
}

// TripAnalyzer runs a function over stored trips one at a time with progress
// tracking. In incremental mode only trips whose PendingColumn is NULL are
// visited.
type TripAnalyzer struct {
	*BaseAnalyzer
	Trips         *repository.TripRepository
	PendingColumn string
	ProgressEvery int // trips between progress writes
}

// NewTripAnalyzer creates a new trip analyzer
func NewTripAnalyzer(db *sql.DB, name, pendingColumn string) *TripAnalyzer {
	return &TripAnalyzer{
		BaseAnalyzer:  NewBaseAnalyzer(db, name),
		Trips:         repository.NewTripRepository(db),
		PendingColumn: pendingColumn,
		ProgressEvery: 10,
	}
}

// ProcessTrips marks the task running and calls fn for every selected trip.
// A trip that fails to load or analyze is counted and skipped; only
// cancellation and bookkeeping errors stop the run.
func (a *TripAnalyzer) ProcessTrips(ctx context.Context, taskID int64, mode string, fn TripFunc) (*Summary, error) {
	if err := a.MarkTaskAsRunning(taskID); err != nil {
		return nil, fmt.Errorf("failed to mark task as running: %w", err)
	}

	column := a.PendingColumn
	if mode == ModeFull {
		column = ""
	}
	ids, err := a.Trips.ListIDs(column)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Mode: mode, Total: len(ids)}
	if err := a.Tasks.SetTotal(taskID, summary.Total); err != nil {
		return nil, err
	}
	log.Printf("[%s] Processing %d trips (task_id=%d, mode=%s)", a.Name, summary.Total, taskID, mode)

	every := a.ProgressEvery
	if every < 1 {
		every = 1
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if err := a.processTrip(ctx, id, fn); err != nil {
			summary.Failed++
			log.Printf("[%s] Trip %d failed: %v", a.Name, id, err)
		}
		summary.Processed++

		if summary.Processed%every == 0 || summary.Processed == summary.Total {
			if err := a.UpdateTaskProgress(taskID, summary.Processed, summary.Total, summary.Failed); err != nil {
				return summary, fmt.Errorf("failed to update progress: %w", err)
			}
		}
	}

	return summary, nil
}

func (a *TripAnalyzer) processTrip(ctx context.Context, id int64, fn TripFunc) error {
	path, err := a.Trips.LoadPath(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load trip: %w", err)
	}
	return fn(ctx, id, path)
}
