// Package trips holds the analyzers that run over stored trips.
package trips

import (
	"context"
	"fmt"
	"log"

	"github.com/jengzang/trip-hazards/internal/analysis"
	"github.com/jengzang/trip-hazards/internal/hazard"
	"github.com/jengzang/trip-hazards/internal/metrics"
	"github.com/jengzang/trip-hazards/internal/models"
	"github.com/jengzang/trip-hazards/internal/repository"
)

// HazardDetectionSkill is the registered skill name
const HazardDetectionSkill = "hazard_detection"

// HazardDetectionAnalyzer finds stops and left turns in stored trips and
// replaces the hazards stored for each.
type HazardDetectionAnalyzer struct {
	*analysis.TripAnalyzer
	hazards *repository.HazardRepository
	opts    hazard.Options
	metrics *metrics.Collector
}

// NewHazardDetectionAnalyzer creates a new hazard detection analyzer
func NewHazardDetectionAnalyzer(deps analysis.Deps) analysis.Analyzer {
	return &HazardDetectionAnalyzer{
		TripAnalyzer: analysis.NewTripAnalyzer(deps.DB, HazardDetectionSkill, "hazards_at"),
		hazards:      repository.NewHazardRepository(deps.DB),
		opts:         deps.Hazards,
		metrics:      deps.Metrics,
	}
}

// Analyze performs hazard detection
func (a *HazardDetectionAnalyzer) Analyze(ctx context.Context, taskID int64, mode string) error {
	log.Printf("[HazardDetectionAnalyzer] Starting analysis (task_id=%d, mode=%s)", taskID, mode)

	counts := make(map[models.HazardKind]int)
	summary, err := a.ProcessTrips(ctx, taskID, mode, func(ctx context.Context, tripID int64, path models.Path) error {
		hazards, err := hazard.Detect(path, a.opts)
		if err != nil {
			return fmt.Errorf("failed to detect hazards: %w", err)
		}
		if err := a.hazards.ReplaceForTrip(tripID, hazards); err != nil {
			return err
		}
		for _, h := range hazards {
			counts[h.Kind]++
		}
		a.metrics.ObserveHazards(hazards)
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("[HazardDetectionAnalyzer] Completed: %d trips, %d failed, %d stops, %d left turns",
		summary.Processed, summary.Failed, counts[models.HazardStop], counts[models.HazardLeftTurn])

	return a.MarkTaskAsCompleted(taskID, map[string]interface{}{
		"mode":       summary.Mode,
		"total":      summary.Total,
		"processed":  summary.Processed,
		"failed":     summary.Failed,
		"stops":      counts[models.HazardStop],
		"left_turns": counts[models.HazardLeftTurn],
	})
}

func init() {
	analysis.RegisterAnalyzer(HazardDetectionSkill, NewHazardDetectionAnalyzer)
}
