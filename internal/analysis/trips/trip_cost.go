package trips

import (
	"context"
	"log"
	"math"

	"github.com/jengzang/trip-hazards/internal/analysis"
	"github.com/jengzang/trip-hazards/internal/metrics"
	"github.com/jengzang/trip-hazards/internal/models"
	"github.com/jengzang/trip-hazards/internal/tripcost"
)

// TripCostSkill is the registered skill name
const TripCostSkill = "trip_cost"

// TripCostAnalyzer scores stored trips and saves distance, average speed and
// cost on the trip row.
type TripCostAnalyzer struct {
	*analysis.TripAnalyzer
	params  tripcost.Params
	metrics *metrics.Collector
}

// NewTripCostAnalyzer creates a new trip cost analyzer
func NewTripCostAnalyzer(deps analysis.Deps) analysis.Analyzer {
	return &TripCostAnalyzer{
		TripAnalyzer: analysis.NewTripAnalyzer(deps.DB, TripCostSkill, "scored_at"),
		params:       deps.Cost,
		metrics:      deps.Metrics,
	}
}

// Analyze performs trip scoring
func (a *TripCostAnalyzer) Analyze(ctx context.Context, taskID int64, mode string) error {
	log.Printf("[TripCostAnalyzer] Starting analysis (task_id=%d, mode=%s)", taskID, mode)

	var bestID int64
	bestCost := math.Inf(1)
	summary, err := a.ProcessTrips(ctx, taskID, mode, func(ctx context.Context, tripID int64, path models.Path) error {
		score, err := tripcost.Evaluate(path, a.params)
		if err != nil {
			return err
		}
		if err := a.Trips.UpdateScore(tripID, score.Distance, score.AvgSpeed, score.Cost); err != nil {
			return err
		}
		if score.Cost < bestCost {
			bestID, bestCost = tripID, score.Cost
		}
		a.metrics.TripScored()
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("[TripCostAnalyzer] Completed: %d trips, %d failed", summary.Processed, summary.Failed)

	result := map[string]interface{}{
		"mode":      summary.Mode,
		"total":     summary.Total,
		"processed": summary.Processed,
		"failed":    summary.Failed,
	}
	if bestID != 0 {
		result["cheapest_trip_id"] = bestID
		result["cheapest_cost"] = bestCost
	}
	return a.MarkTaskAsCompleted(taskID, result)
}

func init() {
	analysis.RegisterAnalyzer(TripCostSkill, NewTripCostAnalyzer)
}
