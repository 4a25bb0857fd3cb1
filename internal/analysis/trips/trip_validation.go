package trips

import (
	"context"
	"errors"
	"log"

	"github.com/jengzang/trip-hazards/internal/analysis"
	"github.com/jengzang/trip-hazards/internal/cleaning"
	"github.com/jengzang/trip-hazards/internal/metrics"
	"github.com/jengzang/trip-hazards/internal/models"
)

// TripValidationSkill is the registered skill name
const TripValidationSkill = "trip_validation"

// TripValidationAnalyzer checks stored trips against the endpoint anchors
// and the jump limit and records a QA status on each. Rejected trips stay
// stored; only their status changes.
type TripValidationAnalyzer struct {
	*analysis.TripAnalyzer
	validator *cleaning.Validator
	metrics   *metrics.Collector
}

// NewTripValidationAnalyzer creates a new trip validation analyzer
func NewTripValidationAnalyzer(deps analysis.Deps) analysis.Analyzer {
	validator := deps.Validator
	if validator == nil {
		validator = cleaning.NewValidator(deps.Hazards.Frame, cleaning.DefaultMaxJumpM)
	}
	return &TripValidationAnalyzer{
		TripAnalyzer: analysis.NewTripAnalyzer(deps.DB, TripValidationSkill, "validated_at"),
		validator:    validator,
		metrics:      deps.Metrics,
	}
}

// Analyze performs trip validation
func (a *TripValidationAnalyzer) Analyze(ctx context.Context, taskID int64, mode string) error {
	log.Printf("[TripValidationAnalyzer] Starting analysis (task_id=%d, mode=%s)", taskID, mode)

	rejected := 0
	summary, err := a.ProcessTrips(ctx, taskID, mode, func(ctx context.Context, tripID int64, path models.Path) error {
		status, reason := models.QAStatusPassed, ""

		var rejection *cleaning.RejectionError
		if err := a.validator.Validate(path); errors.As(err, &rejection) {
			status, reason = models.QAStatusRejected, rejection.Error()
			rejected++
			a.metrics.TripRejected()
		} else if err != nil {
			return err
		}

		return a.Trips.UpdateQA(tripID, status, reason)
	})
	if err != nil {
		return err
	}

	log.Printf("[TripValidationAnalyzer] Completed: %d trips, %d rejected, %d failed",
		summary.Processed, rejected, summary.Failed)

	return a.MarkTaskAsCompleted(taskID, map[string]interface{}{
		"mode":      summary.Mode,
		"total":     summary.Total,
		"processed": summary.Processed,
		"failed":    summary.Failed,
		"rejected":  rejected,
	})
}

func init() {
	analysis.RegisterAnalyzer(TripValidationSkill, NewTripValidationAnalyzer)
}
