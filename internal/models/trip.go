package models

import (
	"time"

	"github.com/jengzang/trip-hazards/internal/stats"
)

// Trip is a recorded trip stored with its samples. Score columns are filled
// in by the trip_cost analysis; HazardsAt is set once hazard detection ran.
type Trip struct {
	ID      int64  `json:"id" db:"id"`
	BatchID string `json:"batch_id" db:"batch_id"` // Candidate set the trip was imported with
	Name    string `json:"name" db:"name"`
	Source  string `json:"source,omitempty" db:"source"` // Original file name or upload label

	SampleCount int `json:"sample_count" db:"sample_count"`

	// Score
	DistanceMeters *float64 `json:"distance_meters,omitempty" db:"distance_meters"`
	AvgSpeedMPS    *float64 `json:"avg_speed_mps,omitempty" db:"avg_speed_mps"`
	Cost           *float64 `json:"cost,omitempty" db:"cost"`
	ScoredAt       *int64   `json:"scored_at,omitempty" db:"scored_at"`

	HazardsAt   *int64 `json:"hazards_at,omitempty" db:"hazards_at"`
	HazardCount int    `json:"hazard_count" db:"hazard_count"`

	// Validation
	QAStatus    string `json:"qa_status,omitempty" db:"qa_status"` // passed, rejected
	QAReason    string `json:"qa_reason,omitempty" db:"qa_reason"`
	ValidatedAt *int64 `json:"validated_at,omitempty" db:"validated_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// QAStatus constants
const (
	QAStatusPassed   = "passed"
	QAStatusRejected = "rejected"
)

// TripsResponse represents a paginated response of trips
type TripsResponse struct {
	Data       []Trip `json:"data"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
}

// BestTrip is the outcome of choosing the cheapest trip of a batch
type BestTrip struct {
	BatchID    string  `json:"batch_id"`
	Trip       Trip    `json:"trip"`
	Distance   float64 `json:"distance_meters"`
	AvgSpeed   float64 `json:"avg_speed_mps"`
	Cost       float64 `json:"cost"`
	Candidates int     `json:"candidates"`
}

// BatchStats summarizes the scored trips of a batch. CostOutliers lists the
// trips whose cost falls outside 1.5 IQR of the batch.
type BatchStats struct {
	BatchID      string        `json:"batch_id"`
	Trips        int           `json:"trips"`
	Scored       int           `json:"scored"`
	Distance     stats.Summary `json:"distance_meters"`
	AvgSpeed     stats.Summary `json:"avg_speed_mps"`
	Cost         stats.Summary `json:"cost"`
	CostOutliers []int64       `json:"cost_outliers"`
}
