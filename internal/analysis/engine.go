package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jengzang/trip-hazards/internal/cleaning"
	"github.com/jengzang/trip-hazards/internal/hazard"
	"github.com/jengzang/trip-hazards/internal/metrics"
	"github.com/jengzang/trip-hazards/internal/models"
	"github.com/jengzang/trip-hazards/internal/repository"
	"github.com/jengzang/trip-hazards/internal/tripcost"
)

// Analysis modes
const (
	ModeIncremental = "incremental"
	ModeFull        = "full"
)

// Analyzer is the interface that all analysis skills must implement
type Analyzer interface {
	// Analyze performs the analysis for a given task
	// taskID: the analysis task ID
	// mode: "incremental" or "full"
	Analyze(ctx context.Context, taskID int64, mode string) error

	// GetProgress returns the current progress of the analysis
	GetProgress(taskID int64) (*Progress, error)

	// GetName returns the name of the analyzer
	GetName() string
}

// Progress represents the progress of an analysis task
type Progress struct {
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	Failed    int    `json:"failed"`
	Percent   int    `json:"percent"`
	Status    string `json:"status"`
}

// Deps is everything an analyzer factory may need
type Deps struct {
	DB        *sql.DB
	Hazards   hazard.Options
	Cost      tripcost.Params
	Validator *cleaning.Validator // nil validates with the default anchors in the hazard frame
	Metrics   *metrics.Collector
}

// BaseAnalyzer provides task bookkeeping shared by all analyzers
type BaseAnalyzer struct {
	Name  string
	Tasks *repository.AnalysisTaskRepository
}

// NewBaseAnalyzer creates a new base analyzer
func NewBaseAnalyzer(db *sql.DB, name string) *BaseAnalyzer {
	return &BaseAnalyzer{
		Name:  name,
		Tasks: repository.NewAnalysisTaskRepository(db),
	}
}

// GetName returns the analyzer name
func (a *BaseAnalyzer) GetName() string {
	return a.Name
}

// GetProgress reads the progress of a task from the database
func (a *BaseAnalyzer) GetProgress(taskID int64) (*Progress, error) {
	task, err := a.Tasks.GetByID(taskID)
	if err != nil {
		return nil, err
	}
	return &Progress{
		Processed: task.ProcessedTrips,
		Total:     task.TotalTrips,
		Failed:    task.FailedTrips,
		Percent:   task.ProgressPercent,
		Status:    task.Status,
	}, nil
}

// UpdateTaskProgress records how far a task got
func (a *BaseAnalyzer) UpdateTaskProgress(taskID int64, processed, total, failed int) error {
	percent := 0
	if total > 0 {
		percent = processed * 100 / total
	}
	return a.Tasks.UpdateProgress(taskID, processed, failed, percent)
}

// MarkTaskAsRunning marks a task as running
func (a *BaseAnalyzer) MarkTaskAsRunning(taskID int64) error {
	return a.Tasks.MarkAsRunning(taskID)
}

// MarkTaskAsCompleted stores summary as the task's JSON result
func (a *BaseAnalyzer) MarkTaskAsCompleted(taskID int64, summary interface{}) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode result summary: %w", err)
	}
	return a.Tasks.MarkAsCompleted(taskID, string(data))
}

// MarkTaskAsFailed marks a task as failed with an error message
func (a *BaseAnalyzer) MarkTaskAsFailed(taskID int64, errorMsg string) error {
	return a.Tasks.MarkAsFailed(taskID, errorMsg)
}

// AnalyzerFactory is a function that creates an analyzer instance
type AnalyzerFactory func(deps Deps) Analyzer

// AnalyzerRegistry maps skill names to analyzer factories
var AnalyzerRegistry = make(map[string]AnalyzerFactory)

// RegisterAnalyzer registers an analyzer factory for a skill name
func RegisterAnalyzer(skillName string, factory AnalyzerFactory) {
	AnalyzerRegistry[skillName] = factory
}

// GetAnalyzer retrieves an analyzer instance for a skill name
func GetAnalyzer(skillName string, deps Deps) Analyzer {
	factory, ok := AnalyzerRegistry[skillName]
	if !ok {
		return nil
	}
	return factory(deps)
}

// IsRegistered reports whether a skill has an analyzer
func IsRegistered(skillName string) bool {
	_, ok := AnalyzerRegistry[skillName]
	return ok
}

// SkillNames lists the registered skills in name order
func SkillNames() []string {
	names := make([]string, 0, len(AnalyzerRegistry))
	for name := range AnalyzerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ModeForTaskType maps a stored task type to an analysis mode
func ModeForTaskType(taskType string) string {
	if taskType == models.TaskTypeFullRecompute {
		return ModeFull
	}
	return ModeIncremental
}
