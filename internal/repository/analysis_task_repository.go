package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jengzang/trip-hazards/internal/models"
)

const taskColumns = `id, skill_name, task_type, status, progress_percent,
	params_json, total_trips, processed_trips, failed_trips,
	start_time, end_time, result_summary, error_message,
	created_by, created_at, updated_at`

// AnalysisTaskRepository handles database operations for analysis tasks
type AnalysisTaskRepository struct {
	db *sql.DB
}

// NewAnalysisTaskRepository creates a new analysis task repository
func NewAnalysisTaskRepository(db *sql.DB) *AnalysisTaskRepository {
	return &AnalysisTaskRepository{db: db}
}

// Create creates a new analysis task
func (r *AnalysisTaskRepository) Create(task *models.AnalysisTask) error {
	query := `
		INSERT INTO analysis_tasks (
			skill_name, task_type, status, progress_percent, params_json,
			total_trips, processed_trips, failed_trips, created_by
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		task.SkillName,
		task.TaskType,
		task.Status,
		task.ProgressPercent,
		task.ParamsJSON,
		task.TotalTrips,
		task.ProcessedTrips,
		task.FailedTrips,
		task.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	task.ID = id
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	return nil
}

// GetByID retrieves an analysis task by ID
func (r *AnalysisTaskRepository) GetByID(id int64) (*models.AnalysisTask, error) {
	row := r.db.QueryRow(`SELECT `+taskColumns+` FROM analysis_tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis task: %w", err)
	}
	return task, nil
}

// List retrieves analysis tasks with optional filters, newest first
func (r *AnalysisTaskRepository) List(skillName string, status string, limit int, offset int) ([]*models.AnalysisTask, error) {
	query := `SELECT ` + taskColumns + ` FROM analysis_tasks WHERE 1=1`

	args := []interface{}{}
	if skillName != "" {
		query += " AND skill_name = ?"
		args = append(args, skillName)
	}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.AnalysisTask{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis task: %w", err)
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// SetTotal records how many trips the task will process
func (r *AnalysisTaskRepository) SetTotal(id int64, totalTrips int) error {
	_, err := r.db.Exec(`
		UPDATE analysis_tasks
		SET total_trips = ?, updated_at = ?
		WHERE id = ?`, totalTrips, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to set task total: %w", err)
	}
	return nil
}

// UpdateProgress updates the progress of an analysis task
func (r *AnalysisTaskRepository) UpdateProgress(id int64, processedTrips int, failedTrips int, progressPercent int) error {
	query := `
		UPDATE analysis_tasks
		SET processed_trips = ?, failed_trips = ?, progress_percent = ?,
			updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.Exec(query, processedTrips, failedTrips, progressPercent, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update task progress: %w", err)
	}

	return nil
}

// MarkAsRunning marks a task as running
func (r *AnalysisTaskRepository) MarkAsRunning(id int64) error {
	now := time.Now().Unix()
	_, err := r.db.Exec(`
		UPDATE analysis_tasks
		SET status = ?, start_time = ?, updated_at = ?
		WHERE id = ?`, models.TaskStatusRunning, now, now, id)
	if err != nil {
		return fmt.Errorf("failed to mark task as running: %w", err)
	}
	return nil
}

// MarkAsCompleted marks a task as completed with result summary
func (r *AnalysisTaskRepository) MarkAsCompleted(id int64, resultSummary string) error {
	now := time.Now().Unix()
	_, err := r.db.Exec(`
		UPDATE analysis_tasks
		SET status = ?, end_time = ?, result_summary = ?,
			progress_percent = 100, updated_at = ?
		WHERE id = ? AND status != ?`, models.TaskStatusCompleted, now, resultSummary, now, id, models.TaskStatusCancelled)
	if err != nil {
		return fmt.Errorf("failed to mark task as completed: %w", err)
	}
	return nil
}

// MarkAsFailed marks a task as failed with an error message
func (r *AnalysisTaskRepository) MarkAsFailed(id int64, errorMessage string) error {
	return r.finish(id, models.TaskStatusFailed, errorMessage)
}

// MarkAsCancelled marks a pending or running task as cancelled. Tasks that
// already finished are left alone and reported with ErrNotFound.
func (r *AnalysisTaskRepository) MarkAsCancelled(id int64) error {
	now := time.Now().Unix()
	result, err := r.db.Exec(`
		UPDATE analysis_tasks
		SET status = ?, end_time = ?, error_message = 'cancelled', updated_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		models.TaskStatusCancelled, now, now, id, models.TaskStatusPending, models.TaskStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to cancel task: %w", err)
	}
	return requireRow(result, "active analysis task", id)
}

func (r *AnalysisTaskRepository) finish(id int64, status, errorMessage string) error {
	now := time.Now().Unix()
	_, err := r.db.Exec(`
		UPDATE analysis_tasks
		SET status = ?, end_time = ?, error_message = ?, updated_at = ?
		WHERE id = ? AND status != ?`, status, now, errorMessage, now, id, models.TaskStatusCancelled)
	if err != nil {
		return fmt.Errorf("failed to mark task as %s: %w", status, err)
	}
	return nil
}

func scanTask(row rowScanner) (*models.AnalysisTask, error) {
	task := &models.AnalysisTask{}
	var createdAt, updatedAt int64
	err := row.Scan(
		&task.ID,
		&task.SkillName,
		&task.TaskType,
		&task.Status,
		&task.ProgressPercent,
		&task.ParamsJSON,
		&task.TotalTrips,
		&task.ProcessedTrips,
		&task.FailedTrips,
		&task.StartTime,
		&task.EndTime,
		&task.ResultSummary,
		&task.ErrorMessage,
		&task.CreatedBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.CreatedAt = time.Unix(createdAt, 0)
	task.UpdatedAt = time.Unix(updatedAt, 0)
	return task, nil
}
