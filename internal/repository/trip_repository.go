package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jengzang/trip-hazards/internal/database"
	"github.com/jengzang/trip-hazards/internal/models"
)

const tripColumns = `id, batch_id, name, source, sample_count,
	distance_meters, avg_speed_mps, cost, scored_at,
	hazards_at, hazard_count, qa_status, qa_reason, validated_at, created_at`

// TripRepository handles database operations for trips and their samples
type TripRepository struct {
	db *sql.DB
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{db: db}
}

// Create stores trip and its samples in one transaction and sets trip.ID.
func (r *TripRepository) Create(trip *models.Trip, path models.Path) error {
	if err := path.Validate(); err != nil {
		return err
	}
	trip.SampleCount = len(path)

	return database.Transaction(r.db, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			`INSERT INTO trips (batch_id, name, source, sample_count) VALUES (?, ?, ?, ?)`,
			trip.BatchID, trip.Name, trip.Source, trip.SampleCount,
		)
		if err != nil {
			return fmt.Errorf("failed to create trip: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}

		stmt, err := tx.Prepare(`INSERT INTO trip_samples (trip_id, seq, lon, lat, speed) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare sample insert: %w", err)
		}
		defer stmt.Close()

		for i, s := range path {
			if _, err := stmt.Exec(id, i, s.Lon, s.Lat, s.Speed); err != nil {
				return fmt.Errorf("failed to insert sample %d: %w", i, err)
			}
		}

		trip.ID = id
		trip.CreatedAt = time.Now()
		return nil
	})
}

// GetByID retrieves a single trip by ID
func (r *TripRepository) GetByID(id int64) (*models.Trip, error) {
	row := r.db.QueryRow(`SELECT `+tripColumns+` FROM trips WHERE id = ?`, id)
	t, err := scanTrip(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("trip %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return t, nil
}

// List retrieves trips with filtering and pagination, newest first
func (r *TripRepository) List(filter models.TripFilter) ([]models.Trip, int64, error) {
	var conditions []string
	var args []interface{}

	if filter.BatchID != "" {
		conditions = append(conditions, "batch_id = ?")
		args = append(args, filter.BatchID)
	}
	if filter.QAStatus != "" {
		conditions = append(conditions, "qa_status = ?")
		args = append(args, filter.QAStatus)
	}
	if filter.Scored != nil {
		if *filter.Scored {
			conditions = append(conditions, "cost IS NOT NULL")
		} else {
			conditions = append(conditions, "cost IS NULL")
		}
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM trips"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count trips: %w", err)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}
	offset := (filter.Page - 1) * filter.PageSize

	query := "SELECT " + tripColumns + " FROM trips" + where + " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	trips := []models.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate trips: %w", err)
	}

	return trips, total, nil
}

// ListBatchIDs returns the trip IDs of a batch in import order
func (r *TripRepository) ListBatchIDs(batchID string) ([]int64, error) {
	return r.queryIDs(`SELECT id FROM trips WHERE batch_id = ? ORDER BY id`, batchID)
}

// ListScored returns the scored trips of a batch in import order
func (r *TripRepository) ListScored(batchID string) ([]models.Trip, error) {
	rows, err := r.db.Query(`SELECT `+tripColumns+` FROM trips WHERE batch_id = ? AND cost IS NOT NULL ORDER BY id`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scored trips: %w", err)
	}
	defer rows.Close()

	var trips []models.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, *t)
	}
	return trips, rows.Err()
}

// ListIDs returns trip IDs for an analysis run. With pendingColumn set to
// "scored_at", "hazards_at" or "validated_at" only trips where that column is NULL are
// returned; an empty pendingColumn returns every trip.
func (r *TripRepository) ListIDs(pendingColumn string) ([]int64, error) {
	switch pendingColumn {
	case "":
		return r.queryIDs(`SELECT id FROM trips ORDER BY id`)
	case "scored_at", "hazards_at", "validated_at":
		return r.queryIDs(`SELECT id FROM trips WHERE ` + pendingColumn + ` IS NULL ORDER BY id`)
	default:
		return nil, fmt.Errorf("unknown analysis column %q", pendingColumn)
	}
}

func (r *TripRepository) queryIDs(query string, args ...interface{}) ([]int64, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trip ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan trip id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LoadPath returns the samples of a trip in recorded order
func (r *TripRepository) LoadPath(ctx context.Context, id int64) (models.Path, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT lon, lat, speed FROM trip_samples WHERE trip_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var path models.Path
	for rows.Next() {
		var lon, lat, speed sql.NullFloat64
		if err := rows.Scan(&lon, &lat, &speed); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		i := len(path)
		switch {
		case !lon.Valid:
			return nil, &models.MalformedSampleError{Index: i, Field: "lon"}
		case !lat.Valid:
			return nil, &models.MalformedSampleError{Index: i, Field: "lat"}
		case !speed.Valid:
			return nil, &models.MalformedSampleError{Index: i, Field: "speed"}
		}
		path = append(path, models.Sample{Lon: lon.Float64, Lat: lat.Float64, Speed: speed.Float64})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate samples: %w", err)
	}

	if len(path) == 0 {
		if _, err := r.GetByID(id); err != nil {
			return nil, err
		}
		return nil, models.ErrEmptyInput
	}
	return path, nil
}

// UpdateScore stores the cost evaluation of a trip
func (r *TripRepository) UpdateScore(id int64, distance, avgSpeed, cost float64) error {
	result, err := r.db.Exec(`
		UPDATE trips
		SET distance_meters = ?, avg_speed_mps = ?, cost = ?, scored_at = ?
		WHERE id = ?`,
		distance, avgSpeed, cost, time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update trip score: %w", err)
	}
	return requireRow(result, "trip", id)
}

// UpdateQA records the outcome of validating a trip
func (r *TripRepository) UpdateQA(id int64, status, reason string) error {
	result, err := r.db.Exec(`
		UPDATE trips
		SET qa_status = ?, qa_reason = ?, validated_at = ?
		WHERE id = ?`,
		status, reason, time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update trip qa: %w", err)
	}
	return requireRow(result, "trip", id)
}

// Count returns the number of stored trips
func (r *TripRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM trips`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count trips: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrip(row rowScanner) (*models.Trip, error) {
	var t models.Trip
	var createdAt int64
	err := row.Scan(
		&t.ID, &t.BatchID, &t.Name, &t.Source, &t.SampleCount,
		&t.DistanceMeters, &t.AvgSpeedMPS, &t.Cost, &t.ScoredAt,
		&t.HazardsAt, &t.HazardCount, &t.QAStatus, &t.QAReason, &t.ValidatedAt, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	t.CreatedAt = time.Unix(createdAt, 0)
	return &t, nil
}

func requireRow(result sql.Result, what string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}
