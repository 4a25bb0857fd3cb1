package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jengzang/trip-hazards/internal/database"
	"github.com/jengzang/trip-hazards/internal/models"
)

// HazardRepository handles database operations for detected hazards
type HazardRepository struct {
	db *sql.DB
}

// NewHazardRepository creates a new hazard repository
func NewHazardRepository(db *sql.DB) *HazardRepository {
	return &HazardRepository{db: db}
}

// ReplaceForTrip swaps the stored hazards of a trip for hazards and records
// when detection ran.
func (r *HazardRepository) ReplaceForTrip(tripID int64, hazards []models.Hazard) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			`UPDATE trips SET hazards_at = ?, hazard_count = ? WHERE id = ?`,
			time.Now().Unix(), len(hazards), tripID,
		)
		if err != nil {
			return fmt.Errorf("failed to update trip: %w", err)
		}
		if err := requireRow(result, "trip", tripID); err != nil {
			return err
		}

		if _, err := tx.Exec(`DELETE FROM hazards WHERE trip_id = ?`, tripID); err != nil {
			return fmt.Errorf("failed to delete hazards: %w", err)
		}

		stmt, err := tx.Prepare(`INSERT INTO hazards (trip_id, kind, sample_index, lat, lon) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare hazard insert: %w", err)
		}
		defer stmt.Close()

		for _, h := range hazards {
			if _, err := stmt.Exec(tripID, string(h.Kind), h.Index, h.Point.Lat, h.Point.Lon); err != nil {
				return fmt.Errorf("failed to insert hazard: %w", err)
			}
		}
		return nil
	})
}

// ListByTrip returns the hazards of a trip in detection order
func (r *HazardRepository) ListByTrip(tripID int64) ([]models.StoredHazard, error) {
	rows, err := r.db.Query(`
		SELECT id, trip_id, kind, sample_index, lat, lon
		FROM hazards
		WHERE trip_id = ?
		ORDER BY id`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to query hazards: %w", err)
	}
	defer rows.Close()

	hazards := []models.StoredHazard{}
	for rows.Next() {
		var h models.StoredHazard
		var kind string
		if err := rows.Scan(&h.ID, &h.TripID, &kind, &h.Index, &h.Point.Lat, &h.Point.Lon); err != nil {
			return nil, fmt.Errorf("failed to scan hazard: %w", err)
		}
		h.Kind = models.HazardKind(kind)
		hazards = append(hazards, h)
	}
	return hazards, rows.Err()
}

// CountByKind returns how many stored hazards there are of each kind
func (r *HazardRepository) CountByKind() (map[models.HazardKind]int, error) {
	rows, err := r.db.Query(`SELECT kind, COUNT(*) FROM hazards GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to count hazards: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.HazardKind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan hazard count: %w", err)
		}
		counts[models.HazardKind(kind)] = n
	}
	return counts, rows.Err()
}
