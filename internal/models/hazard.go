package models

import "github.com/jengzang/trip-hazards/internal/spatial"

// HazardKind distinguishes the detector that produced a hazard
type HazardKind string

// HazardKind constants
const (
	HazardStop     HazardKind = "stop"
	HazardLeftTurn HazardKind = "left_turn"
)

// Hazard is a position along a path where the driver stopped or turned
// left. Index is the path sample the hazard was taken from.
type Hazard struct {
	Kind  HazardKind    `json:"kind"`
	Point spatial.Point `json:"point"`
	Index int           `json:"index"`
}

// StoredHazard is a hazard persisted for a trip
type StoredHazard struct {
	ID     int64 `json:"id" db:"id"`
	TripID int64 `json:"trip_id" db:"trip_id"`
	Hazard
}

// HazardTotals counts stored trips and their hazards
type HazardTotals struct {
	Trips   int                `json:"trips"`
	Hazards map[HazardKind]int `json:"hazards"`
}
