package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/trip-hazards/internal/database"
	"github.com/jengzang/trip-hazards/internal/models"
	"github.com/jengzang/trip-hazards/internal/spatial"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func samplePath(n int) models.Path {
	path := make(models.Path, n)
	for i := range path {
		path[i] = models.Sample{Lon: -77.5 + float64(i)*0.0001, Lat: 43.1, Speed: float64(i)}
	}
	return path
}

func createTrip(t *testing.T, repo *TripRepository, batch, name string, n int) *models.Trip {
	t.Helper()
	trip := &models.Trip{BatchID: batch, Name: name, Source: name + ".kml"}
	require.NoError(t, repo.Create(trip, samplePath(n)))
	return trip
}

func TestTripRepository_CreateAndLoad(t *testing.T) {
	repo := NewTripRepository(openTestDB(t))

	trip := createTrip(t, repo, "b1", "monday", 4)
	assert.NotZero(t, trip.ID)
	assert.Equal(t, 4, trip.SampleCount)

	got, err := repo.GetByID(trip.ID)
	require.NoError(t, err)
	assert.Equal(t, "monday", got.Name)
	assert.Equal(t, "b1", got.BatchID)
	assert.Nil(t, got.Cost)
	assert.Nil(t, got.HazardsAt)

	path, err := repo.LoadPath(context.Background(), trip.ID)
	require.NoError(t, err)
	assert.Equal(t, samplePath(4), path)
}

func TestTripRepository_CreateEmpty(t *testing.T) {
	repo := NewTripRepository(openTestDB(t))
	err := repo.Create(&models.Trip{Name: "empty"}, nil)
	assert.ErrorIs(t, err, models.ErrEmptyInput)

	n, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTripRepository_NotFound(t *testing.T) {
	repo := NewTripRepository(openTestDB(t))

	_, err := repo.GetByID(99)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.LoadPath(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.UpdateScore(99, 1, 2, 3), ErrNotFound)
}

func TestTripRepository_ScoreAndFilters(t *testing.T) {
	repo := NewTripRepository(openTestDB(t))
	a := createTrip(t, repo, "b1", "a", 3)
	b := createTrip(t, repo, "b1", "b", 3)
	c := createTrip(t, repo, "b2", "c", 3)

	require.NoError(t, repo.UpdateScore(b.ID, 1200, 11.5, -90000))

	scored, err := repo.GetByID(b.ID)
	require.NoError(t, err)
	require.NotNil(t, scored.Cost)
	assert.Equal(t, -90000.0, *scored.Cost)
	assert.NotNil(t, scored.ScoredAt)

	ids, err := repo.ListIDs("scored_at")
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, c.ID}, ids)

	ids, err = repo.ListIDs("")
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	_, err = repo.ListIDs("name")
	assert.Error(t, err)

	ids, err = repo.ListBatchIDs("b1")
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, b.ID}, ids)

	yes := true
	trips, total, err := repo.List(models.TripFilter{Scored: &yes})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, trips, 1)
	assert.Equal(t, b.ID, trips[0].ID)

	trips, total, err = repo.List(models.TripFilter{BatchID: "b1", PageSize: 1, Page: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, trips, 1)
	assert.Equal(t, a.ID, trips[0].ID, "newest first")
}

func TestHazardRepository_Replace(t *testing.T) {
	db := openTestDB(t)
	trips := NewTripRepository(db)
	repo := NewHazardRepository(db)
	trip := createTrip(t, trips, "", "a", 10)

	first := []models.Hazard{
		{Kind: models.HazardStop, Point: spatial.Point{Lat: 43.1, Lon: -77.5}, Index: 0},
		{Kind: models.HazardLeftTurn, Point: spatial.Point{Lat: 43.1, Lon: -77.4995}, Index: 5},
	}
	require.NoError(t, repo.ReplaceForTrip(trip.ID, first))
	require.NoError(t, repo.ReplaceForTrip(trip.ID, first[1:]))

	stored, err := repo.ListByTrip(trip.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, first[1], stored[0].Hazard)
	assert.Equal(t, trip.ID, stored[0].TripID)

	got, err := trips.GetByID(trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.HazardCount)
	assert.NotNil(t, got.HazardsAt)

	counts, err := repo.CountByKind()
	require.NoError(t, err)
	assert.Equal(t, map[models.HazardKind]int{models.HazardLeftTurn: 1}, counts)

	pending, err := trips.ListIDs("hazards_at")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestHazardRepository_UnknownTrip(t *testing.T) {
	repo := NewHazardRepository(openTestDB(t))
	err := repo.ReplaceForTrip(7, []models.Hazard{{Kind: models.HazardStop}})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAnalysisTaskRepository_Lifecycle(t *testing.T) {
	repo := NewAnalysisTaskRepository(openTestDB(t))

	task := &models.AnalysisTask{
		SkillName: "trip_cost",
		TaskType:  models.TaskTypeIncremental,
		Status:    models.TaskStatusPending,
		CreatedBy: "admin",
	}
	require.NoError(t, repo.Create(task))
	require.NotZero(t, task.ID)

	require.NoError(t, repo.MarkAsRunning(task.ID))
	require.NoError(t, repo.SetTotal(task.ID, 4))
	require.NoError(t, repo.UpdateProgress(task.ID, 2, 1, 50))

	got, err := repo.GetByID(task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusRunning, got.Status)
	assert.Equal(t, 4, got.TotalTrips)
	assert.Equal(t, 1, got.FailedTrips)
	assert.Equal(t, 50, got.ProgressPercent)
	assert.NotZero(t, got.StartTime)

	require.NoError(t, repo.MarkAsCompleted(task.ID, `{"scored":3}`))
	got, err = repo.GetByID(task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, got.Status)
	assert.Equal(t, 100, got.ProgressPercent)
	assert.Equal(t, `{"scored":3}`, got.ResultSummary)

	assert.ErrorIs(t, repo.MarkAsCancelled(task.ID), ErrNotFound, "finished tasks cannot be cancelled")
}

func TestAnalysisTaskRepository_CancelSticks(t *testing.T) {
	repo := NewAnalysisTaskRepository(openTestDB(t))
	task := &models.AnalysisTask{SkillName: "hazard_detection", TaskType: models.TaskTypeFullRecompute, Status: models.TaskStatusPending}
	require.NoError(t, repo.Create(task))

	require.NoError(t, repo.MarkAsCancelled(task.ID))
	require.NoError(t, repo.MarkAsCompleted(task.ID, "{}"))
	require.NoError(t, repo.MarkAsFailed(task.ID, "late"))

	got, err := repo.GetByID(task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCancelled, got.Status)
	assert.Equal(t, "cancelled", got.ErrorMessage)
}

func TestAnalysisTaskRepository_List(t *testing.T) {
	repo := NewAnalysisTaskRepository(openTestDB(t))
	for _, skill := range []string{"trip_cost", "hazard_detection", "trip_cost"} {
		require.NoError(t, repo.Create(&models.AnalysisTask{SkillName: skill, TaskType: models.TaskTypeIncremental, Status: models.TaskStatusPending}))
	}

	tasks, err := repo.List("trip_cost", "", 10, 0)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Greater(t, tasks[0].ID, tasks[1].ID)

	tasks, err = repo.List("", models.TaskStatusRunning, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTripRepository_QAAndScoredLists(t *testing.T) {
	repo := NewTripRepository(openTestDB(t))
	a := createTrip(t, repo, "b1", "a", 3)
	b := createTrip(t, repo, "b1", "b", 3)

	require.NoError(t, repo.UpdateQA(a.ID, models.QAStatusRejected, "trip rejected: too short"))
	assert.ErrorIs(t, repo.UpdateQA(99, models.QAStatusPassed, ""), ErrNotFound)

	got, err := repo.GetByID(a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QAStatusRejected, got.QAStatus)
	assert.Equal(t, "trip rejected: too short", got.QAReason)
	assert.NotNil(t, got.ValidatedAt)

	ids, err := repo.ListIDs("validated_at")
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, ids)

	require.NoError(t, repo.UpdateScore(b.ID, 100, 5, -10))
	scored, err := repo.ListScored("b1")
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, b.ID, scored[0].ID)

	scored, err = repo.ListScored("missing")
	require.NoError(t, err)
	assert.Empty(t, scored)
}
