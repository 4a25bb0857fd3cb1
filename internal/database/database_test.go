package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_AppliesMigrations(t *testing.T) {
	db, err := Open(Config{Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"trips", "trip_samples", "hazards", "analysis_tasks"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, table)
	}

	var versions int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&versions))
	assert.Equal(t, 4, versions)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "trips.db")

	db, err := Open(Config{Path: path})
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO trips (name) VALUES ('a')")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(Config{Path: path})
	require.NoError(t, err)
	defer db.Close()

	var trips int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM trips").Scan(&trips))
	assert.Equal(t, 1, trips)
}

func TestOpen_ForeignKeys(t *testing.T) {
	db, err := Open(Config{Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("INSERT INTO trip_samples (trip_id, seq, lon, lat, speed) VALUES (42, 0, 0, 0, 0)")
	assert.Error(t, err)
}
