package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/trip-hazards/internal/kml"
	"github.com/jengzang/trip-hazards/internal/models"
)

// stopped sits still for six samples and then drives off east.
func stopped() models.Path {
	var path models.Path
	for i := 0; i < 6; i++ {
		path = append(path, models.Sample{Lon: -77.5, Lat: 43.1, Speed: 0})
	}
	for i := 1; i <= 5; i++ {
		path = append(path, models.Sample{Lon: -77.5 + float64(i)*0.0001, Lat: 43.1, Speed: 20})
	}
	return path
}

func TestRun_AnnotatesInPlace(t *testing.T) {
	file := filepath.Join(t.TempDir(), "trip.kml")
	var buf bytes.Buffer
	require.NoError(t, kml.Write(&buf, kml.NewDocument("trip", stopped(), kml.DefaultStyles())))
	require.NoError(t, os.WriteFile(file, buf.Bytes(), 0o600))

	var out bytes.Buffer
	require.NoError(t, run([]string{"-n", file}, &out))
	assert.Equal(t, file+": 1 hazards\n", out.String())
	unchanged, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), unchanged)

	out.Reset()
	require.NoError(t, run([]string{file}, &out))
	annotated, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(annotated), "<Point>"))

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	path, err := kml.Decode(bytes.NewReader(annotated))
	require.NoError(t, err)
	assert.Equal(t, stopped(), path)
}

func TestRun_Usage(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(nil, &out))
	assert.Error(t, run([]string{filepath.Join(t.TempDir(), "missing.kml")}, &out))
}
