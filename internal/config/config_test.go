package config

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/trip-hazards/internal/hazard"
	"github.com/jengzang/trip-hazards/internal/spatial"
	"github.com/jengzang/trip-hazards/internal/tripcost"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, time.Minute, cfg.RateWindow)
	assert.Equal(t, hazard.DefaultOptions(), cfg.HazardOptions())
	assert.Equal(t, tripcost.DefaultParams(), cfg.CostParams())
	assert.Equal(t, 100.0, cfg.Validator().MaxJumpM)
	assert.EqualValues(t, 32<<20, cfg.MaxUploadBytes)
	assert.Equal(t, 4, cfg.BestWorkers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("STOP_WINDOW", "3")
	t.Setenv("TURN_MIN_ANGLE", "4.5")
	t.Setenv("COST_SPEED_RATIO", "100")
	t.Setenv("FRAME_LON_RATIO", "80000")
	t.Setenv("RATE_WINDOW", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.RateWindow)

	opts := cfg.HazardOptions()
	assert.Equal(t, 3, opts.Stops.Window)
	assert.InDelta(t, 4.5, opts.Turns.MinAngle.Radians(), 1e-12)
	assert.InDelta(t, 1.75*math.Pi, opts.Turns.MaxAngle.Radians(), 1e-12)
	assert.Equal(t, 80000.0, opts.Frame.LonMeters)

	params := cfg.CostParams()
	assert.Equal(t, 100.0, params.SpeedRatio)
	assert.Equal(t, opts.Frame, params.Frame)
}

func TestLoad_Malformed(t *testing.T) {
	t.Setenv("STOP_MAX_SPEED", "slow")
	t.Setenv("RATE_LIMIT", "lots")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT", "first malformed variable in load order is reported")
}

func TestLoad_FrameFromReference(t *testing.T) {
	t.Setenv("FRAME_REF_LAT", "43.1")
	t.Setenv("FRAME_REF_LON", "-77.5")

	cfg, err := Load()
	require.NoError(t, err)

	want := spatial.FrameAt(spatial.Point{Lat: 43.1, Lon: -77.5})
	assert.Equal(t, want, cfg.Frame())
	assert.Equal(t, want, cfg.HazardOptions().Frame)
	assert.Equal(t, want, cfg.Validator().Frame)

	t.Setenv("FRAME_LON_RATIO", "80000")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, want.LatMeters, cfg.FrameLatRatio)
	assert.Equal(t, 80000.0, cfg.FrameLonRatio, "explicit ratio wins over the reference")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		key  string
	}{
		{"zero lat ratio", map[string]string{"FRAME_LAT_RATIO": "0"}, "FRAME_LAT_RATIO"},
		{"negative lon ratio", map[string]string{"FRAME_LON_RATIO": "-81210"}, "FRAME_LON_RATIO"},
		{"inverted turn band", map[string]string{"TURN_MIN_ANGLE": "5", "TURN_MAX_ANGLE": "4"}, "TURN_MIN_ANGLE"},
		{"negative dedup distance", map[string]string{"DEDUP_MIN_DISTANCE_M": "-1"}, "DEDUP_MIN_DISTANCE_M"},
		{"negative upload limit", map[string]string{"MAX_UPLOAD_BYTES": "-5"}, "MAX_UPLOAD_BYTES"},
		{"no workers", map[string]string{"BEST_WORKERS": "0"}, "BEST_WORKERS"},
		{"empty stop window", map[string]string{"STOP_WINDOW": "0"}, "STOP_WINDOW"},
		{"reference without longitude", map[string]string{"FRAME_REF_LAT": "43.1"}, "FRAME_REF_LAT"},
		{"reference at the pole", map[string]string{"FRAME_REF_LAT": "90", "FRAME_REF_LON": "0"}, "FRAME_REF_LAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
