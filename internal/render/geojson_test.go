package render

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/trip-hazards/internal/hazard"
	"github.com/jengzang/trip-hazards/internal/models"
	"github.com/jengzang/trip-hazards/internal/spatial"
)

// straight returns n samples 10 m apart heading east with a tiny wobble.
func straight(n int) models.Path {
	path := make(models.Path, n)
	for i := range path {
		wobble := 0.0
		if i%2 == 1 {
			wobble = 0.1 / spatial.NewYorkFrame.LatMeters
		}
		path[i] = models.Sample{
			Lon:   -77.5 + float64(i)*10/spatial.NewYorkFrame.LonMeters,
			Lat:   43.1 + wobble,
			Speed: 20,
		}
	}
	return path
}

func TestRenderer_AddPath(t *testing.T) {
	r := NewRenderer(spatial.NewYorkFrame)
	r.AddPath(straight(11), 0)

	fc := r.Collection()
	require.Len(t, fc.Features, 1)
	ls, ok := fc.Features[0].Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Len(t, ls, 11)
	assert.Equal(t, "trip", fc.Features[0].Properties["type"])
	assert.InDelta(t, 100, fc.Features[0].Properties["distance_meters"], 0.1)
}

func TestRenderer_AddPathSimplified(t *testing.T) {
	path := straight(11)
	r := NewRenderer(spatial.NewYorkFrame)
	r.AddPath(path, 1)

	ls := r.Collection().Features[0].Geometry.(orb.LineString)
	require.Len(t, ls, 2, "sub-meter wobble is removed")
	assert.InDelta(t, path[0].Lon, ls[0][0], 1e-9)
	assert.InDelta(t, path[10].Lat, ls[1][1], 1e-9)
}

func TestRenderer_Hazards(t *testing.T) {
	r := NewRenderer(spatial.NewYorkFrame)
	hazards := []models.Hazard{
		{Kind: models.HazardStop, Point: spatial.Point{Lat: 43.1, Lon: -77.5}, Index: 3},
		{Kind: models.HazardLeftTurn, Point: spatial.Point{Lat: 43.2, Lon: -77.4}, Index: 9},
	}
	hazard.Emit(r, hazards, map[models.HazardKind]string{models.HazardStop: "redMarker"})

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "FeatureCollection", decoded.Type)
	require.Len(t, decoded.Features, 2)
	assert.Equal(t, []float64{-77.5, 43.1}, decoded.Features[0].Geometry.Coordinates)
	assert.Equal(t, "redMarker", decoded.Features[0].Properties["style"])
	assert.Equal(t, "left_turn", decoded.Features[1].Properties["style"])
	assert.Equal(t, float64(9), decoded.Features[1].Properties["index"])
}
