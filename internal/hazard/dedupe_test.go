package hazard

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/trip-hazards/internal/models"
)

func hazardAt(x, y float64, kind models.HazardKind, index int) models.Hazard {
	return models.Hazard{Kind: kind, Point: at(x, y, 0).Point(), Index: index}
}

func TestDedupe_Empty(t *testing.T) {
	assert.Empty(t, Dedupe(nil, testFrame, 30))
}

func TestDedupe_KeepsSeedOfEachGroup(t *testing.T) {
	in := []models.Hazard{
		hazardAt(0, 0, models.HazardStop, 0),
		hazardAt(500, 0, models.HazardStop, 1),
		hazardAt(10, 0, models.HazardLeftTurn, 2),
		hazardAt(505, 5, models.HazardLeftTurn, 3),
	}

	out := Dedupe(in, testFrame, 30)
	assert.Equal(t, []models.Hazard{in[0], in[1]}, out)
}

func TestDedupe_SinglePassPerSeed(t *testing.T) {
	// The walk visits c before b. c is 40 m from a, so it is not absorbed
	// even though b, 20 m from c, joins a's group afterwards.
	a := hazardAt(0, 0, models.HazardStop, 0)
	b := hazardAt(20, 0, models.HazardStop, 1)
	c := hazardAt(40, 0, models.HazardStop, 2)

	out := Dedupe([]models.Hazard{a, b, c}, testFrame, 30)
	assert.Equal(t, []models.Hazard{a, c}, out)
}

func TestDedupe_LaterSeedsFormOwnGroups(t *testing.T) {
	// Walking back from a visits d, c, b: only b joins. c then seeds its
	// own group and picks up d.
	a := hazardAt(0, 0, models.HazardStop, 0)
	b := hazardAt(25, 0, models.HazardStop, 1)
	c := hazardAt(50, 0, models.HazardStop, 2)
	d := hazardAt(60, 0, models.HazardStop, 3)

	out := Dedupe([]models.Hazard{a, b, c, d}, testFrame, 30)
	assert.Equal(t, []models.Hazard{a, c}, out)
}

func TestDedupe_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	in := make([]models.Hazard, 200)
	for i := range in {
		in[i] = hazardAt(rng.Float64()*400, rng.Float64()*400, models.HazardStop, i)
	}

	out := Dedupe(in, testFrame, 30)
	require.NotEmpty(t, out)
	assert.LessOrEqual(t, len(out), len(in))

	seen := make(map[int]bool)
	for _, h := range out {
		assert.Equal(t, in[h.Index], h, "output hazard not from input")
		assert.False(t, seen[h.Index], "hazard %d kept twice", h.Index)
		seen[h.Index] = true
	}

	for i := range out {
		for j := i + 1; j < len(out); j++ {
			assert.GreaterOrEqual(t, testFrame.Distance(out[i].Point, out[j].Point), 30.0)
		}
	}

	assert.Equal(t, out, Dedupe(out, testFrame, 30))
}

func TestDedupe_GrowsGroupDuringWalk(t *testing.T) {
	// c is visited first and joins; b is 40 m from a but only 20 m from c.
	a := hazardAt(0, 0, models.HazardStop, 0)
	b := hazardAt(40, 0, models.HazardLeftTurn, 1)
	c := hazardAt(20, 0, models.HazardLeftTurn, 2)

	out := Dedupe([]models.Hazard{a, b, c}, testFrame, 30)
	assert.Equal(t, []models.Hazard{a}, out)
}
