package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triage-sim/triage-sim/sim"
)

func TestGenerateEntities_DefaultSpec(t *testing.T) {
	// GIVEN the reference day
	spec := DefaultSpec()

	// WHEN generating
	entities, err := GenerateEntities(&spec)

	// THEN ids are 1..N, arrivals start at 08:00 and are 1 to 6 minutes apart
	require.NoError(t, err)
	require.Len(t, entities, 100)
	assert.Equal(t, 480.0, entities[0].ArrivalTime)
	for i, e := range entities {
		assert.Equal(t, i+1, e.ID)
		assert.False(t, e.IsServiced())
		assert.GreaterOrEqual(t, e.ServiceTime, DefaultMinService)
		if i > 0 {
			gap := e.ArrivalTime - entities[i-1].ArrivalTime
			assert.GreaterOrEqual(t, gap, 1.0)
			assert.Less(t, gap, 6.0)
		}
	}
}

func TestGenerateEntities_Deterministic(t *testing.T) {
	spec := DefaultSpec()
	a, err := GenerateEntities(&spec)
	require.NoError(t, err)
	b, err := GenerateEntities(&spec)
	require.NoError(t, err)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, *a[i], *b[i], "entity %d", i+1)
	}

	spec.Seed = 43
	c, err := GenerateEntities(&spec)
	require.NoError(t, err)
	differs := false
	for i := range a {
		if a[i].ServiceTime != c[i].ServiceTime || a[i].Priority != c[i].Priority {
			differs = true
			break
		}
	}
	assert.True(t, differs, "different seeds should give different workloads")
}

func TestGenerateEntities_ClassMixMatchesWeights(t *testing.T) {
	spec := DefaultSpec()
	spec.Patients = 20000
	entities, err := GenerateEntities(&spec)
	require.NoError(t, err)

	counts := map[sim.PriorityClass]int{}
	for _, e := range entities {
		counts[e.Priority]++
	}
	n := float64(len(entities))
	assert.InDelta(t, 0.80, float64(counts[sim.Normal])/n, 0.02)
	assert.InDelta(t, 0.15, float64(counts[sim.Critical])/n, 0.02)
	assert.InDelta(t, 0.05, float64(counts[sim.Emergency])/n, 0.01)
}

func TestGenerateEntities_ZeroWeightClassNeverPicked(t *testing.T) {
	spec := DefaultSpec()
	spec.Patients = 2000
	spec.Classes[2].Weight = 0
	entities, err := GenerateEntities(&spec)
	require.NoError(t, err)
	for _, e := range entities {
		require.NotEqual(t, sim.Emergency, e.Priority)
	}
}

func TestGenerateEntities_ZeroPatients(t *testing.T) {
	spec := DefaultSpec()
	spec.Patients = 0
	entities, err := GenerateEntities(&spec)
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestGenerateEntities_InvalidSpec(t *testing.T) {
	spec := DefaultSpec()
	spec.Arrival.Process = ""
	_, err := GenerateEntities(&spec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid workload spec")
}
