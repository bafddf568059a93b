package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		name       string
		sizes      []int
		policy     OpenPolicy
		canOpen    bool
		wantLane   int
		wantOpened bool
	}{
		{"no lanes opens", nil, OpenLazy, true, 0, true},
		{"shortest under threshold", []int{2, 1, 2}, OpenLazy, true, 1, false},
		{"tie picks lowest index", []int{1, 1}, OpenLazy, true, 0, false},
		{"full lane skipped", []int{3, 2}, OpenLazy, true, 1, false},
		{"all full opens", []int{3, 3}, OpenLazy, true, 2, true},
		{"all full cannot open picks least loaded", []int{4, 3, 5}, OpenLazy, false, 1, false},
		{"eager opens when any lane full", []int{3, 0}, OpenEager, true, 2, true},
		{"eager without full lane picks shortest", []int{2, 1}, OpenEager, true, 1, false},
		{"eager cannot open uses under threshold", []int{3, 1}, OpenEager, false, 1, false},
		{"empty policy behaves lazy", []int{3, 2}, "", true, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Route(tt.sizes, 3, tt.policy, tt.canOpen)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLane, d.Lane)
			assert.Equal(t, tt.wantOpened, d.Opened)
			assert.NotEmpty(t, d.Reason)
		})
	}
}

func TestRoute_NoLanesCannotOpen(t *testing.T) {
	_, err := Route(nil, 3, OpenLazy, false)
	assert.True(t, errors.Is(err, ErrNoLanesAvailable))
}

func TestRoute_ThresholdBelowOnePanics(t *testing.T) {
	assert.Panics(t, func() { _, _ = Route([]int{0}, 0, OpenLazy, true) })
}

func TestAdmissionRouter_OpensLaneWhenAllFull(t *testing.T) {
	// GIVEN threshold 3 and a single lane
	r := NewAdmissionRouter(RouterConfig{Threshold: 3, InitialLanes: 1, Privileged: Critical})

	// WHEN admitting four normal entities
	var laneIDs []int
	var opened []bool
	for i := 1; i <= 4; i++ {
		d, lane, err := r.Admit(NewEntity(i, float64(i-1), 5, Normal))
		require.NoError(t, err)
		laneIDs = append(laneIDs, lane.ID())
		opened = append(opened, d.Opened)
	}

	// THEN the fourth opens lane 2
	assert.Equal(t, []int{1, 1, 1, 2}, laneIDs)
	assert.Equal(t, []bool{false, false, false, true}, opened)
	lanes := r.Lanes()
	require.Len(t, lanes, 2)
	assert.Equal(t, 3, lanes[0].Len())
	assert.Equal(t, 1, lanes[1].Len())
	assert.Equal(t, Critical, lanes[1].Privileged())
}

func TestAdmissionRouter_BalancesAcrossLanes(t *testing.T) {
	// GIVEN two lanes open from the start
	r := NewAdmissionRouter(RouterConfig{Threshold: 10, InitialLanes: 2})

	// WHEN admitting five entities
	for i := 1; i <= 5; i++ {
		_, _, err := r.Admit(NewEntity(i, 0, 1, Normal))
		require.NoError(t, err)
	}

	// THEN the shortest lane is always chosen, lowest index on ties
	lanes := r.Lanes()
	assert.Equal(t, 3, lanes[0].Len())
	assert.Equal(t, 2, lanes[1].Len())
}

func TestAdmissionRouter_MaxLanesFallsBackToLeastLoaded(t *testing.T) {
	r := NewAdmissionRouter(RouterConfig{Threshold: 2, InitialLanes: 1, MaxLanes: 2})
	for i := 1; i <= 7; i++ {
		_, _, err := r.Admit(NewEntity(i, 0, 1, Normal))
		require.NoError(t, err)
	}
	lanes := r.Lanes()
	require.Len(t, lanes, 2)
	assert.Equal(t, 4, lanes[0].Len())
	assert.Equal(t, 3, lanes[1].Len())
}

func TestAdmissionRouter_ZeroInitialLanesOpensOnDemand(t *testing.T) {
	r := NewAdmissionRouter(RouterConfig{Threshold: 1, InitialLanes: 0, MaxLanes: 1})
	_, lane, err := r.Admit(NewEntity(1, 0, 1, Normal))
	require.NoError(t, err)
	assert.Equal(t, 1, lane.ID())
	_, lane, err = r.Admit(NewEntity(2, 0, 1, Normal))
	require.NoError(t, err)
	assert.Equal(t, 1, lane.ID(), "cap reached: least-loaded lane takes the overflow")
}

func TestAdmissionRouter_LazyNeverExceedsThreshold(t *testing.T) {
	r := NewAdmissionRouter(RouterConfig{Threshold: 4, InitialLanes: 1})
	for i := 1; i <= 103; i++ {
		_, _, err := r.Admit(NewEntity(i, 0, 1, Normal))
		require.NoError(t, err)
	}
	total := 0
	for _, l := range r.Lanes() {
		assert.LessOrEqual(t, l.Len(), 4)
		total += l.Len()
	}
	assert.Equal(t, 103, total)
	assert.Len(t, r.Lanes(), 26)
	assert.Equal(t, 4, r.Threshold())
}

func TestNewAdmissionRouter_InvalidConfigPanics(t *testing.T) {
	assert.Panics(t, func() { NewAdmissionRouter(RouterConfig{Threshold: 0}) })
	assert.Panics(t, func() { NewAdmissionRouter(RouterConfig{Threshold: 1, InitialLanes: -1}) })
}

func TestIsValidOpenPolicy(t *testing.T) {
	assert.True(t, IsValidOpenPolicy("lazy"))
	assert.True(t, IsValidOpenPolicy("eager"))
	assert.True(t, IsValidOpenPolicy(""))
	assert.False(t, IsValidOpenPolicy("greedy"))
}
