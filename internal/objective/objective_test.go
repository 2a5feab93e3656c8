package objective

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sagsin/internal/domain"
)

func seedSnapshot() domain.GraphSnapshot {
	g := domain.NewGraphState(
		[]domain.Node{{ID: 0}, {ID: 1}, {ID: 2}},
		[]domain.Link{
			{U: 0, V: 1, LatencyMs: 2, CapacityMbps: 50, EnergyJ: 0.01, Reliability: 0.95, Enabled: true},
			{U: 0, V: 2, LatencyMs: 5, CapacityMbps: 30, EnergyJ: 0.02, Reliability: 0.8, Enabled: true},
			{U: 1, V: 2, LatencyMs: 5, CapacityMbps: 30, EnergyJ: 0.02, Reliability: 0.8, Enabled: false},
		},
	)
	return g.Snapshot()
}

func TestNormalize_DegenerateRange(t *testing.T) {
	assert.Equal(t, 0.0, normalize(5, 5, 5))
}

func TestEdgeCosts_StrictlyPositive(t *testing.T) {
	costs := EdgeCosts(seedSnapshot(), DefaultWeights())
	require.NotEmpty(t, costs)
	for _, c := range costs {
		assert.Greater(t, c, 0.0)
	}
}

func TestEdgeCosts_ExcludesDisabledLinks(t *testing.T) {
	costs := EdgeCosts(seedSnapshot(), DefaultWeights())
	_, ok := Cost(costs, 1, 2)
	assert.False(t, ok)
}

func TestEdgeCosts_SymmetricDirections(t *testing.T) {
	costs := EdgeCosts(seedSnapshot(), DefaultWeights())
	fwd, ok1 := Cost(costs, 0, 1)
	rev, ok2 := Cost(costs, 1, 0)
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, fwd, rev)
}

func TestEdgeCosts_WeightOverrideShiftsDominantTerm(t *testing.T) {
	relOnly := Weights{Latency: 0, InvCapacity: 0, Energy: 0, InvReliability: 1}
	costs := EdgeCosts(seedSnapshot(), relOnly)

	directCost, _ := Cost(costs, 0, 1) // higher reliability
	relayCost, _ := Cost(costs, 0, 2)  // lower reliability

	assert.Less(t, directCost, relayCost)
}
