package aco

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sagsin/internal/domain"
	"sagsin/internal/objective"
)

func seedSnapshot() domain.GraphSnapshot {
	nodes := map[int32]domain.Node{
		0: {ID: 0, Kind: domain.KindGround},
		1: {ID: 1, Kind: domain.KindGround},
		2: {ID: 2, Kind: domain.KindSatellite},
	}
	links := []domain.Link{
		{U: 0, V: 1, LatencyMs: 1, CapacityMbps: 100, EnergyJ: 1, Reliability: 0.99, Enabled: true},
		{U: 0, V: 2, LatencyMs: 5, CapacityMbps: 50, EnergyJ: 2, Reliability: 0.9, Enabled: true},
		{U: 1, V: 2, LatencyMs: 5, CapacityMbps: 50, EnergyJ: 2, Reliability: 0.9, Enabled: true},
	}
	edgeIndex := map[domain.EdgeKey]int{}
	adj := map[int32][]int32{}
	for i, l := range links {
		edgeIndex[domain.EdgeKey{U: l.U, V: l.V}] = i
		adj[l.U] = append(adj[l.U], l.V)
		adj[l.V] = append(adj[l.V], l.U)
	}
	return domain.GraphSnapshot{Nodes: nodes, Links: links, EdgeIndex: edgeIndex, Adj: adj}
}

func defaultParams() Params {
	return Params{
		Ants: 10, Iters: 20,
		Alpha: 1.0, Beta: 3.0, Rho: 0.2, Xi: 0.1, Q0: 0.2,
		Tau0: 0.2, MMAS: true, TauMin: 0.01, TauMax: 2.0,
	}
}

func TestSolve_FindsDirectHop(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := New(seedSnapshot(), objective.DefaultWeights(), defaultParams(), rng)

	res := s.Solve(context.Background(), 0, 1)
	require.NotNil(t, res.Path)
	assert.Equal(t, int32(0), res.Path[0])
	assert.Equal(t, int32(1), res.Path[len(res.Path)-1])
	assert.False(t, res.Canceled)
}

func TestSolve_DeterministicForFixedSeed(t *testing.T) {
	snap := seedSnapshot()
	w := objective.DefaultWeights()

	s1 := New(snap, w, defaultParams(), rand.New(rand.NewSource(7)))
	r1 := s1.Solve(context.Background(), 0, 2)

	s2 := New(snap, w, defaultParams(), rand.New(rand.NewSource(7)))
	r2 := s2.Solve(context.Background(), 0, 2)

	assert.Equal(t, r1.Path, r2.Path)
	assert.Equal(t, r1.Cost, r2.Cost)
}

func TestSolve_UnreachableDestinationYieldsNoPath(t *testing.T) {
	nodes := map[int32]domain.Node{
		0: {ID: 0, Kind: domain.KindGround},
		1: {ID: 1, Kind: domain.KindGround},
	}
	snap := domain.GraphSnapshot{Nodes: nodes, Links: nil, EdgeIndex: map[domain.EdgeKey]int{}, Adj: map[int32][]int32{}}

	rng := rand.New(rand.NewSource(1))
	s := New(snap, objective.DefaultWeights(), defaultParams(), rng)

	res := s.Solve(context.Background(), 0, 1)
	assert.Nil(t, res.Path)
	assert.True(t, math.IsInf(res.Cost, 1))
}

func TestSolve_SameSrcDst(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := New(seedSnapshot(), objective.DefaultWeights(), defaultParams(), rng)

	res := s.Solve(context.Background(), 0, 0)
	assert.Equal(t, []int32{0}, res.Path)
	assert.Equal(t, 0.0, res.Cost)
}

func TestSolve_RespectsCanceledContext(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := New(seedSnapshot(), objective.DefaultWeights(), defaultParams(), rng)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := s.Solve(ctx, 0, 1)
	assert.True(t, res.Canceled)
}

func TestSolve_IgnoresDisabledDirectLink(t *testing.T) {
	snap := seedSnapshot()
	for i := range snap.Links {
		if snap.Links[i].U == 0 && snap.Links[i].V == 1 {
			snap.Links[i].Enabled = false
		}
	}

	rng := rand.New(rand.NewSource(3))
	s := New(snap, objective.DefaultWeights(), defaultParams(), rng)

	res := s.Solve(context.Background(), 0, 1)
	require.NotNil(t, res.Path)
	assert.Greater(t, len(res.Path), 2, "must relay through node 2 once the direct hop is disabled")
}
