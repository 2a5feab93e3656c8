// Package aco implements an ant-colony route solver over a graph
// snapshot: a fixed number of ants per iteration each construct a
// source-to-destination path by sampling pheromone-weighted transition
// probabilities, with local and global pheromone updates and an
// optional max-min clamp (MMAS) applied between iterations.
package aco

import (
	"context"
	"math"
	"math/rand"

	"sagsin/internal/domain"
	"sagsin/internal/objective"
)

// =============================================================================
// Ant Colony Optimization route solver
// =============================================================================
//
// Each ant walks from src toward dst one hop at a time. At every node it
// either exploits the best-known transition (probability Q0) or samples
// proportionally to tau^Alpha * eta^Beta across its unvisited neighbors,
// where eta is the inverse edge cost. An ant that reaches a node with no
// unvisited, enabled neighbors is a dead end and contributes no path.
//
// Pheromone updates happen at two points: a local update on the edge an
// ant just took (decaying it toward Tau0), and a global update once per
// iteration that reinforces the best path seen so far in both
// directions. With MMAS enabled, every pheromone value is clamped to
// [TauMin, TauMax] after the global update.
// =============================================================================

// Params tunes a Solver run.
type Params struct {
	Ants   int
	Iters  int
	Alpha  float64
	Beta   float64
	Rho    float64
	Xi     float64
	Q0     float64
	Tau0   float64
	MMAS   bool
	TauMin float64
	TauMax float64
}

// Result is the outcome of a Solve call.
type Result struct {
	// Path is the sequence of node ids from src to dst, inclusive. Nil
	// if no ant ever reached dst.
	Path []int32
	// Cost is the summed directed edge cost along Path. +Inf if Path
	// is nil.
	Cost float64
	// Canceled reports whether ctx was done before all iterations ran;
	// Path/Cost hold the best result found up to that point.
	Canceled bool
}

// Solver runs repeated ant constructions over a fixed graph snapshot
// and a fixed edge-cost table, evolving its own pheromone table across
// calls to Solve. A Solver is not safe for concurrent use; callers
// wanting concurrent solves should each build their own.
type Solver struct {
	snap   domain.GraphSnapshot
	costs  map[objective.DirectedKey]float64
	tau    map[objective.DirectedKey]float64
	params Params
	rng    *rand.Rand
}

// New builds a Solver over snap: edge costs are computed once from
// weights and never change for the life of the Solver, and the
// pheromone table is initialized to Tau0 for every directed edge that
// has a cost. rng must be non-nil; callers share one *rand.Rand across
// Solve calls (or seed it themselves) to get reproducible runs.
func New(snap domain.GraphSnapshot, weights objective.Weights, params Params, rng *rand.Rand) *Solver {
	costs := objective.EdgeCosts(snap, weights)
	tau := make(map[objective.DirectedKey]float64, len(costs))
	for k := range costs {
		tau[k] = params.Tau0
	}
	return &Solver{snap: snap, costs: costs, tau: tau, params: params, rng: rng}
}

// eta is the heuristic desirability of an edge: the inverse of its cost.
func (s *Solver) eta(u, v int32) float64 {
	c := s.costs[objective.DirectedKey{U: u, V: v}]
	if c < 1e-9 {
		c = 1e-9
	}
	return 1.0 / c
}

// neighbors returns u's out-neighbors that carry a cost entry and whose
// link is currently enabled, in the snapshot's deterministic (sorted)
// adjacency order.
func (s *Solver) neighbors(u int32) []int32 {
	all := s.snap.Neighbors(u)
	out := make([]int32, 0, len(all))
	for _, v := range all {
		if _, ok := s.costs[objective.DirectedKey{U: u, V: v}]; !ok {
			continue
		}
		if l, ok := s.snap.Link(u, v); ok && l.Enabled {
			out = append(out, v)
		}
	}
	return out
}

// Solve runs Params.Iters iterations of Params.Ants ant constructions
// each, returning the best src-to-dst path found. ctx is checked once
// per iteration; a cancellation stops the search early and returns the
// best result found so far.
func (s *Solver) Solve(ctx context.Context, src, dst int32) Result {
	var bestPath []int32
	bestCost := math.Inf(1)

	for iter := 0; iter < s.params.Iters; iter++ {
		select {
		case <-ctx.Done():
			return Result{Path: bestPath, Cost: bestCost, Canceled: true}
		default:
		}

		for a := 0; a < s.params.Ants; a++ {
			path, cost := s.constructAnt(src, dst)
			if path != nil && cost < bestCost {
				bestCost = cost
				bestPath = path
			}
		}

		if bestPath != nil {
			s.globalUpdate(bestPath, bestCost)
		}
		if s.params.MMAS {
			s.clampAll()
		}
	}

	return Result{Path: bestPath, Cost: bestCost}
}

// constructAnt walks a single ant from src to dst, applying the local
// pheromone update on every hop it takes. It returns (nil, +Inf) if the
// ant reaches a dead end before reaching dst.
func (s *Solver) constructAnt(src, dst int32) ([]int32, float64) {
	path := []int32{src}
	visited := map[int32]bool{src: true}
	cur := src
	cost := 0.0

	for cur != dst {
		nbrs := s.unvisitedNeighbors(cur, visited)
		if len(nbrs) == 0 {
			return nil, math.Inf(1)
		}

		next := s.selectNext(cur, nbrs)

		key := objective.DirectedKey{U: cur, V: next}
		s.tau[key] = (1-s.params.Xi)*s.tau[key] + s.params.Xi*s.params.Tau0

		cost += s.costs[key]
		path = append(path, next)
		visited[next] = true
		cur = next
	}

	return path, cost
}

// unvisitedNeighbors filters neighbors(u) down to nodes not yet on the
// current ant's path.
func (s *Solver) unvisitedNeighbors(u int32, visited map[int32]bool) []int32 {
	all := s.neighbors(u)
	out := make([]int32, 0, len(all))
	for _, v := range all {
		if !visited[v] {
			out = append(out, v)
		}
	}
	return out
}

// selectNext picks the next hop out of u's unvisited neighbors: with
// probability Q0 it exploits the single best transition (ties broken by
// nbrs' order, i.e. ascending node id); otherwise it samples
// proportionally to tau^Alpha * eta^Beta.
func (s *Solver) selectNext(u int32, nbrs []int32) int32 {
	scores := make([]float64, len(nbrs))
	for i, v := range nbrs {
		key := objective.DirectedKey{U: u, V: v}
		scores[i] = math.Pow(s.tau[key], s.params.Alpha) * math.Pow(s.eta(u, v), s.params.Beta)
	}

	if s.rng.Float64() < s.params.Q0 {
		best := 0
		for i := 1; i < len(scores); i++ {
			if scores[i] > scores[best] {
				best = i
			}
		}
		return nbrs[best]
	}

	sum := 0.0
	for _, sc := range scores {
		sum += sc
	}
	if sum <= 0 {
		return nbrs[s.rng.Intn(len(nbrs))]
	}

	r := s.rng.Float64()
	acc := 0.0
	for i, sc := range scores {
		acc += sc / sum
		if r <= acc {
			return nbrs[i]
		}
	}
	return nbrs[len(nbrs)-1]
}

// globalUpdate reinforces every edge on path, in both directions, by
// the inverse of cost; Solve passes the best path and cost found so far
// across all iterations.
func (s *Solver) globalUpdate(path []int32, cost float64) {
	delta := 1.0 / math.Max(cost, 1e-9)
	rho := s.params.Rho
	for i := 0; i < len(path)-1; i++ {
		u, v := path[i], path[i+1]
		fwd, rev := objective.DirectedKey{U: u, V: v}, objective.DirectedKey{U: v, V: u}
		if _, ok := s.tau[fwd]; ok {
			s.tau[fwd] = (1-rho)*s.tau[fwd] + rho*delta
		}
		if _, ok := s.tau[rev]; ok {
			s.tau[rev] = (1-rho)*s.tau[rev] + rho*delta
		}
	}
}

// clampAll restricts every pheromone value to [TauMin, TauMax].
func (s *Solver) clampAll() {
	for k, v := range s.tau {
		if v < s.params.TauMin {
			v = s.params.TauMin
		}
		if v > s.params.TauMax {
			v = s.params.TauMax
		}
		s.tau[k] = v
	}
}
