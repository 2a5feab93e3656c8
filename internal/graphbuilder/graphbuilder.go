// Package graphbuilder materializes a domain.GraphState from a node
// population: for every unordered pair within its kind-pair max range
// and in line of sight, it computes link-budget attributes and appends
// one canonical, enabled link.
package graphbuilder

import (
	"sagsin/internal/domain"
	"sagsin/internal/geo"
	"sagsin/internal/linkbudget"
)

// MaxRangeTable holds the admission cutoff, in kilometers, for every
// unordered kind pair. Pairs not present fall back to Default.
type MaxRangeTable struct {
	Default float64
	ByPair  map[PairKey]float64
}

// PairKey is an unordered pair of node kinds.
type PairKey struct {
	A, B domain.Kind
}

// canonicalPairKey normalizes a pair so {ground,sat} and {sat,ground}
// look up the same entry.
func canonicalPairKey(a, b domain.Kind) PairKey {
	if a <= b {
		return PairKey{A: a, B: b}
	}
	return PairKey{A: b, B: a}
}

// DefaultMaxRangeTable mirrors the documented config defaults (§6.3):
// generous space-segment ranges, tighter surface-to-surface ranges.
func DefaultMaxRangeTable() MaxRangeTable {
	return MaxRangeTable{
		Default: 500,
		ByPair: map[PairKey]float64{
			canonicalPairKey(domain.KindGround, domain.KindGround):    50,
			canonicalPairKey(domain.KindGround, domain.KindAir):       300,
			canonicalPairKey(domain.KindGround, domain.KindSea):       200,
			canonicalPairKey(domain.KindGround, domain.KindSatellite): 2000,
			canonicalPairKey(domain.KindAir, domain.KindAir):          500,
			canonicalPairKey(domain.KindAir, domain.KindSea):          400,
			canonicalPairKey(domain.KindAir, domain.KindSatellite):    2500,
			canonicalPairKey(domain.KindSea, domain.KindSea):          300,
			canonicalPairKey(domain.KindSea, domain.KindSatellite):    2500,
			canonicalPairKey(domain.KindSatellite, domain.KindSatellite): 3000,
		},
	}
}

// MaxRange returns the admission cutoff for a kind pair.
func (t MaxRangeTable) MaxRange(a, b domain.Kind) float64 {
	if v, ok := t.ByPair[canonicalPairKey(a, b)]; ok {
		return v
	}
	return t.Default
}

// Build runs the deterministic O(n^2) admission pass over nodes: every
// unordered pair within max range and in LOS gets one canonical,
// enabled link. Node iteration order (by id, ascending) makes the
// resulting adjacency lists deterministic.
func Build(nodes []domain.Node, params linkbudget.Params, ranges MaxRangeTable) *domain.GraphState {
	links := make([]domain.Link, 0)

	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			u, v := nodes[i], nodes[j]

			pu := geo.Position{LatDeg: u.LatDeg, LonDeg: u.LonDeg, AltM: u.AltM}
			pv := geo.Position{LatDeg: v.LatDeg, LonDeg: v.LonDeg, AltM: v.AltM}

			d := geo.HaversineKm(pu, pv)
			if d > ranges.MaxRange(u.Kind, v.Kind) {
				continue
			}
			// The horizon-sum LOS test is only meaningful when curvature
			// is actually in play, i.e. at least one endpoint has
			// altitude. Two surface nodes (ground/sea at alt=0) reach
			// each other by terrestrial backhaul, not radio LOS, so they
			// are gated by range alone; elevation_min_deg stays reserved
			// for a future LOS-test variant, per config.
			if (u.AltM > 0 || v.AltM > 0) && !geo.LineOfSight(pu, pv) {
				continue
			}

			m := linkbudget.Compute(params, d, string(u.Kind), string(v.Kind))

			a, b := u.ID, v.ID
			if a > b {
				a, b = b, a
			}
			links = append(links, domain.Link{
				U:            a,
				V:            b,
				LatencyMs:    m.LatencyMs,
				CapacityMbps: m.CapacityMbps,
				EnergyJ:      m.EnergyJ,
				Reliability:  m.Reliability,
				Enabled:      true,
			})
		}
	}

	return domain.NewGraphState(nodes, links)
}
