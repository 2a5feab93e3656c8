// Package mobility advances the simulated topology between graph
// rebuilds: an epoch updater that flips link availability and drifts
// satellite/air/sea node positions, and a continuous, epoch-independent
// position-drift function used by read-only position queries.
package mobility

import (
	"math"
	"math/rand"

	"sagsin/internal/domain"
)

// degPerSec is the longitude drift rate for kinds that move, in degrees
// per simulated second.
var degPerSec = map[domain.Kind]float64{
	domain.KindSatellite: 0.15,
	domain.KindAir:       0.02,
	domain.KindSea:       0.005,
}

// jitterKm is the latitude jitter amplitude for kinds that move, in
// kilometers.
var jitterKm = map[domain.Kind]float64{
	domain.KindAir:       1.0,
	domain.KindSea:       0.2,
	domain.KindSatellite: 0.0,
}

// EpochParams tunes a single call to Epoch.
type EpochParams struct {
	// LinkFlipProb is the probability that any given link's Enabled
	// flag is toggled this epoch.
	LinkFlipProb float64
	// SpeedMultiplier scales how far a node moves per epoch tick,
	// matching the same knob the continuous drift function uses.
	SpeedMultiplier float64
}

// Epoch advances the simulation by one tick: every link independently
// has a LinkFlipProb chance of toggling Enabled, and every satellite,
// air, or sea node drifts in longitude (plus latitude jitter for
// air/sea) according to degPerSec/jitterKm. Ground nodes never move.
// rng must be non-nil; callers share one *rand.Rand across epochs to
// keep the sequence reproducible under a fixed seed.
func Epoch(nodes []domain.Node, links []domain.Link, rng *rand.Rand, p EpochParams) ([]domain.Node, []domain.Link) {
	outNodes := make([]domain.Node, len(nodes))
	for i, n := range nodes {
		outNodes[i] = driftNode(n, 1.0, p.SpeedMultiplier, rng)
	}

	outLinks := make([]domain.Link, len(links))
	for i, l := range links {
		if rng.Float64() < p.LinkFlipProb {
			l.Enabled = !l.Enabled
		}
		outLinks[i] = l
	}

	return outNodes, outLinks
}

// driftNode moves a single node one tick's worth of longitude drift
// plus latitude jitter, at the given tick duration in simulated
// seconds scaled by speedMultiplier. Ground nodes are returned
// unchanged.
func driftNode(n domain.Node, tickSec, speedMultiplier float64, rng *rand.Rand) domain.Node {
	dps, moves := degPerSec[n.Kind]
	if !moves {
		return n
	}

	out := n.Clone()
	out.LonDeg = wrapLon(out.LonDeg + dps*tickSec*speedMultiplier)

	if jk := jitterKm[n.Kind]; jk > 0 {
		delta := (rng.Float64()*2 - 1) * jk / 111.0
		out.LatDeg = clampLat(out.LatDeg + delta)
	}

	return out
}

// wrapLon folds a longitude value back into [-180, 180).
func wrapLon(lonDeg float64) float64 {
	l := math.Mod(lonDeg+180.0, 360.0)
	if l < 0 {
		l += 360.0
	}
	return l - 180.0
}

// clampLat clamps a latitude value to [-90, 90].
func clampLat(latDeg float64) float64 {
	if latDeg > 90 {
		return 90
	}
	if latDeg < -90 {
		return -90
	}
	return latDeg
}

// PositionsAt computes each node's drifted position at simulated time
// nowSec, independent of and in addition to the epoch updater's
// discrete moves: the positions endpoint reports continuous motion
// between epochs rather than snapshotting the last epoch tick. Ground
// nodes are returned unchanged; satellites drift in longitude only;
// air and sea nodes additionally pick up a deterministic sinusoidal
// latitude jitter seeded by the node's own id so repeated calls at the
// same nowSec are stable.
func PositionsAt(nodes []domain.Node, nowSec, speedMultiplier float64) []domain.Node {
	out := make([]domain.Node, len(nodes))
	for i, n := range nodes {
		dps, moves := degPerSec[n.Kind]
		if !moves {
			out[i] = n
			continue
		}

		d := n.Clone()
		d.LonDeg = wrapLon(n.LonDeg + dps*nowSec*speedMultiplier)

		if jk := jitterKm[n.Kind]; jk > 0 {
			phase := nowSec*speedMultiplier/17.0 + float64(n.ID)
			d.LatDeg = clampLat(n.LatDeg + math.Sin(phase)*jk/111.0)
		}

		out[i] = d
	}
	return out
}
