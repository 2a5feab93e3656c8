// Package linkbudget computes the per-link radio metrics the graph
// builder attaches to every admissible edge: free-space path loss,
// SNR, Shannon capacity, propagation latency, transmit energy, and a
// distance-based reliability heuristic.
package linkbudget

import "math"

// kmPerMs is the speed of light expressed in kilometers per millisecond,
// used to convert propagation distance directly into milliseconds.
const kmPerMs = 299.792458

// Params bundles the radio parameters shared by every link computed in
// a single graph build; they come from configuration (link_model.*).
type Params struct {
	FreqHz      float64
	BWHz        float64
	PTxDBm      float64
	NoiseDBm    float64
	ProcQueueMs float64
}

// Endpoint carries the attributes of a link's source or destination
// node that affect its budget: only the kind, for the κ coefficients.
type Endpoint struct {
	Kind string
}

// Metrics holds the computed attributes of one link.
type Metrics struct {
	LatencyMs    float64
	CapacityMbps float64
	EnergyJ      float64
	Reliability  float64
}

// FSPLDB returns the free-space path loss in decibels for a distance
// (kilometers, clamped away from zero to keep log10 finite) and carrier
// frequency in Hz.
func FSPLDB(dKm, freqHz float64) float64 {
	if dKm <= 0 {
		dKm = 0.001
	}
	return 20*math.Log10(dKm) + 20*math.Log10(freqHz) - 147.55
}

// SNRLinear returns the linear signal-to-noise ratio given a path loss,
// transmit power, and noise floor, clamped to a strictly positive floor
// so downstream capacity/heuristic math never divides by or logs zero.
func SNRLinear(fsplDB, pTxDBm, noiseDBm float64) float64 {
	rxDBm := pTxDBm - fsplDB
	snrDB := rxDBm - noiseDBm
	lin := math.Pow(10, snrDB/10)
	if lin < 1e-6 {
		return 1e-6
	}
	return lin
}

// CapacityMbps applies the Shannon-Hartley bound to a bandwidth and
// linear SNR, returning megabits per second.
func CapacityMbps(bwHz, snrLinear float64) float64 {
	return (bwHz * math.Log2(1+snrLinear)) / 1e6
}

// LatencyMs returns the one-way latency in milliseconds: propagation
// delay over the link distance plus a fixed processing/queueing term.
func LatencyMs(dKm, procQueueMs float64) float64 {
	return dKm/kmPerMs + procQueueMs
}

// EnergyJ returns the transmit energy in joules for a hop of the given
// duration, scaled by a per-kind coefficient: satellites and aircraft
// spend more energy per hop than ground/sea transmitters.
func EnergyJ(durationMs, pTxDBm float64, srcKind string) float64 {
	mw := math.Pow(10, pTxDBm/10)
	w := mw / 1000.0
	return w * (durationMs / 1000.0) * kappaEnergy(srcKind)
}

func kappaEnergy(kind string) float64 {
	switch kind {
	case "sat":
		return 1.5
	case "air":
		return 1.2
	default:
		return 1.0
	}
}

// Reliability returns a heuristic reliability in [0,1] for a link of
// the given distance between two node kinds: satellite-involving links
// start from a lower base, and reliability degrades with distance.
func Reliability(dKm float64, kindA, kindB string) float64 {
	base := 1.0
	if kindA == "sat" || kindB == "sat" {
		base = 0.9
	}
	if dKm > 0 {
		base *= math.Max(0.1, 1.0-dKm/5000.0)
	}
	return clamp01(base)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Compute runs the full link-budget pipeline for a link of the given
// distance between two node kinds, returning every attribute the
// graph builder attaches to an edge.
func Compute(p Params, dKm float64, kindA, kindB string) Metrics {
	fspl := FSPLDB(dKm, p.FreqHz)
	snr := SNRLinear(fspl, p.PTxDBm, p.NoiseDBm)
	capacity := CapacityMbps(p.BWHz, snr)
	latency := LatencyMs(dKm, p.ProcQueueMs)
	energy := EnergyJ(latency, p.PTxDBm, kindA)
	reliability := Reliability(dKm, kindA, kindB)

	return Metrics{
		LatencyMs:    latency,
		CapacityMbps: capacity,
		EnergyJ:      energy,
		Reliability:  reliability,
	}
}
