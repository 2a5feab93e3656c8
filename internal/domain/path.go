package domain

import "math"

// ThroughputMbps returns the bottleneck capacity along a path: the
// minimum per-hop capacity_mbps, per invariant 5. Returns 0 for a path
// shorter than two nodes.
func ThroughputMbps(snap GraphSnapshot, path []int32) float64 {
	if len(path) < 2 {
		return 0
	}
	min := math.Inf(1)
	for i := 0; i < len(path)-1; i++ {
		link, ok := snap.Link(path[i], path[i+1])
		if !ok {
			return 0
		}
		if link.CapacityMbps < min {
			min = link.CapacityMbps
		}
	}
	if math.IsInf(min, 1) {
		return 0
	}
	return min
}

// LatencyMsSum returns the sum of per-hop latency_ms along a path.
// Returns 0 for a path shorter than two nodes.
func LatencyMsSum(snap GraphSnapshot, path []int32) float64 {
	if len(path) < 2 {
		return 0
	}
	var total float64
	for i := 0; i < len(path)-1; i++ {
		link, ok := snap.Link(path[i], path[i+1])
		if !ok {
			return 0
		}
		total += link.LatencyMs
	}
	return total
}

// PathIsEnabled reports whether every edge along the path is currently
// enabled in the snapshot; invariant 4 requires this at dispatch time.
func PathIsEnabled(snap GraphSnapshot, path []int32) bool {
	if len(path) < 2 {
		return len(path) == 1
	}
	for i := 0; i < len(path)-1; i++ {
		link, ok := snap.Link(path[i], path[i+1])
		if !ok || !link.Enabled {
			return false
		}
	}
	return true
}
