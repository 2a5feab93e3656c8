package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThroughputMbps_Bottleneck(t *testing.T) {
	g := seedGraph()
	snap := g.Snapshot()

	got := ThroughputMbps(snap, []int32{0, 2, 1})
	assert.InDelta(t, 30, got, 1e-9)
}

func TestLatencyMsSum_AddsHops(t *testing.T) {
	g := seedGraph()
	snap := g.Snapshot()

	got := LatencyMsSum(snap, []int32{0, 2, 1})
	assert.InDelta(t, 5.3+5.4, got, 1e-9)
}

func TestPathIsEnabled(t *testing.T) {
	g := seedGraph()
	snap := g.Snapshot()
	assert.True(t, PathIsEnabled(snap, []int32{0, 1}))

	g.SetEnabled(0, 1, false)
	assert.True(t, PathIsEnabled(snap, []int32{0, 1}), "snapshot predates the toggle")
	assert.False(t, PathIsEnabled(g.Snapshot(), []int32{0, 1}))
}

func TestThroughputMbps_ShortPath(t *testing.T) {
	g := seedGraph()
	assert.Equal(t, float64(0), ThroughputMbps(g.Snapshot(), []int32{0}))
}
