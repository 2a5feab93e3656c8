// Package routecache caches ACO route-solve results keyed by a
// canonical hash of the graph's enabled-edge topology plus the request
// parameters, so repeated /route calls between epochs (when nothing
// has actually changed) skip the solver entirely.
package routecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"sagsin/internal/domain"
	"sagsin/internal/objective"
	"sagsin/pkg/cache"
)

// CachedRoute is the JSON-serialized form of a route solve stored
// under a Key.
type CachedRoute struct {
	Path       []int32   `json:"path"`
	Cost       float64   `json:"cost"`
	Method     string    `json:"method"` // "aco" or "bfs_fallback"
	ComputedAt time.Time `json:"computed_at"`
}

// Cache wraps a generic byte cache with route-specific key building
// and JSON (de)serialization.
type Cache struct {
	backend    cache.Cache
	defaultTTL time.Duration
}

// New builds a route Cache over backend. defaultTTL falls back to 30s
// when non-positive, which spans three epoch ticks at the default 10s
// cadence.
func New(backend cache.Cache, defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Second
	}
	return &Cache{backend: backend, defaultTTL: defaultTTL}
}

// Get looks up a cached route for the given key. The second return
// value is false on a cache miss or a corrupt entry (which is then
// evicted), never an error the caller must handle specially.
func (c *Cache) Get(ctx context.Context, key string) (*CachedRoute, bool, error) {
	data, err := c.backend.Get(ctx, key)
	if err != nil {
		if err == cache.ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("routecache: get: %w", err)
	}

	var route CachedRoute
	if err := json.Unmarshal(data, &route); err != nil {
		_ = c.backend.Delete(ctx, key) //nolint:errcheck // best-effort cleanup of a corrupt entry
		return nil, false, nil
	}
	return &route, true, nil
}

// Set stores a route under key with the Cache's default TTL.
func (c *Cache) Set(ctx context.Context, key string, route CachedRoute) error {
	route.ComputedAt = time.Now()
	data, err := json.Marshal(route)
	if err != nil {
		return fmt.Errorf("routecache: marshal: %w", err)
	}
	if err := c.backend.Set(ctx, key, data, c.defaultTTL); err != nil {
		return fmt.Errorf("routecache: set: %w", err)
	}
	return nil
}

// InvalidateAll drops every cached route, for callers that change the
// topology out of band (a config reload, a manual link toggle) and
// want the next /route call to always resolve live.
func (c *Cache) InvalidateAll(ctx context.Context) (int64, error) {
	n, err := c.backend.DeleteByPattern(ctx, "route:*")
	if err != nil {
		return 0, fmt.Errorf("routecache: invalidate all: %w", err)
	}
	return n, nil
}

// Key builds a cache key from a canonical hash of the snapshot's
// enabled-edge topology, the weights used to cost it, and the
// requested src/dst pair. Two snapshots that differ only in disabled
// links' attributes, or in node ordering, hash identically; any change
// visible to the solver (an edge flipping enabled, a weight changing)
// changes the hash.
func Key(snap domain.GraphSnapshot, src, dst int32, weights objective.Weights) string {
	h := sha256.Sum256(canonicalize(snap, src, dst, weights))
	return fmt.Sprintf("route:%d:%d:%s", src, dst, hex.EncodeToString(h[:16]))
}

// canonicalize produces a deterministic byte representation of the
// parts of a snapshot that affect a route solve: every enabled link's
// endpoints and link-budget attributes, sorted for order-independence.
func canonicalize(snap domain.GraphSnapshot, src, dst int32, w objective.Weights) []byte {
	type linkFields struct {
		u, v                                          int32
		latencyMs, capacityMbps, energyJ, reliability float64
	}
	links := make([]linkFields, 0, len(snap.Links))
	for _, l := range snap.Links {
		if !l.Enabled {
			continue
		}
		links = append(links, linkFields{l.U, l.V, l.LatencyMs, l.CapacityMbps, l.EnergyJ, l.Reliability})
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].u != links[j].u {
			return links[i].u < links[j].u
		}
		return links[i].v < links[j].v
	})

	buf := []byte(fmt.Sprintf("src:%d;dst:%d;w:%.6f,%.6f,%.6f,%.6f;",
		src, dst, w.Latency, w.InvCapacity, w.Energy, w.InvReliability))
	for _, l := range links {
		buf = append(buf, []byte(fmt.Sprintf("e:%d:%d:%.6f:%.6f:%.6f:%.6f;",
			l.u, l.v, l.latencyMs, l.capacityMbps, l.energyJ, l.reliability))...)
	}
	return buf
}
