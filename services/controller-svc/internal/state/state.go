// Package state owns the controller's single source of truth: the
// current node population and graph, the epoch/mobility loop, and the
// knobs (speed multiplier, solver weights) every HTTP handler reads or
// mutates. All graph access goes through sync.RWMutex-guarded methods,
// mirroring the source controller's single STATE_LOCK.
package state

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"sagsin/internal/aco"
	"sagsin/internal/domain"
	"sagsin/internal/eventbus"
	"sagsin/internal/graphbuilder"
	"sagsin/internal/linkbudget"
	"sagsin/internal/mobility"
	"sagsin/internal/nodeloader"
	"sagsin/internal/objective"
	"sagsin/internal/routecache"
	"golang.org/x/sync/errgroup"

	"sagsin/pkg/apperror"
	"sagsin/pkg/config"
	"sagsin/pkg/logger"
	"sagsin/pkg/metrics"
)

// Controller holds the simulated topology and every knob that governs
// how it evolves and is solved over.
type Controller struct {
	mu sync.RWMutex

	graph      *domain.GraphState
	nodes      []domain.Node // the epoch loop's authoritative positions, pre continuous-drift
	generation int64         // bumped on every topology-affecting mutation
	startedAt  time.Time

	linkParams linkbudget.Params
	ranges     graphbuilder.MaxRangeTable
	acoParams  aco.Params
	weights    objective.Weights

	epochSec        time.Duration
	speedMultiplier float64
	rng             *rand.Rand

	cfg     *config.Config
	bus     *eventbus.Bus
	cache   *routecache.Cache
	metrics *metrics.Metrics

	sessions errgroup.Group // tracks in-flight send-packet sessions for drain-on-shutdown

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// TrackSession registers fn as one in-flight send-packet session so a
// graceful shutdown can wait for it. fn should never return an error
// that matters to the caller; send-packet's two legs swallow their own
// failures into logs, since the HTTP response has already been sent by
// the time they run.
func (c *Controller) TrackSession(fn func() error) {
	c.sessions.Go(fn)
}

// DrainSessions waits for every tracked session to finish, or for ctx
// to expire first.
func (c *Controller) DrainSessions(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- c.sessions.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// New builds a Controller from cfg, loading its node population from
// cfg.NodeSource.FilePath (falling back to the toy seed graph when
// unset or unreadable) and constructing the initial graph.
func New(cfg *config.Config, bus *eventbus.Bus, cache *routecache.Cache, m *metrics.Metrics) (*Controller, error) {
	nodes, err := loadNodes(cfg)
	if err != nil {
		return nil, apperror.Config(err, "failed to load initial node population")
	}

	weights := weightsFromConfig(cfg)
	linkParams := linkbudget.Params{
		FreqHz:      cfg.LinkModel.FreqHz,
		BWHz:        cfg.LinkModel.BWHz,
		PTxDBm:      cfg.LinkModel.PTxDBm,
		NoiseDBm:    cfg.LinkModel.NoiseDBm,
		ProcQueueMs: cfg.LinkModel.ProcQueueMs,
	}
	ranges := rangesFromConfig(cfg)

	c := &Controller{
		graph:           graphbuilder.Build(nodes, linkParams, ranges),
		nodes:           nodes,
		generation:      1,
		startedAt:       time.Now(),
		linkParams:      linkParams,
		ranges:          ranges,
		acoParams:       acoParamsFromConfig(cfg),
		weights:         weights,
		epochSec:        cfg.Sim.EpochSec,
		speedMultiplier: cfg.Sim.SpeedMultiplier,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
		cfg:             cfg,
		bus:             bus,
		cache:           cache,
		metrics:         m,
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
	c.metrics.SetGraphSize(c.graph.NodeCount(), c.graph.LinkCount())
	return c, nil
}

func loadNodes(cfg *config.Config) ([]domain.Node, error) {
	if cfg.NodeSource.FilePath == "" {
		return nodeloader.Toy(), nil
	}
	nodes, err := nodeloader.Load(cfg.NodeSource.FilePath)
	if err != nil {
		logger.Warn("falling back to toy node graph", "path", cfg.NodeSource.FilePath, "error", err)
		return nodeloader.Toy(), nil
	}
	return nodes, nil
}

func weightsFromConfig(cfg *config.Config) objective.Weights {
	if len(cfg.ACO.Weights) != 4 {
		return objective.DefaultWeights()
	}
	return objective.Weights{
		Latency:        cfg.ACO.Weights[0],
		InvCapacity:    cfg.ACO.Weights[1],
		Energy:         cfg.ACO.Weights[2],
		InvReliability: cfg.ACO.Weights[3],
	}
}

func acoParamsFromConfig(cfg *config.Config) aco.Params {
	return aco.Params{
		Ants: cfg.ACO.Ants, Iters: cfg.ACO.Iters,
		Alpha: cfg.ACO.Alpha, Beta: cfg.ACO.Beta,
		Rho: cfg.ACO.Rho, Xi: cfg.ACO.Xi, Q0: cfg.ACO.Q0,
		Tau0: cfg.ACO.Tau0, MMAS: cfg.ACO.MMAS,
		TauMin: cfg.ACO.TauMin, TauMax: cfg.ACO.TauMax,
	}
}

func rangesFromConfig(cfg *config.Config) graphbuilder.MaxRangeTable {
	if len(cfg.Sim.MaxRangeKm) == 0 {
		return graphbuilder.DefaultMaxRangeTable()
	}
	table := graphbuilder.DefaultMaxRangeTable()
	for pair, km := range cfg.Sim.MaxRangeKm {
		if pair == "default" {
			table.Default = km
			continue
		}
		a, b, ok := splitPairKey(pair)
		if !ok {
			continue
		}
		table.ByPair[pairKeyOf(a, b)] = km
	}
	return table
}

// Nodes returns a copy of the controller's authoritative node
// population (pre continuous-drift; see PositionsNow for the
// read-time-interpolated view).
func (c *Controller) Nodes() []domain.Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Node, len(c.nodes))
	copy(out, c.nodes)
	return out
}

// Links returns the current link table.
func (c *Controller) Links() []domain.Link {
	return c.graph.Links()
}

// Snapshot takes an immutable copy of the graph, for callers (the
// send-packet simulation leg) that need a consistent view of link
// attributes across a multi-hop operation without holding the graph
// lock for its duration.
func (c *Controller) Snapshot() domain.GraphSnapshot {
	return c.graph.Snapshot()
}

// PositionsNow returns every node's position interpolated to the
// current wall-clock instant via the continuous drift function,
// independent of the last epoch tick.
func (c *Controller) PositionsNow() []domain.Node {
	c.mu.RLock()
	nodes := make([]domain.Node, len(c.nodes))
	copy(nodes, c.nodes)
	speed := c.speedMultiplier
	started := c.startedAt
	c.mu.RUnlock()

	elapsed := time.Since(started).Seconds()
	return mobility.PositionsAt(nodes, elapsed, speed)
}

// Generation returns the current topology generation counter.
func (c *Controller) Generation() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Speed returns the current simulation speed multiplier.
func (c *Controller) Speed() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.speedMultiplier
}

// SetSpeed updates the simulation speed multiplier; it must be
// strictly positive.
func (c *Controller) SetSpeed(multiplier float64) error {
	if multiplier <= 0 {
		return apperror.ValidationField("speed multiplier must be positive", "multiplier")
	}
	c.mu.Lock()
	c.speedMultiplier = multiplier
	c.mu.Unlock()
	return nil
}

// ToggleLink flips a link's enabled flag, bumps the generation
// counter, and invalidates the route cache.
func (c *Controller) ToggleLink(u, v int32, enabled bool) error {
	if !c.graph.SetEnabled(u, v, enabled) {
		return apperror.ErrEdgeNotFound
	}
	c.bumpGeneration()
	c.metrics.RecordLinkToggle()
	c.publish(eventbus.Event{Type: "link-toggle", Data: map[string]any{"u": u, "v": v, "enabled": enabled}})
	return nil
}

// Tick runs one epoch: link-enabled flips and node drift, then
// rebuilds the graph from the drifted nodes. Safe to call from the
// epoch goroutine or on demand via /simulate/set-epoch.
func (c *Controller) Tick() {
	c.mu.Lock()
	nodes := make([]domain.Node, len(c.nodes))
	copy(nodes, c.nodes)
	links := c.graph.Links()
	p := mobility.EpochParams{LinkFlipProb: c.cfg.Sim.LinkFlipProb, SpeedMultiplier: c.speedMultiplier}
	newNodes, newLinks := mobility.Epoch(nodes, links, c.rng, p)
	c.nodes = newNodes
	c.mu.Unlock()

	c.graph.Rebuild(newNodes, newLinks)
	c.bumpGeneration()
	c.metrics.RecordEpochTick()
	c.metrics.SetGraphSize(c.graph.NodeCount(), c.graph.LinkCount())
	c.publish(eventbus.Event{Type: "epoch", Data: map[string]any{"generation": c.Generation()}})
}

// ReloadConfig re-derives solver/link-budget/range parameters, the epoch
// interval, and a positive speed multiplier from a freshly loaded config
// and rebuilds the graph from the current node population, without
// touching the node population itself.
func (c *Controller) ReloadConfig(cfg *config.Config) {
	c.mu.Lock()
	c.acoParams = acoParamsFromConfig(cfg)
	c.weights = weightsFromConfig(cfg)
	c.linkParams = linkbudget.Params{
		FreqHz: cfg.LinkModel.FreqHz, BWHz: cfg.LinkModel.BWHz,
		PTxDBm: cfg.LinkModel.PTxDBm, NoiseDBm: cfg.LinkModel.NoiseDBm,
		ProcQueueMs: cfg.LinkModel.ProcQueueMs,
	}
	c.ranges = rangesFromConfig(cfg)
	c.epochSec = cfg.Sim.EpochSec
	if cfg.Sim.SpeedMultiplier > 0 {
		c.speedMultiplier = cfg.Sim.SpeedMultiplier
	}
	c.cfg = cfg
	nodes := make([]domain.Node, len(c.nodes))
	copy(nodes, c.nodes)
	linkParams, ranges := c.linkParams, c.ranges
	c.mu.Unlock()

	c.graph.Rebuild(nodes, graphbuilder.Build(nodes, linkParams, ranges).Links())
	c.bumpGeneration()
}

// RouteResult is the outcome of a single /route resolution.
type RouteResult struct {
	Path           []int32
	Cost           float64
	LatencyMs      float64
	ThroughputMbps float64
	Method         string // "aco", "bfs_fallback", or "cache"
}

// Route resolves a path from src to dst: it first tries the ACO
// solver, falling back to a plain BFS over enabled edges if ACO found
// nothing, and consults/populates the route cache around both. An
// explicit weights override bypasses the controller's configured
// weights for this call only, per spec.md's {objective:{weights}}
// request field.
func (c *Controller) Route(ctx context.Context, src, dst int32, weightsOverride *objective.Weights) (RouteResult, error) {
	if _, ok := c.graph.GetNode(src); !ok {
		return RouteResult{}, apperror.ErrUnknownNode
	}
	if _, ok := c.graph.GetNode(dst); !ok {
		return RouteResult{}, apperror.ErrUnknownNode
	}
	if src == dst {
		return RouteResult{}, apperror.ErrSameSrcDst
	}

	c.mu.RLock()
	weights := c.weights
	params := c.acoParams
	c.mu.RUnlock()
	if weightsOverride != nil {
		weights = *weightsOverride
	}

	snap := c.graph.Snapshot()

	key := routecache.Key(snap, src, dst, weights)
	if cached, ok, _ := c.cache.Get(ctx, key); ok {
		return c.finishRoute(snap, cached.Path, cached.Cost, "cache"), nil
	}

	start := time.Now()
	solver := aco.New(snap, weights, params, c.rngCopy())
	res := solver.Solve(ctx, src, dst)
	c.metrics.RecordACOIterations(params.Iters*params.Ants, nodeLabel(src), nodeLabel(dst), res.Cost)

	method := "aco"
	path, cost := res.Path, res.Cost
	if path == nil {
		path, ok := domain.BFSPath(snap, src, dst)
		if !ok {
			c.metrics.RecordRouteSolve(method, "infeasible", time.Since(start))
			return RouteResult{}, apperror.ErrNoPath
		}
		cost = domain.LatencyMsSum(snap, path)
		method = "bfs_fallback"
		result := c.finishRoute(snap, path, cost, method)
		c.metrics.RecordRouteSolve(method, "ok", time.Since(start))
		_ = c.cache.Set(ctx, key, routecache.CachedRoute{Path: path, Cost: cost, Method: method})
		return result, nil
	}

	c.metrics.RecordRouteSolve(method, "ok", time.Since(start))
	_ = c.cache.Set(ctx, key, routecache.CachedRoute{Path: path, Cost: cost, Method: method})
	return c.finishRoute(snap, path, cost, method), nil
}

func (c *Controller) finishRoute(snap domain.GraphSnapshot, path []int32, cost float64, method string) RouteResult {
	return RouteResult{
		Path:           path,
		Cost:           cost,
		LatencyMs:      domain.LatencyMsSum(snap, path),
		ThroughputMbps: domain.ThroughputMbps(snap, path),
		Method:         method,
	}
}

// rngCopy hands the ACO solver its own private RNG seeded off the
// controller's shared generator, so concurrent /route calls don't race
// on a single *rand.Rand while still deriving from one evolving seed
// stream.
func (c *Controller) rngCopy() *rand.Rand {
	c.mu.Lock()
	seed := c.rng.Int63()
	c.mu.Unlock()
	return rand.New(rand.NewSource(seed))
}

func (c *Controller) bumpGeneration() {
	c.mu.Lock()
	c.generation++
	c.mu.Unlock()
	if _, err := c.cache.InvalidateAll(context.Background()); err != nil {
		logger.Warn("route cache invalidation failed", "error", err)
	}
}

func (c *Controller) publish(evt eventbus.Event) {
	if err := c.bus.Publish(evt); err != nil {
		logger.Warn("event publish failed", "error", err)
	}
}

// RunEpochLoop ticks the controller every epochSec until ctx is
// canceled or Stop is called. It is meant to run as its own goroutine
// from main.
func (c *Controller) RunEpochLoop(ctx context.Context) {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.currentEpochInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.Tick()
			ticker.Reset(c.currentEpochInterval())
		}
	}
}

func (c *Controller) currentEpochInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.epochSec <= 0 {
		return 10 * time.Second
	}
	return c.epochSec
}

// Stop signals RunEpochLoop to exit and waits for it to do so.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	<-c.doneCh
}

func nodeLabel(id int32) string {
	return fmt.Sprintf("%d", id)
}

// splitPairKey parses a "kind-kind" config map key (e.g. "ground-sat")
// into its two domain.Kind values.
func splitPairKey(pair string) (domain.Kind, domain.Kind, bool) {
	parts := strings.SplitN(pair, "-", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return domain.Kind(parts[0]), domain.Kind(parts[1]), true
}

// pairKeyOf builds a canonically-ordered graphbuilder.PairKey so
// "ground-sat" and "sat-ground" address the same table entry.
func pairKeyOf(a, b domain.Kind) graphbuilder.PairKey {
	if a <= b {
		return graphbuilder.PairKey{A: a, B: b}
	}
	return graphbuilder.PairKey{A: b, B: a}
}
