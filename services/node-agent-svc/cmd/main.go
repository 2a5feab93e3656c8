// Command node-agent-svc runs a single simulated SAGSIN node process:
// it accepts and forwards TCP relay frames for its hop, watches the
// controller's SSE stream for progress events addressed to it, and
// emits a periodic heartbeat.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sagsin/internal/domain"
	"sagsin/internal/nodeloader"
	"sagsin/pkg/config"
	"sagsin/pkg/logger"
	"sagsin/services/node-agent-svc/internal/agent"
	"sagsin/services/node-agent-svc/internal/relay"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code: 0 on clean shutdown, 1 on a
// configuration error (including "no node assigned to this index"), 2
// on an unrecoverable listener failure.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("error")
		logger.Error("failed to load configuration", "error", err)
		return 1
	}
	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	node, err := resolveNode(cfg)
	if err != nil {
		logger.Error("node agent has no assigned node; exiting", "error", err)
		return 1
	}

	a := &agent.Agent{
		Node:          node,
		TCPPort:       cfg.NodeAgent.TCPPort,
		ControllerURL: cfg.NodeAgent.ControllerURL,
		HeartbeatSec:  cfg.NodeAgent.HeartbeatSec,
		Resolver:      relay.DefaultHostResolver,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		logger.Error("node agent relay listener failed", "error", err)
		return 2
	}

	logger.Info("node agent stopped", "nodeId", node.ID)
	return 0
}

// resolveNode loads the seed node population from the configured
// source (falling back at once, with no wait, to the toy population
// whenever the file cannot be loaded) and returns the node at
// NodeAgent.NodeIndex.
func resolveNode(cfg *config.Config) (domain.Node, error) {
	nodes, err := nodeloader.Load(cfg.NodeSource.FilePath)
	if err != nil {
		nodes = nodeloader.Toy()
	}

	idx := cfg.NodeAgent.NodeIndex
	if idx < 0 || idx >= len(nodes) {
		return domain.Node{}, fmt.Errorf("node_agent.node_index=%d out of range for %d loaded nodes", idx, len(nodes))
	}
	return nodes[idx], nil
}
