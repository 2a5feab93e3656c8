// Package agent wires one node's TCP relay server, SSE event client,
// and heartbeat loop into a single runnable process.
package agent

import (
	"context"
	"sync"
	"time"

	"sagsin/internal/domain"
	"sagsin/pkg/logger"
	"sagsin/services/node-agent-svc/internal/relay"
	"sagsin/services/node-agent-svc/internal/sseclient"
)

// Agent runs a single node's three independent loops: the TCP relay
// accept loop, the SSE event client, and the heartbeat ticker.
type Agent struct {
	Node          domain.Node
	TCPPort       int
	ControllerURL string
	HeartbeatSec  time.Duration
	Resolver      relay.HostResolver
}

// Run starts all three loops and blocks until ctx is cancelled or the
// TCP listener fails to bind. It never returns on a dropped SSE
// connection or a relay forwarding failure: the SSE client logs the
// drop and reconnects, and a failed forward is logged and dropped
// without a retry.
func (a *Agent) Run(ctx context.Context) error {
	logger.Info("node agent starting", "nodeId", a.Node.ID, "kind", a.Node.Kind, "name", a.Node.DisplayName())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	server := relay.New(a.Node.ID, a.TCPPort, a.Resolver)
	sse := sseclient.New(a.ControllerURL, a.Node.ID, a.onProgress)

	var wg sync.WaitGroup
	relayErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		relayErr <- server.ListenAndServe(runCtx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		sse.Run(runCtx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.heartbeatLoop(runCtx)
	}()

	var err error
	select {
	case err = <-relayErr:
		cancel()
	case <-ctx.Done():
	}

	wg.Wait()
	return err
}

func (a *Agent) heartbeatLoop(ctx context.Context) {
	interval := a.HeartbeatSec
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Info("node agent heartbeat", "nodeId", a.Node.ID)
		}
	}
}

func (a *Agent) onProgress(evt sseclient.PacketProgress) {
	if evt.Message != "" && evt.Status == "success" {
		logger.Info("node agent received message", "nodeId", a.Node.ID, "sessionId", evt.SessionID, "message", evt.Message)
		return
	}
	logger.Debug("node agent packet event", "nodeId", a.Node.ID, "sessionId", evt.SessionID, "status", evt.Status)
}
