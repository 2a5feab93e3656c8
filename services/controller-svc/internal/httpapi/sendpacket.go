package httpapi

import (
	"time"

	"golang.org/x/sync/errgroup"

	"sagsin/internal/domain"
	"sagsin/internal/eventbus"
	"sagsin/pkg/logger"
	"sagsin/services/controller-svc/internal/tcprelay"
)

// startSession launches send-packet's two independent legs — the
// simulated per-hop progression broadcast over SSE, and the TCP relay
// of the first hop to the originating node agent — and registers their
// join with the controller so a graceful shutdown can drain it. The
// HTTP response has already been written by the time either leg runs;
// both swallow their own failures into logs rather than surfacing them
// anywhere a caller could see.
func (h *Handlers) startSession(sessionID string, req sendPacketRequest, path []int32) {
	snap := h.ctrl.Snapshot()

	var legs errgroup.Group
	legs.Go(func() error {
		h.simulateProgression(sessionID, req, path, snap)
		return nil
	})
	legs.Go(func() error {
		h.relayFirstHop(sessionID, req, path)
		return nil
	})
	h.ctrl.TrackSession(legs.Wait)
}

// simulateProgression emits a pending/success packet-progress SSE pair
// for every node on path, in hop order, pacing itself the way the
// source simulation does: settle for hopSettleDelay between pending and
// success, then hopGapDelay before the next hop begins.
func (h *Handlers) simulateProgression(sessionID string, req sendPacketRequest, path []int32, snap domain.GraphSnapshot) {
	cumulative := 0.0
	for i, nodeID := range path {
		if i > 0 {
			cumulative += hopLatency(snap, path[i-1], nodeID)
		}

		pending := map[string]any{
			"status": "pending", "sessionId": sessionID,
			"nodeId": nodeID, "cumulativeLatencyMs": cumulative,
		}
		if i == 0 && req.Message != "" {
			pending["message"] = req.Message
		}
		h.publish("packet-progress", pending)

		time.Sleep(hopSettleDelay)

		success := map[string]any{
			"status": "success", "sessionId": sessionID,
			"nodeId": nodeID, "cumulativeLatencyMs": cumulative,
		}
		if req.Message != "" && nodeID == req.Dst {
			success["message"] = req.Message
		}
		h.publish("packet-progress", success)

		time.Sleep(hopGapDelay)
	}
}

// relayFirstHop delivers the first-hop TCP frame to the node agent for
// path[0], if the path reaches beyond the source node.
func (h *Handlers) relayFirstHop(sessionID string, req sendPacketRequest, path []int32) {
	if len(path) < 2 {
		return
	}
	frame := tcprelay.Frame{SessionID: sessionID, Path: path, Idx: 0, Message: req.Message}
	if err := h.relay.Send(path[0], frame); err != nil {
		logger.Warn("tcp relay first hop failed", "sessionId", sessionID, "nodeId", path[0], "error", err)
		h.metrics.RecordTCPRelay("error")
		return
	}
	h.metrics.RecordTCPRelay("ok")
}

func hopLatency(snap domain.GraphSnapshot, u, v int32) float64 {
	link, ok := snap.Link(u, v)
	if !ok {
		return 0
	}
	return link.LatencyMs
}

func (h *Handlers) publish(eventType string, data map[string]any) {
	if err := h.bus.Publish(eventbus.Event{Type: eventType, Data: data}); err != nil {
		logger.Warn("event publish failed", "type", eventType, "error", err)
	}
}
