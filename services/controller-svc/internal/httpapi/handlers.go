// Package httpapi implements the controller's REST+SSE surface: one
// plain http.ServeMux, JSON request/response bodies, and a single SSE
// stream, wired to the internal/state.Controller that owns the graph.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"sagsin/internal/domain"
	"sagsin/internal/eventbus"
	"sagsin/internal/objective"
	"sagsin/services/controller-svc/internal/state"
	"sagsin/services/controller-svc/internal/tcprelay"

	"sagsin/pkg/apperror"
	"sagsin/pkg/metrics"
)

// Handlers holds every dependency the HTTP surface needs to answer a
// request: the live controller, the event fabric it reads from for SSE,
// the TCP relay for send-packet's first hop, and a hook to reload
// configuration from disk.
type Handlers struct {
	ctrl    *state.Controller
	bus     *eventbus.Bus
	relay   *tcprelay.Relay
	metrics *metrics.Metrics
	reload  func() error
}

// New builds a Handlers. reload is called by /config/reload; it is
// expected to re-read configuration from its source and apply it to
// ctrl via Controller.ReloadConfig.
func New(ctrl *state.Controller, bus *eventbus.Bus, relay *tcprelay.Relay, m *metrics.Metrics, reload func() error) *Handlers {
	return &Handlers{ctrl: ctrl, bus: bus, relay: relay, metrics: m, reload: reload}
}

// Mux builds the controller's full route table wrapped in CORS,
// logging, and panic-recovery middleware.
func (h *Handlers) Mux(cors func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /nodes", h.handleNodes)
	mux.HandleFunc("GET /links", h.handleLinks)
	mux.HandleFunc("GET /nodes/positions", h.handleNodesPositions)
	mux.HandleFunc("POST /route", h.handleRoute)
	mux.HandleFunc("POST /simulate/toggle-link", h.handleToggleLink)
	mux.HandleFunc("POST /simulate/set-epoch", h.handleSetEpoch)
	mux.HandleFunc("POST /simulate/set-speed", h.handleSetSpeed)
	mux.HandleFunc("GET /simulate/get-speed", h.handleGetSpeed)
	mux.HandleFunc("POST /config/reload", h.handleConfigReload)
	mux.HandleFunc("POST /simulate/send-packet", h.handleSendPacket)
	mux.HandleFunc("GET /events", h.handleEvents)
	mux.HandleFunc("GET /tcp/test", h.handleTCPTest)
	mux.HandleFunc("GET /", h.handleRoot)
	mux.Handle("GET /metrics", metrics.Handler())

	return Chain(mux, Recover, cors, Logging(h.metrics))
}

func (h *Handlers) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"service": "sagsin-controller", "status": "running"})
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type nodeDTO struct {
	ID     int32   `json:"id"`
	Kind   string  `json:"kind"`
	LatDeg float64 `json:"lat"`
	LonDeg float64 `json:"lon"`
	AltM   float64 `json:"alt_m"`
	Name   string  `json:"name"`
}

func toNodeDTO(n domain.Node) nodeDTO {
	return nodeDTO{ID: n.ID, Kind: string(n.Kind), LatDeg: n.LatDeg, LonDeg: n.LonDeg, AltM: n.AltM, Name: n.DisplayName()}
}

func (h *Handlers) handleNodes(w http.ResponseWriter, r *http.Request) {
	nodes := h.ctrl.Nodes()
	out := make([]nodeDTO, len(nodes))
	for i, n := range nodes {
		out[i] = toNodeDTO(n)
	}
	writeJSON(w, http.StatusOK, out)
}

type linkDTO struct {
	U            int32   `json:"u"`
	V            int32   `json:"v"`
	LatencyMs    float64 `json:"latency_ms"`
	CapacityMbps float64 `json:"capacity_mbps"`
	EnergyJ      float64 `json:"energy_j"`
	Reliability  float64 `json:"reliability"`
	Enabled      bool    `json:"enabled"`
}

func (h *Handlers) handleLinks(w http.ResponseWriter, r *http.Request) {
	links := h.ctrl.Links()
	out := make([]linkDTO, len(links))
	for i, l := range links {
		out[i] = linkDTO{U: l.U, V: l.V, LatencyMs: l.LatencyMs, CapacityMbps: l.CapacityMbps, EnergyJ: l.EnergyJ, Reliability: l.Reliability, Enabled: l.Enabled}
	}
	writeJSON(w, http.StatusOK, out)
}

type positionDTO struct {
	ID     int32   `json:"id"`
	LatDeg float64 `json:"lat"`
	LonDeg float64 `json:"lon"`
	AltKm  float64 `json:"alt_km"`
}

func (h *Handlers) handleNodesPositions(w http.ResponseWriter, r *http.Request) {
	nodes := h.ctrl.PositionsNow()
	out := make([]positionDTO, len(nodes))
	for i, n := range nodes {
		out[i] = positionDTO{ID: n.ID, LatDeg: n.LatDeg, LonDeg: n.LonDeg, AltKm: n.AltM / 1000.0}
	}
	writeJSON(w, http.StatusOK, out)
}

type routeObjective struct {
	Weights []float64 `json:"weights"`
}

type routeRequest struct {
	Src       int32           `json:"src"`
	Dst       int32           `json:"dst"`
	Objective *routeObjective `json:"objective,omitempty"`
}

type routeResponse struct {
	Path           []int32 `json:"path"`
	Cost           float64 `json:"cost"`
	LatencyMs      float64 `json:"latency_ms"`
	ThroughputMbps float64 `json:"throughput_mbps"`
}

func (h *Handlers) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var override *objective.Weights
	if req.Objective != nil && len(req.Objective.Weights) == 4 {
		override = &objective.Weights{
			Latency: req.Objective.Weights[0], InvCapacity: req.Objective.Weights[1],
			Energy: req.Objective.Weights[2], InvReliability: req.Objective.Weights[3],
		}
	}

	res, err := h.ctrl.Route(r.Context(), req.Src, req.Dst, override)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, routeResponse{Path: res.Path, Cost: res.Cost, LatencyMs: res.LatencyMs, ThroughputMbps: res.ThroughputMbps})
}

type toggleLinkRequest struct {
	U       int32 `json:"u"`
	V       int32 `json:"v"`
	Enabled bool  `json:"enabled"`
}

func (h *Handlers) handleToggleLink(w http.ResponseWriter, r *http.Request) {
	var req toggleLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.ctrl.ToggleLink(req.U, req.V, req.Enabled); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) handleSetEpoch(w http.ResponseWriter, r *http.Request) {
	h.ctrl.Tick()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type setSpeedRequest struct {
	Multiplier float64 `json:"multiplier"`
}

func (h *Handlers) handleSetSpeed(w http.ResponseWriter, r *http.Request) {
	var req setSpeedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.ctrl.SetSpeed(req.Multiplier); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "multiplier": req.Multiplier})
}

func (h *Handlers) handleGetSpeed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]float64{"multiplier": h.ctrl.Speed()})
}

func (h *Handlers) handleConfigReload(w http.ResponseWriter, r *http.Request) {
	if h.reload == nil {
		writeError(w, r, apperror.Internal("no reload hook configured"))
		return
	}
	if err := h.reload(); err != nil {
		writeError(w, r, apperror.Config(err, "failed to reload configuration"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type sendPacketRequest struct {
	Src      int32   `json:"src"`
	Dst      int32   `json:"dst"`
	Protocol string  `json:"protocol"`
	Message  string  `json:"message,omitempty"`
	Path     []int32 `json:"path,omitempty"`
}

type sendPacketResponse struct {
	SessionID      string   `json:"sessionId"`
	Path           []int32  `json:"path"`
	Cost           *float64 `json:"cost,omitempty"`
	LatencyMs      *float64 `json:"latency_ms,omitempty"`
	ThroughputMbps *float64 `json:"throughput_mbps,omitempty"`
}

func (h *Handlers) handleSendPacket(w http.ResponseWriter, r *http.Request) {
	var req sendPacketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var path []int32
	var cost, latencyMs, throughputMbps *float64

	if len(req.Path) >= 2 {
		path = req.Path
	} else {
		res, err := h.ctrl.Route(r.Context(), req.Src, req.Dst, nil)
		if err != nil {
			writeError(w, r, err)
			return
		}
		path = res.Path
		c, l, t := res.Cost, res.LatencyMs, res.ThroughputMbps
		cost, latencyMs, throughputMbps = &c, &l, &t
	}

	sessionID := uuid.NewString()
	h.startSession(sessionID, req, path)

	writeJSON(w, http.StatusOK, sendPacketResponse{
		SessionID: sessionID, Path: path,
		Cost: cost, LatencyMs: latencyMs, ThroughputMbps: throughputMbps,
	})
}

func (h *Handlers) handleTCPTest(w http.ResponseWriter, r *http.Request) {
	nodeIDStr := r.URL.Query().Get("node_id")
	nodeID64, err := strconv.ParseInt(nodeIDStr, 10, 32)
	if err != nil {
		writeError(w, r, apperror.ValidationField("node_id must be an integer", "node_id"))
		return
	}
	port := 0
	if p := r.URL.Query().Get("port"); p != "" {
		if port64, err := strconv.Atoi(p); err == nil {
			port = port64
		}
	}

	host, err := h.relay.Test(int32(nodeID64), port)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "host": host, "port": port, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "host": host, "port": port})
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if err.Error() == "EOF" {
			return nil
		}
		return apperror.Validation("malformed JSON request body: " + err.Error())
	}
	return nil
}

// hopSettleDelay and hopGapDelay mirror the source simulation's pacing
// between pending/success events and between hops respectively.
const (
	hopSettleDelay = 300 * time.Millisecond
	hopGapDelay    = 200 * time.Millisecond
)
