// Package tcprelay dials a node agent's raw TCP listener and delivers
// one JSON frame: the transport the controller uses to hand a
// simulated packet's first hop to a node-agent process, distinct from
// the HTTP/SSE control plane.
package tcprelay

import (
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Frame is the single JSON object written to the node agent's socket,
// with no length prefix or delimiter beyond connection close.
type Frame struct {
	SessionID string  `json:"sessionId"`
	Path      []int32 `json:"path"`
	Idx       int     `json:"idx"`
	Message   string  `json:"message,omitempty"`
}

// HostResolver maps a node id to the hostname its agent listens on.
// Injectable so tests and alternate deployments can substitute their
// own naming scheme without touching the relay logic.
type HostResolver func(nodeID int32) string

// DefaultHostResolver reproduces the one-node-per-host naming scheme
// the node agents are deployed under.
func DefaultHostResolver(nodeID int32) string {
	return fmt.Sprintf("sagsin-node-%d", nodeID)
}

// Relay dials a node agent and delivers one Frame, using resolver to
// turn the frame's first hop into a hostname. dialTimeout bounds the
// connection attempt only; the write itself is not separately timed
// since it is a single small payload on an already-open socket.
type Relay struct {
	resolver    HostResolver
	port        int
	dialTimeout time.Duration
}

// New builds a Relay that dials port on every resolved host.
func New(resolver HostResolver, port int, dialTimeout time.Duration) *Relay {
	if resolver == nil {
		resolver = DefaultHostResolver
	}
	if dialTimeout <= 0 {
		dialTimeout = 3 * time.Second
	}
	return &Relay{resolver: resolver, port: port, dialTimeout: dialTimeout}
}

// Send dials the agent for frame's first hop and writes frame as a
// single JSON-encoded payload, then closes the connection. The caller
// is expected to treat a send failure as a transient, logged event
// rather than a request failure: the HTTP response to /simulate/send-packet
// has already been returned by the time this runs.
func (r *Relay) Send(nodeID int32, frame Frame) error {
	host := r.resolver(nodeID)
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", r.port))

	conn, err := net.DialTimeout("tcp", addr, r.dialTimeout)
	if err != nil {
		return fmt.Errorf("tcprelay: dial %s: %w", addr, err)
	}
	defer conn.Close()

	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("tcprelay: marshal frame: %w", err)
	}
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("tcprelay: write to %s: %w", addr, err)
	}
	return nil
}

// Test attempts a bare TCP dial to nodeID's host on port (defaulting
// to the Relay's configured port when port<=0), for /tcp/test's
// connectivity diagnostic. It returns the resolved host regardless of
// outcome so callers can surface it even on failure.
func (r *Relay) Test(nodeID int32, port int) (host string, err error) {
	if port <= 0 {
		port = r.port
	}
	host = r.resolver(nodeID)
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))

	conn, dialErr := net.DialTimeout("tcp", addr, 2*time.Second)
	if dialErr != nil {
		return host, fmt.Errorf("tcprelay: dial %s: %w", addr, dialErr)
	}
	conn.Close()
	return host, nil
}
