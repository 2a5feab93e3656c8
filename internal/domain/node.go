// Package domain holds the shared data model of the SAGSIN simulation:
// nodes, links, the graph state they compose into, BFS fallback search,
// and the send-packet session record. Everything here is plain data and
// pure functions; ownership and locking live in the controller service.
package domain

import "fmt"

// Kind discriminates the four node domains. It dispatches link
// admission ranges and link-budget κ coefficients; it is never used to
// build an inheritance hierarchy.
type Kind string

const (
	KindSatellite Kind = "sat"
	KindAir       Kind = "air"
	KindGround    Kind = "ground"
	KindSea       Kind = "sea"
)

// Node is one point in the SAGSIN population. ID is assigned once at
// load time and is dense and unique; Kind is immutable thereafter.
// Lat/Lon/AltM are mutated in place by the epoch updater.
type Node struct {
	ID     int32
	Kind   Kind
	LatDeg float64
	LonDeg float64
	AltM   float64
	Name   string
}

// DisplayName returns Name if set, otherwise a lazily computed default
// of the form "{kind}-{id}". The default is never stored back onto the
// node; it is computed fresh at read/serialization time.
func (n Node) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return fmt.Sprintf("%s-%d", n.Kind, n.ID)
}

// Clone returns a value copy of the node. Node has no reference fields
// today, but Clone exists so callers never need to know that and so
// future fields default to being copied explicitly.
func (n Node) Clone() Node {
	return n
}
