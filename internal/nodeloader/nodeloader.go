// Package nodeloader produces the stable, id-assigned node population
// the graph builder consumes: either read from a JSON file written by
// an external data source, or a toy three-node fallback when none
// exists yet.
package nodeloader

import (
	"encoding/json"
	"fmt"
	"os"

	"sagsin/internal/domain"
)

// record is the on-disk JSON shape: {kind,lat,lon,alt_m,name}. id is
// assigned densely in file order, matching controller.py's
// rebuild_from_nodes/Node(**n) ingestion.
type record struct {
	Kind string  `json:"kind"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	AltM float64 `json:"alt_m"`
	Name string  `json:"name"`
}

// Load reads a JSON array of node records from path and assigns dense
// ids in file order.
func Load(path string) ([]domain.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("nodeloader: read %s: %w", path, err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("nodeloader: parse %s: %w", path, err)
	}

	nodes := make([]domain.Node, len(records))
	for i, r := range records {
		nodes[i] = domain.Node{
			ID:     int32(i),
			Kind:   domain.Kind(r.Kind),
			LatDeg: r.Lat,
			LonDeg: r.Lon,
			AltM:   r.AltM,
			Name:   r.Name,
		}
	}
	return nodes, nil
}

// Save writes nodes to path as the JSON record format Load reads,
// letting a caller persist a freshly-loaded or toy population for the
// next rebuild.
func Save(path string, nodes []domain.Node) error {
	records := make([]record, len(nodes))
	for i, n := range nodes {
		records[i] = record{Kind: string(n.Kind), Lat: n.LatDeg, Lon: n.LonDeg, AltM: n.AltM, Name: n.Name}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("nodeloader: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("nodeloader: write %s: %w", path, err)
	}
	return nil
}

// Toy returns the literal three-node seed graph: two ground stations
// and one satellite, used when no node source is configured or present
// on disk yet.
func Toy() []domain.Node {
	return []domain.Node{
		{ID: 0, Kind: domain.KindGround, LatDeg: 0, LonDeg: 0, AltM: 0, Name: "ground-0"},
		{ID: 1, Kind: domain.KindGround, LatDeg: 0, LonDeg: 0.1, AltM: 0, Name: "ground-1"},
		{ID: 2, Kind: domain.KindSatellite, LatDeg: 0, LonDeg: 0.2, AltM: 550000, Name: "sat-2"},
	}
}
