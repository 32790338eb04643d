package memory

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mycok/uRoute/roadgraph/graph"
)

// roadNetwork mirrors the on-disk layout of a road network document.
type roadNetwork struct {
	Nodes []struct {
		ID  graph.NodeID `json:"id"`
		Lat float64      `json:"lat,omitempty"`
		Lon float64      `json:"lon,omitempty"`
	} `json:"nodes"`
	Edges []struct {
		From          graph.NodeID `json:"from"`
		To            graph.NodeID `json:"to"`
		Distance      float64      `json:"distance"`
		TrafficFactor *float64     `json:"traffic_factor,omitempty"`
		Quality       *float64     `json:"quality,omitempty"`
		Bidirectional bool         `json:"bidirectional,omitempty"`
	} `json:"edges"`
}

// LoadJSON decodes a road network document from r and returns a populated
// in-memory graph. Edges without traffic or quality attributes default to
// free-flowing, best-quality roads. Bidirectional edges are expanded into
// two directed edges that share attributes but not history.
func LoadJSON(r io.Reader) (*InMemoryGraph, error) {
	var doc roadNetwork
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode road network: %w", err)
	}

	g := NewInMemoryGraph()
	for _, n := range doc.Nodes {
		g.AddNode(n.ID)
	}

	for _, e := range doc.Edges {
		meta := graph.DefaultMetadata()
		if e.TrafficFactor != nil {
			meta.TrafficFactor = *e.TrafficFactor
		}
		if e.Quality != nil {
			meta.Quality = *e.Quality
		}

		edge := graph.Edge{From: e.From, To: e.To, BaseDistance: e.Distance, Metadata: meta}
		if err := g.AddEdge(edge); err != nil {
			return nil, err
		}

		if e.Bidirectional {
			edge.From, edge.To = edge.To, edge.From
			if err := g.AddEdge(edge); err != nil {
				return nil, err
			}
		}
	}

	return g, nil
}

// LoadFile opens the road network document at path and loads it with LoadJSON.
func LoadFile(path string) (*InMemoryGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open road network: %w", err)
	}
	defer func() { _ = f.Close() }()

	return LoadJSON(f)
}
