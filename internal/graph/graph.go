// Package graph holds the per-corpus knowledge graphs: labeled directed
// graphs keyed by entity name, queried by exact node-name neighbor lookup.
package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// Node is an entity in the knowledge graph.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// Edge is a directed relation between two entities.
type Edge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

// Graph is an entity graph with successor lookup by node name.
type Graph struct {
	nodes map[string]Node
	adj   map[string][]string
}

type graphFile struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// New builds a graph from nodes and edges. Edges referencing unknown nodes
// are kept; neighbor lookup only needs the adjacency.
func New(nodes []Node, edges []Edge) *Graph {
	g := &Graph{
		nodes: make(map[string]Node, len(nodes)),
		adj:   make(map[string][]string),
	}
	for _, n := range nodes {
		g.nodes[n.ID] = n
	}
	for _, e := range edges {
		g.adj[e.Source] = append(g.adj[e.Source], e.Target)
	}
	return g
}

// Load reads a graph from a JSON file produced by the graph build scripts.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	var gf graphFile
	if err := json.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("failed to parse graph file %s: %w", path, err)
	}
	return New(gf.Nodes, gf.Edges), nil
}

// HasNode reports whether name is a node in the graph.
func (g *Graph) HasNode(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Neighbors returns the successor node names of the named node. A missing
// node yields an empty set, not an error.
func (g *Graph) Neighbors(name string) []string {
	return g.adj[name]
}

// Size returns node and edge counts for logging.
func (g *Graph) Size() (nodes, edges int) {
	for _, targets := range g.adj {
		edges += len(targets)
	}
	return len(g.nodes), edges
}
