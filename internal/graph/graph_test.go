package graph

import "testing"

func testGraph() *Graph {
	nodes := []Node{
		{ID: "Clean Energy Act", Type: "Bill"},
		{ID: "EPA", Type: "Government Agency"},
		{ID: "Sen. Rivera", Type: "Legislator"},
	}
	edges := []Edge{
		{Source: "Clean Energy Act", Target: "EPA", Relation: "directs"},
		{Source: "Clean Energy Act", Target: "Sen. Rivera", Relation: "sponsored_by"},
	}
	return New(nodes, edges)
}

func TestNeighbors(t *testing.T) {
	g := testGraph()
	got := g.Neighbors("Clean Energy Act")
	if len(got) != 2 {
		t.Fatalf("Neighbors = %v, want 2 entries", got)
	}
}

func TestMissingNodeIsEmptyNotError(t *testing.T) {
	g := testGraph()
	if got := g.Neighbors("Unknown Entity"); len(got) != 0 {
		t.Fatalf("Neighbors of missing node = %v, want empty", got)
	}
	if g.HasNode("Unknown Entity") {
		t.Fatal("HasNode returned true for missing node")
	}
}
