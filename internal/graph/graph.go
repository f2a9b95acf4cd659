// Package graph holds the weighted road network used by the optimizer and
// answers shortest-path queries over it.
package graph

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidNode is returned for blank, duplicate or unknown node identifiers.
	ErrInvalidNode = errors.New("invalid node")
	// ErrInvalidEdge is returned for edges with a non-positive or non-finite distance.
	ErrInvalidEdge = errors.New("invalid edge")
)

// Node is a location in the network. Nodes are immutable once added.
type Node struct {
	ID   string  `json:"id"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Name string  `json:"name,omitempty"`
}

// Edge is a directed link. Distance is in kilometres; Time is in minutes
// and is NaN when the edge carries no travel time.
type Edge struct {
	From     string
	To       string
	Distance float64
	Time     float64
}

// NewEdge validates and builds a directed edge.
func NewEdge(from, to string, distance, minutes float64) (Edge, error) {
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return Edge{}, fmt.Errorf("%w: edge endpoints are required", ErrInvalidNode)
	}
	if !(distance > 0) || math.IsInf(distance, 1) {
		return Edge{}, fmt.Errorf("%w: distance %v from %s to %s must be positive", ErrInvalidEdge, distance, from, to)
	}
	return Edge{From: from, To: to, Distance: distance, Time: minutes}, nil
}

// Graph owns its nodes and an adjacency list of outgoing edges per node.
// A Graph is not safe for concurrent mutation; each job builds its own.
type Graph struct {
	nodes map[string]Node
	adj   map[string][]Edge
	order []string
	edges int
}

func New() *Graph {
	return &Graph{
		nodes: map[string]Node{},
		adj:   map[string][]Edge{},
	}
}

// AddNode registers a node. Blank and duplicate identifiers are rejected.
func (g *Graph) AddNode(n Node) error {
	if strings.TrimSpace(n.ID) == "" {
		return fmt.Errorf("%w: node id is required", ErrInvalidNode)
	}
	if _, ok := g.nodes[n.ID]; ok {
		return fmt.Errorf("%w: duplicate node %q", ErrInvalidNode, n.ID)
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return nil
}

// AddEdge adds an untimed directed edge. Both endpoints must already exist.
func (g *Graph) AddEdge(from, to string, distance float64) error {
	return g.AddTimedEdge(from, to, distance, math.NaN())
}

// AddTimedEdge adds a directed edge carrying a travel time in minutes.
func (g *Graph) AddTimedEdge(from, to string, distance, minutes float64) error {
	if err := g.requireNode(from); err != nil {
		return err
	}
	if err := g.requireNode(to); err != nil {
		return err
	}
	e, err := NewEdge(from, to, distance, minutes)
	if err != nil {
		return err
	}
	g.adj[from] = append(g.adj[from], e)
	g.edges++
	return nil
}

func (g *Graph) requireNode(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: node id is required", ErrInvalidNode)
	}
	if _, ok := g.nodes[id]; !ok {
		return fmt.Errorf("%w: unknown node %q", ErrInvalidNode, id)
	}
	return nil
}

func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Edges returns the outgoing edges of id in insertion order. The slice must
// not be modified by callers.
func (g *Graph) Edges(id string) []Edge {
	return g.adj[id]
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

func (g *Graph) NodeCount() int { return len(g.nodes) }

func (g *Graph) EdgeCount() int { return g.edges }
