package graph

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
)

// PathResult is the outcome of a shortest-path query. An unreachable target
// yields Exists=false, an empty path, +Inf distance and NaN time.
type PathResult struct {
	Nodes    []string `json:"nodes"`
	Distance float64  `json:"distance"`
	Time     float64  `json:"time"`
	Exists   bool     `json:"exists"`
}

// Unreachable returns the sentinel result for a missing path.
func Unreachable() PathResult {
	return PathResult{Nodes: []string{}, Distance: math.Inf(1), Time: math.NaN()}
}

// Finite reports whether the result is a usable path.
func (p PathResult) Finite() bool {
	return p.Exists && !math.IsInf(p.Distance, 0) && !math.IsNaN(p.Distance)
}

// ShortestPath runs Dijkstra from start and stops as soon as end is settled.
// Travel time is re-derived from great-circle distances between consecutive
// path nodes rather than summed from edge times.
func ShortestPath(g *Graph, start, end string) (PathResult, error) {
	if g == nil {
		return PathResult{}, errors.New("graph is nil")
	}
	if err := g.requireNode(start); err != nil {
		return PathResult{}, fmt.Errorf("start: %w", err)
	}
	if err := g.requireNode(end); err != nil {
		return PathResult{}, fmt.Errorf("end: %w", err)
	}
	if start == end {
		return PathResult{Nodes: []string{start}, Distance: 0, Time: 0, Exists: true}, nil
	}

	dist := map[string]float64{start: 0}
	prev := map[string]string{}
	settled := map[string]bool{}
	pq := &frontier{}
	heap.Push(pq, &frontierItem{node: start, dist: 0})

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*frontierItem)
		if settled[item.node] {
			continue
		}
		settled[item.node] = true
		if item.node == end {
			return g.backtrack(end, dist[end], prev), nil
		}
		for _, e := range g.adj[item.node] {
			if settled[e.To] {
				continue
			}
			nd := item.dist + e.Distance
			if old, ok := dist[e.To]; !ok || nd < old {
				dist[e.To] = nd
				prev[e.To] = item.node
				heap.Push(pq, &frontierItem{node: e.To, dist: nd})
			}
		}
	}
	return Unreachable(), nil
}

func (g *Graph) backtrack(end string, total float64, prev map[string]string) PathResult {
	var rev []string
	minutes := 0.0
	cur := end
	for {
		rev = append(rev, cur)
		parent, ok := prev[cur]
		if !ok {
			break
		}
		minutes += TravelMinutes(NodeDistance(g.nodes[parent], g.nodes[cur]))
		cur = parent
	}
	path := make([]string, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return PathResult{Nodes: path, Distance: total, Time: minutes, Exists: true}
}

type frontierItem struct {
	node string
	dist float64
}

// frontier is a min-heap keyed by tentative distance.
type frontier []*frontierItem

func (f frontier) Len() int           { return len(f) }
func (f frontier) Less(i, j int) bool { return f[i].dist < f[j].dist }
func (f frontier) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) {
	*f = append(*f, x.(*frontierItem))
}

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}
