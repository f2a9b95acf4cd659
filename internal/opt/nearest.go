package opt

import (
	"fmt"

	"ridepool/internal/graph"
)

// BuildRoute constructs a greedy nearest-neighbour tour from start over the
// required nodes. Nodes that are unknown to the graph, or unreachable from
// every partial tour, are left out of the result.
func BuildRoute(g *graph.Graph, start string, mustVisit []string) (Route, error) {
	if g == nil {
		return nil, fmt.Errorf("graph is nil")
	}
	if !g.HasNode(start) {
		return nil, fmt.Errorf("%w: start node %q", graph.ErrInvalidNode, start)
	}

	route := Route{start}
	seen := map[string]bool{start: true}
	toVisit := make([]string, 0, len(mustVisit))
	for _, id := range mustVisit {
		if seen[id] || !g.HasNode(id) {
			continue
		}
		seen[id] = true
		toVisit = append(toVisit, id)
	}

	current := start
	for len(toVisit) > 0 {
		idx := nearestCandidate(g, current, toVisit)
		if idx < 0 {
			break
		}
		current = toVisit[idx]
		route = append(route, current)
		toVisit = append(toVisit[:idx], toVisit[idx+1:]...)
	}
	return route, nil
}

// nearestCandidate returns the index of the closest reachable candidate, or
// -1. Ties go to the earlier candidate.
func nearestCandidate(g *graph.Graph, from string, candidates []string) int {
	best := -1
	bestDist := 0.0
	for i, c := range candidates {
		res, err := graph.ShortestPath(g, from, c)
		if err != nil || !res.Finite() {
			continue
		}
		if best < 0 || res.Distance < bestDist {
			best = i
			bestDist = res.Distance
		}
	}
	return best
}
