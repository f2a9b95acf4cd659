// Package opt builds and improves vehicle routes over a graph.Graph and
// assigns riders to capacity-limited vehicles.
package opt

import (
	"math"
	"sort"

	"ridepool/internal/graph"
)

// Route is one vehicle's visiting order. Index 0 is always the depot.
type Route []string

func (r Route) Clone() Route {
	return append(Route(nil), r...)
}

// Passengers is the number of stops after the depot.
func (r Route) Passengers() int {
	if len(r) == 0 {
		return 0
	}
	return len(r) - 1
}

// Assignment maps a depot identifier to its route.
type Assignment map[string]Route

func (a Assignment) Clone() Assignment {
	out := make(Assignment, len(a))
	for k, r := range a {
		out[k] = r.Clone()
	}
	return out
}

// Depots returns the depot identifiers in lexical order.
func (a Assignment) Depots() []string {
	out := make([]string, 0, len(a))
	for k := range a {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// legDistance is the shortest-path distance from one stop to the next, or
// +Inf when no finite path exists.
func legDistance(g *graph.Graph, from, to string) float64 {
	res, err := graph.ShortestPath(g, from, to)
	if err != nil || !res.Finite() {
		return math.Inf(1)
	}
	return res.Distance
}

// RouteDistance sums the shortest-path distance of consecutive legs. A single
// unreachable leg makes the whole route cost +Inf.
func RouteDistance(g *graph.Graph, route []string) float64 {
	total := 0.0
	for i := 0; i < len(route)-1; i++ {
		d := legDistance(g, route[i], route[i+1])
		if math.IsInf(d, 1) {
			return d
		}
		total += d
	}
	return total
}
