package opt

import (
	"fmt"
	"math"

	"ridepool/internal/graph"
)

// Plan is the outcome of Assign.
type Plan struct {
	Assignment Assignment
	// Unassigned lists riders that no vehicle could take, in input order.
	Unassigned []string
	// Stats holds the annealing statistics of every re-optimized depot.
	Stats map[string]AnnealStats
}

// Assign places riders, in input order, on the depot with the cheapest
// insertion cost among depots that still have room, then re-optimizes every
// route that received passengers. Depots are scanned in input order and the
// first depot with the minimum cost wins ties. A depot missing from
// capacities is treated as unbounded.
func Assign(g *graph.Graph, riders, depots []string, capacities map[string]int, an *Annealer) (Plan, error) {
	if g == nil {
		return Plan{}, fmt.Errorf("graph is nil")
	}
	if an == nil {
		an = NewAnnealer(DefaultSchedule(), nil)
	}
	assignment := make(Assignment, len(depots))
	for _, d := range depots {
		if !g.HasNode(d) {
			return Plan{}, fmt.Errorf("%w: depot %q", graph.ErrInvalidNode, d)
		}
		if _, dup := assignment[d]; dup {
			return Plan{}, fmt.Errorf("%w: duplicate depot %q", graph.ErrInvalidNode, d)
		}
		assignment[d] = Route{d}
	}
	for _, r := range riders {
		if !g.HasNode(r) {
			return Plan{}, fmt.Errorf("%w: rider %q", graph.ErrInvalidNode, r)
		}
	}

	plan := Plan{Assignment: assignment, Stats: map[string]AnnealStats{}}
	for _, rider := range riders {
		best := ""
		bestCost := math.Inf(1)
		for _, d := range depots {
			route := assignment[d]
			if limit, ok := capacities[d]; ok && route.Passengers() >= limit {
				continue
			}
			c := InsertionCost(g, route, rider)
			if c < bestCost {
				best = d
				bestCost = c
			}
		}
		if best == "" {
			plan.Unassigned = append(plan.Unassigned, rider)
			continue
		}
		assignment[best] = append(assignment[best], rider)
	}

	for _, d := range depots {
		route := assignment[d]
		if len(route) <= 1 {
			continue
		}
		res, err := an.Improve(g, d, route[1:])
		if err != nil {
			return Plan{}, fmt.Errorf("improve route for %s: %w", d, err)
		}
		plan.Stats[d] = res.Stats
		if !res.Feasible {
			continue
		}
		plan.Unassigned = append(plan.Unassigned, dropped(route, res.Route)...)
		assignment[d] = res.Route
	}
	return plan, nil
}

// InsertionCost is the marginal distance of visiting rider on route. A route
// holding only its depot costs the direct depot-to-rider distance; otherwise
// the cheapest gap between consecutive stops is used, the closing gap
// returning to the depot included. Gaps with an unreachable leg are skipped.
func InsertionCost(g *graph.Graph, route Route, rider string) float64 {
	if len(route) == 0 {
		return math.Inf(1)
	}
	if len(route) == 1 {
		return legDistance(g, route[0], rider)
	}
	best := math.Inf(1)
	for i := 1; i <= len(route); i++ {
		prev := route[i-1]
		next := route[0]
		if i < len(route) {
			next = route[i]
		}
		orig := legDistance(g, prev, next)
		to := legDistance(g, prev, rider)
		from := legDistance(g, rider, next)
		if math.IsInf(orig, 1) || math.IsInf(to, 1) || math.IsInf(from, 1) {
			continue
		}
		if c := to + from - orig; c < best {
			best = c
		}
	}
	return best
}

// dropped lists stops of before that are absent from after.
func dropped(before, after Route) []string {
	kept := make(map[string]bool, len(after))
	for _, id := range after {
		kept[id] = true
	}
	var out []string
	for _, id := range before[1:] {
		if !kept[id] {
			out = append(out, id)
		}
	}
	return out
}
