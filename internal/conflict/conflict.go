// Package conflict validates an assignment against vehicle capacity, rider
// uniqueness and graph reachability.
package conflict

import (
	"fmt"
	"strings"

	"ridepool/internal/graph"
	"ridepool/internal/opt"
)

type Kind string

const (
	CapacityUnknown  Kind = "CAPACITY_UNKNOWN"
	CapacityExceeded Kind = "CAPACITY_EXCEEDED"
	DuplicateRider   Kind = "DUPLICATE_RIDER"
	NodeMissing      Kind = "NODE_MISSING"
	PathMissing      Kind = "PATH_MISSING"
)

// Conflict is one violation found in an assignment.
type Conflict struct {
	Kind       Kind   `json:"kind"`
	Depot      string `json:"depot"`
	Rider      string `json:"rider,omitempty"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	Passengers int    `json:"passengers,omitempty"`
	Capacity   int    `json:"capacity,omitempty"`
	Message    string `json:"message"`
}

func (c Conflict) String() string { return string(c.Kind) + ": " + c.Message }

// Detect runs the capacity, uniqueness and reachability checks. Depots are
// visited in lexical order so the output is stable.
func Detect(g *graph.Graph, a opt.Assignment, capacities map[string]int) []Conflict {
	if g == nil {
		g = graph.New()
	}
	var out []Conflict
	out = append(out, checkCapacity(a, capacities)...)
	out = append(out, checkUnique(a)...)
	out = append(out, checkReachable(g, a)...)
	return out
}

// Valid reports whether no conflicts were found.
func Valid(conflicts []Conflict) bool { return len(conflicts) == 0 }

func checkCapacity(a opt.Assignment, capacities map[string]int) []Conflict {
	var out []Conflict
	for _, depot := range a.Depots() {
		route := a[depot]
		limit, ok := capacities[depot]
		if !ok {
			out = append(out, Conflict{
				Kind:    CapacityUnknown,
				Depot:   depot,
				Message: fmt.Sprintf("capacity unknown for vehicle %s", depot),
			})
			continue
		}
		if n := route.Passengers(); n > limit {
			out = append(out, Conflict{
				Kind:       CapacityExceeded,
				Depot:      depot,
				Passengers: n,
				Capacity:   limit,
				Message:    fmt.Sprintf("capacity exceeded for %s: %d passengers > %d", depot, n, limit),
			})
		}
	}
	return out
}

func checkUnique(a opt.Assignment) []Conflict {
	var out []Conflict
	seen := map[string]bool{}
	for _, depot := range a.Depots() {
		route := a[depot]
		for i := 1; i < len(route); i++ {
			rider := route[i]
			if seen[rider] {
				out = append(out, Conflict{
					Kind:    DuplicateRider,
					Depot:   depot,
					Rider:   rider,
					Message: fmt.Sprintf("rider %s assigned more than once", rider),
				})
				continue
			}
			seen[rider] = true
		}
	}
	return out
}

func checkReachable(g *graph.Graph, a opt.Assignment) []Conflict {
	var out []Conflict
	for _, depot := range a.Depots() {
		route := a[depot]
		for i := 0; i < len(route)-1; i++ {
			from, to := route[i], route[i+1]
			if !g.HasNode(from) || !g.HasNode(to) {
				out = append(out, Conflict{
					Kind:    NodeMissing,
					Depot:   depot,
					From:    from,
					To:      to,
					Message: fmt.Sprintf("missing node between %s and %s", from, to),
				})
				continue
			}
			res, err := graph.ShortestPath(g, from, to)
			if err != nil || !res.Finite() {
				out = append(out, Conflict{
					Kind:    PathMissing,
					Depot:   depot,
					From:    from,
					To:      to,
					Message: fmt.Sprintf("no path from %s to %s", from, to),
				})
			}
		}
	}
	return out
}

// Report renders conflicts as a human-readable block.
func Report(conflicts []Conflict) string {
	if len(conflicts) == 0 {
		return "no conflicts detected"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d conflict(s) detected:\n", len(conflicts))
	for _, c := range conflicts {
		b.WriteString(" - ")
		b.WriteString(c.String())
		b.WriteByte('\n')
	}
	return b.String()
}
