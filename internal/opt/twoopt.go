package opt

import "ridepool/internal/graph"

// TwoOpt reverses route segments while that strictly shortens the route.
// The depot at index 0 never moves.
func TwoOpt(g *graph.Graph, route Route, passes int) (Route, float64) {
	if passes <= 0 {
		passes = 1
	}
	best := route.Clone()
	bestDist := RouteDistance(g, best)
	n := len(best)
	for it := 0; it < passes; it++ {
		improved := false
		for i := 1; i < n-1; i++ {
			for k := i + 1; k < n; k++ {
				cand := twoOptReverse(best, i, k)
				d := RouteDistance(g, cand)
				if d+1e-9 < bestDist {
					best = cand
					bestDist = d
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}
	return best, bestDist
}

func twoOptReverse(r Route, i, k int) Route {
	out := make(Route, len(r))
	copy(out, r[:i])
	pos := i
	for j := k; j >= i; j-- {
		out[pos] = r[j]
		pos++
	}
	copy(out[pos:], r[k+1:])
	return out
}
