package conflict

import (
	"ridepool/internal/graph"
	"ridepool/internal/opt"
)

// Budget is a per-route travel-time limit at a constant average speed.
type Budget struct {
	AvgSpeedKmh float64
	MaxMinutes  float64
}

func DefaultBudget() Budget {
	return Budget{AvgSpeedKmh: graph.AverageSpeedKmh, MaxMinutes: 120}
}

// RouteMinutes estimates the driving time of route. Legs without a path
// contribute nothing.
func (b Budget) RouteMinutes(g *graph.Graph, route opt.Route) float64 {
	speed := b.AvgSpeedKmh
	if speed <= 0 {
		speed = graph.AverageSpeedKmh
	}
	total := 0.0
	for i := 0; i < len(route)-1; i++ {
		res, err := graph.ShortestPath(g, route[i], route[i+1])
		if err != nil || !res.Finite() {
			continue
		}
		total += res.Distance / speed * 60
	}
	return total
}

// Check reports whether every route with passengers fits in MaxMinutes.
func (b Budget) Check(g *graph.Graph, a opt.Assignment) bool {
	for _, depot := range a.Depots() {
		route := a[depot]
		if len(route) <= 1 {
			continue
		}
		if b.RouteMinutes(g, route) > b.MaxMinutes {
			return false
		}
	}
	return true
}

// WithinTimeBudget checks a at 40 km/h against a 120 minute limit.
func WithinTimeBudget(g *graph.Graph, a opt.Assignment) bool {
	return DefaultBudget().Check(g, a)
}
