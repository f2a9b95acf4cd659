package opt

import (
	"math"
	"math/rand"
	"time"

	"ridepool/internal/graph"
)

// Schedule controls the simulated-annealing search.
type Schedule struct {
	MaxIterations int
	InitialTemp   float64
	MinTemp       float64
	CoolingRate   float64 // temperature is multiplied by 1-CoolingRate each step
	TwoOptPasses  int     // optional 2-opt polish of the best route; 0 disables it
}

func DefaultSchedule() Schedule {
	return Schedule{
		MaxIterations: 1000,
		InitialTemp:   1000.0,
		MinTemp:       1.0,
		CoolingRate:   0.003,
	}
}

// AnnealStats records what a single Improve call did.
type AnnealStats struct {
	Iterations    int     `json:"iterations"`
	Accepted      int     `json:"accepted"`
	AcceptedWorse int     `json:"acceptedWorse"`
	Improvements  int     `json:"improvements"`
	SeedCost      float64 `json:"seedCost"`
	BestCost      float64 `json:"bestCost"`
	FinalTemp     float64 `json:"finalTemp"`
}

// Result is the best route found by Improve.
type Result struct {
	Route    Route
	Distance float64
	Feasible bool
	Stats    AnnealStats
}

// Annealer improves single-vehicle routes. An Annealer owns its random
// source and must not be shared between goroutines.
type Annealer struct {
	schedule Schedule
	rng      *rand.Rand
}

// NewAnnealer builds an Annealer. A nil rng is replaced by a time-seeded one.
func NewAnnealer(s Schedule, rng *rand.Rand) *Annealer {
	def := DefaultSchedule()
	if s.MaxIterations <= 0 {
		s.MaxIterations = def.MaxIterations
	}
	if s.InitialTemp <= 0 {
		s.InitialTemp = def.InitialTemp
	}
	if s.MinTemp <= 0 {
		s.MinTemp = def.MinTemp
	}
	if s.CoolingRate <= 0 || s.CoolingRate >= 1 {
		s.CoolingRate = def.CoolingRate
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Annealer{schedule: s, rng: rng}
}

func (a *Annealer) Schedule() Schedule { return a.schedule }

// Improve seeds a route with BuildRoute and anneals it by swapping stops,
// keeping the depot fixed. The best route seen over all iterations is
// returned; it is feasible iff its cost is finite.
func (a *Annealer) Improve(g *graph.Graph, start string, mustVisit []string) (Result, error) {
	seed, err := BuildRoute(g, start, mustVisit)
	if err != nil {
		return Result{}, err
	}
	current := seed
	currentCost := RouteDistance(g, current)
	best := current.Clone()
	bestCost := currentCost
	stats := AnnealStats{SeedCost: currentCost}

	temp := a.schedule.InitialTemp
	// Fewer than two movable stops leaves nothing to swap.
	if len(seed) > 2 {
		for it := 0; it < a.schedule.MaxIterations && temp > a.schedule.MinTemp; it++ {
			stats.Iterations++
			cand := a.neighbor(current)
			candCost := RouteDistance(g, cand)
			if a.accept(currentCost, candCost, temp) {
				if candCost >= currentCost {
					stats.AcceptedWorse++
				}
				stats.Accepted++
				current = cand
				currentCost = candCost
			}
			if candCost < bestCost {
				best = cand.Clone()
				bestCost = candCost
				stats.Improvements++
			}
			temp *= 1 - a.schedule.CoolingRate
		}
	}

	if a.schedule.TwoOptPasses > 0 && !math.IsInf(bestCost, 1) {
		best, bestCost = TwoOpt(g, best, a.schedule.TwoOptPasses)
	}

	stats.BestCost = bestCost
	stats.FinalTemp = temp
	return Result{
		Route:    best,
		Distance: bestCost,
		Feasible: !math.IsInf(bestCost, 1) && !math.IsNaN(bestCost),
		Stats:    stats,
	}, nil
}

// neighbor swaps two positions drawn uniformly from 1..len-1.
func (a *Annealer) neighbor(route Route) Route {
	out := route.Clone()
	if len(out) <= 2 {
		return out
	}
	i := a.rng.Intn(len(out)-1) + 1
	j := a.rng.Intn(len(out)-1) + 1
	if i != j {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// accept is the Metropolis criterion. Two infinite costs compare as NaN and
// are never accepted.
func (a *Annealer) accept(currentCost, newCost, temp float64) bool {
	if newCost < currentCost {
		return true
	}
	p := math.Exp((currentCost - newCost) / temp)
	return a.rng.Float64() < p
}
