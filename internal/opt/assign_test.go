package opt

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridepool/internal/graph"
)

func newTestAnnealer() *Annealer {
	return NewAnnealer(DefaultSchedule(), rand.New(rand.NewSource(17)))
}

func TestAssign_TwoDepotsFiveRiders(t *testing.T) {
	g := cityGraph(t)
	plan, err := Assign(g,
		[]string{"user1", "user2", "user3", "user4", "user5"},
		[]string{"depot_nord", "depot_sud"},
		map[string]int{"depot_nord": 3, "depot_sud": 2},
		newTestAnnealer(),
	)
	require.NoError(t, err)

	assert.Equal(t, Assignment{
		"depot_nord": {"depot_nord", "user1", "user3", "user5"},
		"depot_sud":  {"depot_sud", "user2", "user4"},
	}, plan.Assignment)
	assert.Empty(t, plan.Unassigned)
	assert.Contains(t, plan.Stats, "depot_nord")
	assert.Contains(t, plan.Stats, "depot_sud")
}

func TestAssign_RespectsCapacity(t *testing.T) {
	g := cityGraph(t)
	plan, err := Assign(g,
		[]string{"user1", "user2", "user3", "user4", "user5"},
		[]string{"depot_nord", "depot_sud"},
		map[string]int{"depot_nord": 1, "depot_sud": 1},
		newTestAnnealer(),
	)
	require.NoError(t, err)

	assert.Equal(t, Route{"depot_nord", "user1"}, plan.Assignment["depot_nord"])
	assert.Equal(t, Route{"depot_sud", "user2"}, plan.Assignment["depot_sud"])
	assert.Equal(t, []string{"user3", "user4", "user5"}, plan.Unassigned)
}

func TestAssign_ZeroCapacityDepotStaysEmpty(t *testing.T) {
	g := cityGraph(t)
	plan, err := Assign(g,
		[]string{"user2"},
		[]string{"depot_sud", "depot_nord"},
		map[string]int{"depot_nord": 4, "depot_sud": 0},
		newTestAnnealer(),
	)
	require.NoError(t, err)
	assert.Equal(t, Route{"depot_sud"}, plan.Assignment["depot_sud"])
	assert.Equal(t, Route{"depot_nord", "user2"}, plan.Assignment["depot_nord"])
}

func TestAssign_MissingCapacityIsUnbounded(t *testing.T) {
	g := cityGraph(t)
	plan, err := Assign(g, []string{"user1", "user3", "user5"}, []string{"depot_nord"}, nil, newTestAnnealer())
	require.NoError(t, err)
	assert.Equal(t, Route{"depot_nord", "user1", "user3", "user5"}, plan.Assignment["depot_nord"])
}

func TestAssign_UnreachableRiderIsUnassigned(t *testing.T) {
	g := cityGraph(t)
	require.NoError(t, g.AddNode(graph.Node{ID: "island", Lat: 40, Lng: 3}))

	plan, err := Assign(g, []string{"island", "user1"}, []string{"depot_nord", "depot_sud"}, nil, newTestAnnealer())
	require.NoError(t, err)
	assert.Equal(t, []string{"island"}, plan.Unassigned)
	for _, r := range plan.Assignment {
		assert.NotContains(t, r, "island")
	}
}

func TestAssign_FirstDepotWinsTies(t *testing.T) {
	nodes := []graph.Node{
		{ID: "east", Lat: 48.5, Lng: 2.75},
		{ID: "west", Lat: 48.5, Lng: 2.25},
		{ID: "mid", Lat: 48.5, Lng: 2.5},
	}
	g := completeGraph(t, nodes)

	plan, err := Assign(g, []string{"mid"}, []string{"west", "east"}, nil, newTestAnnealer())
	require.NoError(t, err)
	assert.Equal(t, Route{"west", "mid"}, plan.Assignment["west"])
	assert.Equal(t, Route{"east"}, plan.Assignment["east"])
}

func TestAssign_EveryRiderAppearsOnce(t *testing.T) {
	nodes := scatter(77, 14)
	nodes = append(nodes, graph.Node{ID: "depot2", Lat: 48.86, Lng: 2.36})
	g := completeGraph(t, nodes)
	riders := ids(nodes)[1 : len(nodes)-1]

	plan, err := Assign(g, riders, []string{"depot", "depot2"},
		map[string]int{"depot": 6, "depot2": 6}, newTestAnnealer())
	require.NoError(t, err)

	seen := map[string]int{}
	for depot, r := range plan.Assignment {
		require.NotEmpty(t, r)
		assert.Equal(t, depot, r[0])
		assert.LessOrEqual(t, r.Passengers(), 6)
		for _, id := range r[1:] {
			seen[id]++
		}
	}
	for _, id := range plan.Unassigned {
		seen[id]++
	}
	assert.Len(t, seen, len(riders))
	for id, n := range seen {
		assert.Equal(t, 1, n, id)
	}
	assert.Len(t, plan.Unassigned, len(riders)-12)
}

func TestAssign_InvalidInput(t *testing.T) {
	g := cityGraph(t)
	_, err := Assign(g, []string{"ghost"}, []string{"depot_nord"}, nil, nil)
	assert.ErrorIs(t, err, graph.ErrInvalidNode)

	_, err = Assign(g, []string{"user1"}, []string{"depot_x"}, nil, nil)
	assert.ErrorIs(t, err, graph.ErrInvalidNode)

	_, err = Assign(g, []string{"user1"}, []string{"depot_nord", "depot_nord"}, nil, nil)
	assert.ErrorIs(t, err, graph.ErrInvalidNode)
}

func TestInsertionCost(t *testing.T) {
	g := cityGraph(t)
	assert.InDelta(t, 1.2, InsertionCost(g, Route{"depot_nord"}, "user1"), 1e-9)
	assert.InDelta(t, 1.4, InsertionCost(g, Route{"depot_sud", "user2"}, "user4"), 1e-9)
	assert.InDelta(t, 2.1, InsertionCost(g, Route{"depot_nord", "user1", "user3"}, "user5"), 1e-9)
	assert.True(t, math.IsInf(InsertionCost(g, Route{"user1"}, "depot_nord"), 1))
}

func TestInsertionCost_UsesClosingLeg(t *testing.T) {
	nodes := []graph.Node{
		{ID: "depot", Lat: 48.85, Lng: 2.30},
		{ID: "far", Lat: 48.85, Lng: 2.40},
		{ID: "back", Lat: 48.85, Lng: 2.31},
	}
	g := completeGraph(t, nodes)
	route := Route{"depot", "far"}

	viaFirstGap := graph.NodeDistance(nodes[0], nodes[2]) + graph.NodeDistance(nodes[2], nodes[1]) - graph.NodeDistance(nodes[0], nodes[1])
	viaClosing := graph.NodeDistance(nodes[1], nodes[2]) + graph.NodeDistance(nodes[2], nodes[0]) - graph.NodeDistance(nodes[1], nodes[0])
	assert.InDelta(t, math.Min(viaFirstGap, viaClosing), InsertionCost(g, route, "back"), 1e-9)
}
