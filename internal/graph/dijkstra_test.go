package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleGraph mirrors a small city layout: two depots and five pickup points.
func sampleGraph(t *testing.T) *Graph {
	t.Helper()
	g := New()
	nodes := []Node{
		{ID: "depot_nord", Lat: 48.8566, Lng: 2.3522},
		{ID: "depot_sud", Lat: 48.8566, Lng: 2.3622},
		{ID: "user1", Lat: 48.8575, Lng: 2.3514},
		{ID: "user2", Lat: 48.8550, Lng: 2.3530},
		{ID: "user3", Lat: 48.8580, Lng: 2.3540},
		{ID: "user4", Lat: 48.8530, Lng: 2.3500},
		{ID: "user5", Lat: 48.8600, Lng: 2.3550},
	}
	for _, n := range nodes {
		require.NoError(t, g.AddNode(n))
	}
	edges := []struct {
		from, to string
		d        float64
	}{
		{"depot_nord", "user1", 1.2},
		{"depot_nord", "user3", 1.8},
		{"depot_nord", "user5", 2.1},
		{"depot_sud", "user2", 0.9},
		{"depot_sud", "user4", 1.1},
		{"user1", "user2", 2.0},
		{"user1", "user3", 1.5},
		{"user2", "user4", 1.2},
		{"user3", "user5", 1.0},
		{"user4", "user1", 2.3},
		{"user5", "user3", 1.1},
		{"user2", "user1", 2.0},
		{"user3", "user1", 1.5},
		{"user4", "user2", 1.2},
		{"user1", "user4", 2.3},
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e.from, e.to, e.d))
	}
	return g
}

func TestShortestPath_Direct(t *testing.T) {
	g := sampleGraph(t)
	res, err := ShortestPath(g, "depot_nord", "user1")
	require.NoError(t, err)
	assert.True(t, res.Exists)
	assert.Equal(t, []string{"depot_nord", "user1"}, res.Nodes)
	assert.InDelta(t, 1.2, res.Distance, 1e-9)
}

func TestShortestPath_MultiHop(t *testing.T) {
	g := sampleGraph(t)
	res, err := ShortestPath(g, "depot_nord", "user4")
	require.NoError(t, err)
	require.True(t, res.Exists)
	// depot_nord -> user1 -> user4 = 3.5 beats depot_nord -> user1 -> user2 -> user4 = 4.4
	assert.Equal(t, []string{"depot_nord", "user1", "user4"}, res.Nodes)
	assert.InDelta(t, 3.5, res.Distance, 1e-9)
}

func TestShortestPath_SameNode(t *testing.T) {
	g := sampleGraph(t)
	for _, n := range g.Nodes() {
		res, err := ShortestPath(g, n.ID, n.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{n.ID}, res.Nodes)
		assert.Equal(t, 0.0, res.Distance)
		assert.Equal(t, 0.0, res.Time)
		assert.True(t, res.Exists)
	}
}

func TestShortestPath_Unreachable(t *testing.T) {
	g := sampleGraph(t)
	// No edge enters either depot.
	res, err := ShortestPath(g, "user1", "depot_sud")
	require.NoError(t, err, "unreachable is an outcome, not an error")
	assert.False(t, res.Exists)
	assert.Empty(t, res.Nodes)
	assert.True(t, math.IsInf(res.Distance, 1))
	assert.True(t, math.IsNaN(res.Time))
	assert.False(t, res.Finite())
}

func TestShortestPath_InvalidNodes(t *testing.T) {
	g := sampleGraph(t)
	tests := []struct {
		name       string
		start, end string
	}{
		{"blank start", "", "user1"},
		{"blank end", "user1", " "},
		{"unknown start", "nowhere", "user1"},
		{"unknown end", "user1", "nowhere"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ShortestPath(g, tt.start, tt.end)
			assert.ErrorIs(t, err, ErrInvalidNode)
		})
	}

	_, err := ShortestPath(nil, "a", "b")
	assert.Error(t, err)
}

func TestShortestPath_TimeIsDerivedFromCoordinates(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(Node{ID: "a", Lat: 48.85, Lng: 2.35}))
	require.NoError(t, g.AddNode(Node{ID: "b", Lat: 48.86, Lng: 2.36}))
	require.NoError(t, g.AddNode(Node{ID: "c", Lat: 48.87, Lng: 2.37}))
	// Edge times are deliberately absurd; they must not be summed.
	require.NoError(t, g.AddTimedEdge("a", "b", 5, 999))
	require.NoError(t, g.AddTimedEdge("b", "c", 5, 999))

	res, err := ShortestPath(g, "a", "c")
	require.NoError(t, err)
	na, _ := g.Node("a")
	nb, _ := g.Node("b")
	nc, _ := g.Node("c")
	want := TravelMinutes(NodeDistance(na, nb)) + TravelMinutes(NodeDistance(nb, nc))
	assert.InDelta(t, want, res.Time, 1e-9)
	assert.InDelta(t, 10.0, res.Distance, 1e-9)
}

// Shortest-path distance never exceeds the length of any explicit edge chain.
func TestShortestPath_NeverLongerThanExplicitChain(t *testing.T) {
	g := sampleGraph(t)
	chains := [][]string{
		{"depot_nord", "user1", "user2", "user4"},
		{"depot_nord", "user3", "user5"},
		{"depot_nord", "user5", "user3", "user1", "user4", "user2"},
		{"depot_sud", "user2", "user1", "user3"},
		{"depot_sud", "user4", "user1", "user3", "user5"},
	}
	for _, chain := range chains {
		explicit := 0.0
		for i := 0; i < len(chain)-1; i++ {
			found := false
			for _, e := range g.Edges(chain[i]) {
				if e.To == chain[i+1] {
					explicit += e.Distance
					found = true
					break
				}
			}
			require.True(t, found, "fixture chain %v uses a missing edge", chain)
		}
		res, err := ShortestPath(g, chain[0], chain[len(chain)-1])
		require.NoError(t, err)
		require.True(t, res.Exists)
		assert.LessOrEqual(t, res.Distance, explicit+1e-9, "chain %v", chain)
	}
}

func TestShortestPath_PathIsConsistentWithDistance(t *testing.T) {
	g := sampleGraph(t)
	res, err := ShortestPath(g, "depot_sud", "user5")
	require.NoError(t, err)
	require.True(t, res.Exists)
	assert.Equal(t, "depot_sud", res.Nodes[0])
	assert.Equal(t, "user5", res.Nodes[len(res.Nodes)-1])

	sum := 0.0
	for i := 0; i < len(res.Nodes)-1; i++ {
		best := math.Inf(1)
		for _, e := range g.Edges(res.Nodes[i]) {
			if e.To == res.Nodes[i+1] && e.Distance < best {
				best = e.Distance
			}
		}
		sum += best
	}
	assert.InDelta(t, res.Distance, sum, 1e-9)
}
