package opt

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"ridepool/internal/graph"
)

// cityGraph is a small directed layout with two depots and five pickups.
// Nothing leads back into either depot.
func cityGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, n := range []graph.Node{
		{ID: "depot_nord", Lat: 48.8566, Lng: 2.3522},
		{ID: "depot_sud", Lat: 48.8566, Lng: 2.3622},
		{ID: "user1", Lat: 48.8575, Lng: 2.3514},
		{ID: "user2", Lat: 48.8550, Lng: 2.3530},
		{ID: "user3", Lat: 48.8580, Lng: 2.3540},
		{ID: "user4", Lat: 48.8530, Lng: 2.3500},
		{ID: "user5", Lat: 48.8600, Lng: 2.3550},
	} {
		require.NoError(t, g.AddNode(n))
	}
	for _, e := range []struct {
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
	} {
		require.NoError(t, g.AddEdge(e.from, e.to, e.d))
	}
	return g
}

// completeGraph connects every pair of nodes in both directions with
// great-circle distances.
func completeGraph(t *testing.T, nodes []graph.Node) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, n := range nodes {
		require.NoError(t, g.AddNode(n))
	}
	for i := range nodes {
		for j := range nodes {
			if i == j {
				continue
			}
			d := graph.NodeDistance(nodes[i], nodes[j])
			if d <= 0 {
				d = 1e-6
			}
			require.NoError(t, g.AddEdge(nodes[i].ID, nodes[j].ID, d))
		}
	}
	return g
}

func scatter(seed int64, n int) []graph.Node {
	r := rand.New(rand.NewSource(seed))
	out := make([]graph.Node, 0, n)
	out = append(out, graph.Node{ID: "depot", Lat: 48.85, Lng: 2.35})
	for i := 1; i < n; i++ {
		out = append(out, graph.Node{
			ID:  fmt.Sprintf("p%d", i),
			Lat: 48.85 + (r.Float64()-0.5)*0.1,
			Lng: 2.35 + (r.Float64()-0.5)*0.1,
		})
	}
	return out
}

func ids(nodes []graph.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
