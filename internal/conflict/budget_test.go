package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridepool/internal/graph"
	"ridepool/internal/opt"
)

func TestBudget_RouteMinutes(t *testing.T) {
	g := lineGraph(t)
	// 3.3 km at 40 km/h.
	assert.InDelta(t, 4.95, DefaultBudget().RouteMinutes(g, opt.Route{"depot", "a", "b", "c"}), 1e-9)
	// The missing leg back to the depot adds nothing.
	assert.InDelta(t, 1.65, DefaultBudget().RouteMinutes(g, opt.Route{"depot", "a", "depot"}), 1e-9)
}

func TestWithinTimeBudget(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode(graph.Node{ID: "depot", Lat: 48.85, Lng: 2.35}))
	require.NoError(t, g.AddNode(graph.Node{ID: "near", Lat: 48.86, Lng: 2.35}))
	require.NoError(t, g.AddNode(graph.Node{ID: "far", Lat: 49.85, Lng: 2.35}))
	require.NoError(t, g.AddEdge("depot", "near", 10))
	require.NoError(t, g.AddEdge("depot", "far", 81))

	assert.True(t, WithinTimeBudget(g, opt.Assignment{"depot": {"depot", "near"}}))
	assert.False(t, WithinTimeBudget(g, opt.Assignment{"depot": {"depot", "far"}}))
	assert.True(t, WithinTimeBudget(g, opt.Assignment{"depot": {"depot"}}))

	relaxed := Budget{AvgSpeedKmh: 60, MaxMinutes: 120}
	assert.True(t, relaxed.Check(g, opt.Assignment{"depot": {"depot", "far"}}))
}
