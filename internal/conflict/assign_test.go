package conflict

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridepool/internal/graph"
	"ridepool/internal/opt"
)

func TestDetect_UnreachableRiderIsNotAConflict(t *testing.T) {
	g := lineGraph(t)
	require.NoError(t, g.AddEdge("a", "depot", 1.1))
	require.NoError(t, g.AddEdge("b", "a", 1.1))
	require.NoError(t, g.AddNode(graph.Node{ID: "island", Lat: 40, Lng: 3}))
	caps := map[string]int{"depot": 3}

	annealer := opt.NewAnnealer(opt.DefaultSchedule(), rand.New(rand.NewSource(1)))
	plan, err := opt.Assign(g, []string{"a", "island", "b"}, []string{"depot"}, caps, annealer)
	require.NoError(t, err)

	assert.Equal(t, []string{"island"}, plan.Unassigned)
	assert.NotContains(t, plan.Assignment["depot"], "island")
	assert.Equal(t, 2, plan.Assignment["depot"].Passengers())

	cs := Detect(g, plan.Assignment, caps)
	assert.Empty(t, cs)
	assert.True(t, Valid(cs))
}
