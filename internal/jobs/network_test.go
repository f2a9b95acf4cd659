package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridepool/internal/conflict"
	"ridepool/internal/model"
	"ridepool/internal/opt"
)

func TestBuildNetwork(t *testing.T) {
	vehicles := []model.Vehicle{
		{ID: "v1", DriverID: "1", Capacity: 2, Model: "Zoe"},
		{ID: "v2", DriverID: "ghost", Capacity: 4},
	}
	net, err := BuildNetwork(context.Background(), paris, riders(3), vehicles)
	require.NoError(t, err)

	assert.Equal(t, []string{"depot_v1"}, net.Depots)
	assert.Equal(t, map[string]int{"depot_v1": 2}, net.Capacities)
	assert.Equal(t, []string{"user_start_1", "user_start_2", "user_start_3"}, net.RiderPoints)
	assert.Equal(t, 7, net.Graph.NodeCount())
	assert.Equal(t, 7*6, net.Graph.EdgeCount())

	driver, err := paris.Locate(context.Background(), "1")
	require.NoError(t, err)
	depot, ok := net.Graph.Node("depot_v1")
	require.True(t, ok)
	assert.Equal(t, driver.Lat, depot.Lat)
	start, ok := net.Graph.Node("user_start_1")
	require.True(t, ok)
	assert.InDelta(t, driver.Lat+0.001, start.Lat, 1e-12)
	assert.InDelta(t, driver.Lng+0.001, start.Lng, 1e-12)

	end, err := paris.Locate(context.Background(), "1#end")
	require.NoError(t, err)
	endNode, ok := net.Graph.Node("user_end_1")
	require.True(t, ok)
	assert.InDelta(t, end.Lat-0.001, endNode.Lat, 1e-12)
}

func TestBuildNetwork_Errors(t *testing.T) {
	_, err := BuildNetwork(context.Background(), nil, riders(1), nil)
	assert.Error(t, err)

	_, err = BuildNetwork(context.Background(), failingGeocoder{}, riders(1), nil)
	assert.ErrorContains(t, err, "lookup unavailable")
}

func TestNetworkTrips(t *testing.T) {
	vehicles := []model.Vehicle{
		{ID: "v1", DriverID: "1", Capacity: 2},
		{ID: "v2", DriverID: "2", Capacity: 2},
	}
	net, err := BuildNetwork(context.Background(), paris, riders(3), vehicles)
	require.NoError(t, err)

	a := opt.Assignment{
		"depot_v1": {"depot_v1", "user_start_3", "user_start_1"},
		"depot_v2": {"depot_v2"},
	}
	trips := net.Trips("job-1", a, conflict.DefaultBudget())
	require.Len(t, trips, 1)
	tr := trips[0]
	assert.Equal(t, "job-1", tr.JobID)
	assert.Equal(t, "v1", tr.VehicleID)
	assert.Equal(t, "1", tr.DriverID)
	assert.Equal(t, []string{"3", "1"}, tr.PassengerIDs)
	assert.InDelta(t, opt.RouteDistance(net.Graph, a["depot_v1"]), tr.DistanceKm, 1e-12)
	assert.InDelta(t, tr.DistanceKm/40*60, tr.DurationMin, 1e-9)
}

func TestValidateRequest(t *testing.T) {
	ok := model.OptimizeRequest{Riders: riders(2), Vehicles: []model.Vehicle{{ID: "v", DriverID: "1", Capacity: 1}}}
	assert.NoError(t, ValidateRequest(ok))

	cases := map[string]model.OptimizeRequest{
		"blank rider":       {Riders: []model.Rider{{ID: ""}}},
		"negative cap":      {Vehicles: []model.Vehicle{{ID: "v", DriverID: "1", Capacity: -1}}},
		"missing driver":    {Vehicles: []model.Vehicle{{ID: "v", Capacity: 1}}},
		"duplicate rider":   {Riders: []model.Rider{{ID: "1"}, {ID: "1"}}},
		"duplicate vehicle": {Vehicles: []model.Vehicle{{ID: "v", DriverID: "1"}, {ID: "v", DriverID: "2"}}},
		"bad callback":      {CallbackURL: "not a url"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateRequest(req), ErrInvalidRequest)
		})
	}
}
