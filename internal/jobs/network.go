package jobs

import (
	"context"
	"fmt"

	"ridepool/internal/conflict"
	"ridepool/internal/geocode"
	"ridepool/internal/graph"
	"ridepool/internal/model"
	"ridepool/internal/opt"
)

const (
	pickupOffset = 0.001
	// minEdgeKm stands in for the distance between co-located nodes.
	minEdgeKm = 1e-6
)

func DepotNode(vehicleID string) string { return "depot_" + vehicleID }
func StartNode(riderID string) string   { return "user_start_" + riderID }
func EndNode(riderID string) string     { return "user_end_" + riderID }

// Network is the routing problem derived from rider and vehicle records.
type Network struct {
	Graph       *graph.Graph
	RiderPoints []string
	Depots      []string
	Capacities  map[string]int

	vehicleByDepot map[string]model.Vehicle
	riderByNode    map[string]string
}

// BuildNetwork geocodes every rider and every vehicle's driver and connects
// all resulting nodes pairwise in both directions. A vehicle whose driver is
// not among riders gets no depot.
func BuildNetwork(ctx context.Context, gc geocode.Geocoder, riders []model.Rider, vehicles []model.Vehicle) (*Network, error) {
	if gc == nil {
		return nil, fmt.Errorf("geocoder is nil")
	}
	n := &Network{
		Graph:          graph.New(),
		Capacities:     map[string]int{},
		vehicleByDepot: map[string]model.Vehicle{},
		riderByNode:    map[string]string{},
	}
	known := make(map[string]bool, len(riders))
	for _, r := range riders {
		known[r.ID] = true
	}

	for _, v := range vehicles {
		if !known[v.DriverID] {
			continue
		}
		p, err := gc.Locate(ctx, v.DriverID)
		if err != nil {
			return nil, fmt.Errorf("locate driver %s: %w", v.DriverID, err)
		}
		id := DepotNode(v.ID)
		if err := n.Graph.AddNode(graph.Node{ID: id, Lat: p.Lat, Lng: p.Lng, Name: v.Model}); err != nil {
			return nil, err
		}
		n.Depots = append(n.Depots, id)
		n.Capacities[id] = v.Capacity
		n.vehicleByDepot[id] = v
	}

	for _, r := range riders {
		start, err := gc.Locate(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("locate rider %s: %w", r.ID, err)
		}
		end, err := gc.Locate(ctx, r.ID+"#end")
		if err != nil {
			return nil, fmt.Errorf("locate rider %s destination: %w", r.ID, err)
		}
		sid := StartNode(r.ID)
		if err := n.Graph.AddNode(graph.Node{ID: sid, Lat: start.Lat + pickupOffset, Lng: start.Lng + pickupOffset, Name: r.StartAddress}); err != nil {
			return nil, err
		}
		if err := n.Graph.AddNode(graph.Node{ID: EndNode(r.ID), Lat: end.Lat - pickupOffset, Lng: end.Lng - pickupOffset, Name: r.EndAddress}); err != nil {
			return nil, err
		}
		n.RiderPoints = append(n.RiderPoints, sid)
		n.riderByNode[sid] = r.ID
	}

	nodes := n.Graph.Nodes()
	for i := range nodes {
		for j := range nodes {
			if i == j {
				continue
			}
			d := graph.NodeDistance(nodes[i], nodes[j])
			if d < minEdgeKm {
				d = minEdgeKm
			}
			if err := n.Graph.AddEdge(nodes[i].ID, nodes[j].ID, d); err != nil {
				return nil, err
			}
		}
	}
	return n, nil
}

// RiderIDs maps rider point node ids back to rider ids. Unknown nodes are
// kept as is.
func (n *Network) RiderIDs(nodes []string) []string {
	out := make([]string, 0, len(nodes))
	for _, id := range nodes {
		if r, ok := n.riderByNode[id]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, id)
	}
	return out
}

// Trips builds one trip record per route that carries passengers, in depot
// order.
func (n *Network) Trips(jobID string, a opt.Assignment, budget conflict.Budget) []model.Trip {
	var out []model.Trip
	for _, depot := range n.Depots {
		route, ok := a[depot]
		if !ok || len(route) <= 1 {
			continue
		}
		v := n.vehicleByDepot[depot]
		out = append(out, model.Trip{
			JobID:        jobID,
			VehicleID:    v.ID,
			DriverID:     v.DriverID,
			DepotNode:    depot,
			PassengerIDs: n.RiderIDs(route[1:]),
			Stops:        append([]string(nil), route...),
			DistanceKm:   opt.RouteDistance(n.Graph, route),
			DurationMin:  budget.RouteMinutes(n.Graph, route),
		})
	}
	return out
}
