package store

import (
	"context"
	"errors"

	"ridepool/internal/model"
)

// Store holds rider, vehicle and trip records. Jobs themselves are never
// persisted.
type Store interface {
	// Riders
	UpsertRiders(ctx context.Context, riders []model.Rider) (int, error)
	ListRiders(ctx context.Context) ([]model.Rider, error)
	GetRider(ctx context.Context, id string) (model.Rider, error)

	// Vehicles
	UpsertVehicles(ctx context.Context, vehicles []model.Vehicle) (int, error)
	ListVehicles(ctx context.Context) ([]model.Vehicle, error)

	// Trips produced by completed jobs. An empty jobID lists every trip.
	SaveTrips(ctx context.Context, trips []model.Trip) error
	ListTrips(ctx context.Context, jobID string, limit int) ([]model.Trip, error)

	Ping(ctx context.Context) error
}

var ErrNotFound = errors.New("not found")
