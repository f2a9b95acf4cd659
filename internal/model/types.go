package model

import "time"

// Rider is a person requesting a seat. Drivers are riders too; a vehicle
// refers to its driver by rider id.
type Rider struct {
	ID           string `json:"id" yaml:"id" validate:"required"`
	Name         string `json:"name,omitempty" yaml:"name,omitempty"`
	StartAddress string `json:"startAddress,omitempty" yaml:"startAddress,omitempty"`
	EndAddress   string `json:"endAddress,omitempty" yaml:"endAddress,omitempty"`
	Preferences  string `json:"preferences,omitempty" yaml:"preferences,omitempty"`
	Availability string `json:"availability,omitempty" yaml:"availability,omitempty"`
}

type Vehicle struct {
	ID       string `json:"id" yaml:"id" validate:"required"`
	DriverID string `json:"driverId" yaml:"driverId" validate:"required"`
	Model    string `json:"model,omitempty" yaml:"model,omitempty"`
	Capacity int    `json:"capacity" yaml:"capacity" validate:"gte=0"`
}

// Trip is the record of one vehicle's route produced by a completed job.
type Trip struct {
	ID           string    `json:"id"`
	JobID        string    `json:"jobId"`
	VehicleID    string    `json:"vehicleId"`
	DriverID     string    `json:"driverId"`
	DepotNode    string    `json:"depotNode"`
	PassengerIDs []string  `json:"passengerIds"`
	Stops        []string  `json:"stops"`
	DistanceKm   float64   `json:"distanceKm"`
	DurationMin  float64   `json:"durationMin"`
	CreatedAt    time.Time `json:"createdAt"`
}

// OptimizeRequest is one batch submitted for optimization. Empty lists are
// filled from stored records by the HTTP layer.
type OptimizeRequest struct {
	Riders      []Rider   `json:"riders,omitempty" yaml:"riders" validate:"dive"`
	Vehicles    []Vehicle `json:"vehicles,omitempty" yaml:"vehicles" validate:"dive"`
	CallbackURL string    `json:"callbackUrl,omitempty" yaml:"callbackUrl,omitempty" validate:"omitempty,url"`
}

type JobAccepted struct {
	JobID string `json:"jobId"`
}
