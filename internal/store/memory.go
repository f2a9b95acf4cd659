package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"ridepool/internal/model"
)

// Memory is a simple in-memory store used when no database URL is set.
type Memory struct {
	mu         sync.Mutex
	riders     map[string]model.Rider
	riderOrder []string
	vehicles   map[string]model.Vehicle
	vehOrder   []string
	trips      []model.Trip
}

func NewMemory() *Memory {
	return &Memory{
		riders:   map[string]model.Rider{},
		vehicles: map[string]model.Vehicle{},
	}
}

func (m *Memory) UpsertRiders(ctx context.Context, riders []model.Rider) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range riders {
		if _, ok := m.riders[r.ID]; !ok {
			m.riderOrder = append(m.riderOrder, r.ID)
		}
		m.riders[r.ID] = r
	}
	return len(riders), nil
}

func (m *Memory) ListRiders(ctx context.Context) ([]model.Rider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Rider, 0, len(m.riderOrder))
	for _, id := range m.riderOrder {
		out = append(out, m.riders[id])
	}
	return out, nil
}

func (m *Memory) GetRider(ctx context.Context, id string) (model.Rider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.riders[id]
	if !ok {
		return model.Rider{}, ErrNotFound
	}
	return r, nil
}

func (m *Memory) UpsertVehicles(ctx context.Context, vehicles []model.Vehicle) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range vehicles {
		if _, ok := m.vehicles[v.ID]; !ok {
			m.vehOrder = append(m.vehOrder, v.ID)
		}
		m.vehicles[v.ID] = v
	}
	return len(vehicles), nil
}

func (m *Memory) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Vehicle, 0, len(m.vehOrder))
	for _, id := range m.vehOrder {
		out = append(out, m.vehicles[id])
	}
	return out, nil
}

func (m *Memory) SaveTrips(ctx context.Context, trips []model.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range trips {
		m.trips = append(m.trips, stampTrip(t))
	}
	return nil
}

func (m *Memory) ListTrips(ctx context.Context, jobID string, limit int) ([]model.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	limit = clampLimit(limit)
	out := []model.Trip{}
	for _, t := range m.trips {
		if jobID != "" && t.JobID != jobID {
			continue
		}
		out = append(out, t)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

// stampTrip fills the identifier and creation time when absent.
func stampTrip(t model.Trip) model.Trip {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	return t
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}
