package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	_ "github.com/jackc/pgx/v5/stdlib"

	"ridepool/internal/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// Migrate applies the embedded schema files in lexical order. Every statement
// is idempotent.
func (p *Postgres) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		body, err := migrations.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := p.db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
	}
	return nil
}

func (p *Postgres) UpsertRiders(ctx context.Context, riders []model.Rider) (int, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()
	for _, r := range riders {
		_, err = tx.ExecContext(ctx, `INSERT INTO riders (id, name, start_address, end_address, preferences, availability)
            VALUES ($1,$2,$3,$4,$5,$6)
            ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, start_address=EXCLUDED.start_address,
                end_address=EXCLUDED.end_address, preferences=EXCLUDED.preferences,
                availability=EXCLUDED.availability, updated_at=now()`,
			r.ID, nullIfEmpty(r.Name), nullIfEmpty(r.StartAddress), nullIfEmpty(r.EndAddress),
			nullIfEmpty(r.Preferences), nullIfEmpty(r.Availability))
		if err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(riders), nil
}

func (p *Postgres) ListRiders(ctx context.Context) ([]model.Rider, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, COALESCE(name,''), COALESCE(start_address,''), COALESCE(end_address,''),
        COALESCE(preferences,''), COALESCE(availability,'') FROM riders ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Rider{}
	for rows.Next() {
		var r model.Rider
		if err := rows.Scan(&r.ID, &r.Name, &r.StartAddress, &r.EndAddress, &r.Preferences, &r.Availability); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) GetRider(ctx context.Context, id string) (model.Rider, error) {
	var r model.Rider
	err := p.db.QueryRowContext(ctx, `SELECT id, COALESCE(name,''), COALESCE(start_address,''), COALESCE(end_address,''),
        COALESCE(preferences,''), COALESCE(availability,'') FROM riders WHERE id=$1`, id).
		Scan(&r.ID, &r.Name, &r.StartAddress, &r.EndAddress, &r.Preferences, &r.Availability)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Rider{}, ErrNotFound
	}
	return r, err
}

func (p *Postgres) UpsertVehicles(ctx context.Context, vehicles []model.Vehicle) (int, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()
	for _, v := range vehicles {
		_, err = tx.ExecContext(ctx, `INSERT INTO vehicles (id, driver_id, model, capacity) VALUES ($1,$2,$3,$4)
            ON CONFLICT (id) DO UPDATE SET driver_id=EXCLUDED.driver_id, model=EXCLUDED.model,
                capacity=EXCLUDED.capacity, updated_at=now()`,
			v.ID, v.DriverID, nullIfEmpty(v.Model), v.Capacity)
		if err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(vehicles), nil
}

func (p *Postgres) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, driver_id, COALESCE(model,''), capacity FROM vehicles ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Vehicle{}
	for rows.Next() {
		var v model.Vehicle
		if err := rows.Scan(&v.ID, &v.DriverID, &v.Model, &v.Capacity); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (p *Postgres) SaveTrips(ctx context.Context, trips []model.Trip) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, t := range trips {
		t = stampTrip(t)
		passengers, err := jsonList(t.PassengerIDs)
		if err != nil {
			return err
		}
		stops, err := jsonList(t.Stops)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO trips (id, job_id, vehicle_id, driver_id, depot_node, passenger_ids, stops, distance_km, duration_min, created_at)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			t.ID, t.JobID, t.VehicleID, nullIfEmpty(t.DriverID), t.DepotNode, passengers, stops, t.DistanceKm, t.DurationMin, t.CreatedAt)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (p *Postgres) ListTrips(ctx context.Context, jobID string, limit int) ([]model.Trip, error) {
	limit = clampLimit(limit)
	q := `SELECT id::text, job_id, vehicle_id, COALESCE(driver_id,''), depot_node, passenger_ids, stops, distance_km, duration_min, created_at
        FROM trips`
	args := []any{}
	if jobID != "" {
		q += ` WHERE job_id=$1 ORDER BY created_at, vehicle_id LIMIT $2`
		args = append(args, jobID, limit)
	} else {
		q += ` ORDER BY created_at, vehicle_id LIMIT $1`
		args = append(args, limit)
	}
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Trip{}
	for rows.Next() {
		var t model.Trip
		var passengers, stops []byte
		if err := rows.Scan(&t.ID, &t.JobID, &t.VehicleID, &t.DriverID, &t.DepotNode, &passengers, &stops, &t.DistanceKm, &t.DurationMin, &t.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(passengers, &t.PassengerIDs); err != nil {
			return nil, fmt.Errorf("trip %s passengers: %w", t.ID, err)
		}
		if err := json.Unmarshal(stops, &t.Stops); err != nil {
			return nil, fmt.Errorf("trip %s stops: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// jsonList encodes a string list for a JSONB column; nil becomes [].
func jsonList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	return string(b), err
}
