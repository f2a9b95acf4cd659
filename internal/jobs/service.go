// Package jobs runs optimization requests on a bounded worker pool and keeps
// their status pollable by id.
package jobs

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ridepool/internal/conflict"
	"ridepool/internal/events"
	"ridepool/internal/geocode"
	"ridepool/internal/metrics"
	"ridepool/internal/model"
	"ridepool/internal/opt"
)

// TripRecorder persists the trips of completed jobs.
type TripRecorder interface {
	SaveTrips(ctx context.Context, trips []model.Trip) error
}

// Notifier delivers job-completion callbacks.
type Notifier interface {
	Emit(ctx context.Context, url, eventType string, data any) (string, error)
}

type Options struct {
	Workers       int           // 0 selects DefaultWorkers
	QueueSize     int           // pending jobs beyond which Submit fails
	StatusWait    time.Duration // how long Status waits for an unfinished job
	ShutdownGrace time.Duration
	Seed          int64 // 0 seeds each job from the clock

	Schedule opt.Schedule
	Budget   conflict.Budget
	Geocoder geocode.Geocoder

	// Optional collaborators.
	Broker   events.Broker
	Trips    TripRecorder
	Notifier Notifier
	Logger   *zap.Logger
}

func (o *Options) setDefaults() {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers()
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 64
	}
	if o.StatusWait <= 0 {
		o.StatusWait = 50 * time.Millisecond
	}
	if o.ShutdownGrace <= 0 {
		o.ShutdownGrace = 60 * time.Second
	}
	if o.Schedule == (opt.Schedule{}) {
		o.Schedule = opt.DefaultSchedule()
	}
	if o.Budget == (conflict.Budget{}) {
		o.Budget = conflict.DefaultBudget()
	}
	if o.Geocoder == nil {
		o.Geocoder = geocode.NewHashed(geocode.Point{Lat: 48.85, Lng: 2.35}, 0.1)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Service is the job orchestrator.
type Service struct {
	opts Options
	log  *zap.Logger
	reg  *Registry
	pool *pool

	// ctx is cancelled when shutdown gives up on in-flight jobs.
	ctx    context.Context
	cancel context.CancelFunc

	aborted      atomic.Bool
	seq          atomic.Int64
	shutdownOnce sync.Once
	shutdownErr  error
}

func NewService(o Options) *Service {
	o.setDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		opts:   o,
		log:    o.Logger.Named("jobs"),
		reg:    NewRegistry(),
		pool:   newPool(o.Workers, o.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Submit queues riders and vehicles for optimization.
func (s *Service) Submit(riders []model.Rider, vehicles []model.Vehicle) (string, error) {
	return s.SubmitRequest(model.OptimizeRequest{Riders: riders, Vehicles: vehicles})
}

// SubmitRequest validates req and queues it. It never waits for the
// pipeline; the returned id is never reused.
func (s *Service) SubmitRequest(req model.OptimizeRequest) (string, error) {
	if s.aborted.Load() {
		return "", ErrShutdown
	}
	if err := ValidateRequest(req); err != nil {
		return "", err
	}
	id := uuid.New().String()
	e := newEntry(id, req, time.Now().UTC())
	s.reg.add(e)
	s.publish(id, EventPending, nil)
	if err := s.pool.submit(func() { s.run(e) }); err != nil {
		s.reg.remove(id)
		s.publish(id, EventFailed, map[string]any{"message": err.Error()})
		return "", err
	}
	metrics.JobsSubmitted.Inc()
	metrics.JobsInFlight.Inc()
	s.log.Info("job submitted",
		zap.String("job_id", id),
		zap.Int("riders", len(req.Riders)),
		zap.Int("vehicles", len(req.Vehicles)))
	return id, nil
}

// Status never blocks beyond StatusWait. Unknown ids yield an ERROR status.
func (s *Service) Status(id string) Status {
	st, _ := s.Lookup(id)
	return st
}

// Lookup is Status plus whether id is registered.
func (s *Service) Lookup(id string) (Status, bool) {
	e, ok := s.reg.get(id)
	if !ok {
		return Status{JobID: id, Status: Failed, Message: "job not found: " + id}, false
	}
	return s.await(e), true
}

// await gives an unfinished job up to StatusWait to complete, then reports
// whatever state it is in.
func (s *Service) await(e *entry) Status {
	if e.completed() {
		return e.snapshot()
	}
	timer := time.NewTimer(s.opts.StatusWait)
	defer timer.Stop()
	select {
	case <-e.done:
	case <-timer.C:
	}
	return e.snapshot()
}

// Cleanup removes every completed job and returns how many were removed.
func (s *Service) Cleanup() int {
	n := s.reg.removeCompleted()
	if n > 0 {
		s.log.Debug("jobs purged", zap.Int("count", n))
	}
	return n
}

// Shutdown stops accepting jobs and gives queued and running jobs the grace
// period to finish. Jobs still unfinished afterwards are marked ERROR and
// their context is cancelled. Only the first call has an effect.
func (s *Service) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.log.Info("shutting down", zap.Duration("grace", s.opts.ShutdownGrace))
		if !s.pool.stop(ctx, s.opts.ShutdownGrace) {
			s.aborted.Store(true)
			n := 0
			for _, e := range s.reg.unfinished() {
				if s.fail(e, "terminated at shutdown") {
					n++
				}
			}
			s.cancel()
			s.log.Warn("shutdown grace expired", zap.Int("terminated", n))
			s.shutdownErr = fmt.Errorf("%w: %d job(s) terminated", ErrShutdownTimeout, n)
		}
		s.aborted.Store(true)
		s.cancel()
		s.reg.clear()
	})
	return s.shutdownErr
}

// Jobs is the number of registered jobs.
func (s *Service) Jobs() int { return s.reg.Len() }

func (s *Service) newRand() *rand.Rand {
	seed := s.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano() + s.seq.Add(1)
	}
	return rand.New(rand.NewSource(seed))
}

func (s *Service) publish(id, typ string, data map[string]any) {
	if s.opts.Broker == nil {
		return
	}
	s.opts.Broker.Publish(events.JobTopic(id), events.Event{
		Type:  typ,
		JobID: id,
		At:    time.Now().UTC(),
		Data:  data,
	})
}
