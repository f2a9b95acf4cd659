package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ridepool/internal/conflict"
	"ridepool/internal/metrics"
	"ridepool/internal/opt"
	"ridepool/internal/webhooks"
)

// run executes one job start to finish on the calling worker. Errors and
// panics end as an ERROR status and never escape.
func (s *Service) run(e *entry) {
	if s.aborted.Load() {
		s.fail(e, "terminated at shutdown")
		return
	}
	began := time.Now()
	if !e.start(began.UTC()) {
		return
	}
	log := s.log.With(zap.String("job_id", e.id))
	log.Info("job started")
	s.publish(e.id, EventRunning, nil)

	defer func() {
		if r := recover(); r != nil {
			log.Error("job panicked", zap.Any("panic", r), zap.Stack("stack"))
			s.fail(e, fmt.Sprintf("internal error: %v", r))
		}
		metrics.JobDuration.Observe(time.Since(began).Seconds())
	}()

	st, err := s.optimize(s.ctx, e)
	if err != nil {
		log.Warn("job failed", zap.Error(err))
		s.fail(e, err.Error())
		return
	}
	st.Stats.DurationMs = time.Since(began).Milliseconds()
	s.complete(e, st, log)
}

// optimize is the pipeline proper: network, assignment, validation.
func (s *Service) optimize(ctx context.Context, e *entry) (Status, error) {
	req := e.req
	net, err := BuildNetwork(ctx, s.opts.Geocoder, req.Riders, req.Vehicles)
	if err != nil {
		return Status{}, fmt.Errorf("build network: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Status{}, err
	}

	an := opt.NewAnnealer(s.opts.Schedule, s.newRand())
	plan, err := opt.Assign(net.Graph, net.RiderPoints, net.Depots, net.Capacities, an)
	if err != nil {
		return Status{}, fmt.Errorf("assign: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Status{}, err
	}

	conflicts := conflict.Detect(net.Graph, plan.Assignment, net.Capacities)
	within := s.opts.Budget.Check(net.Graph, plan.Assignment)
	valid := conflict.Valid(conflicts)

	stats := &Stats{
		Riders:   len(req.Riders),
		Vehicles: len(req.Vehicles),
		Depots:   len(net.Depots),
	}
	for _, a := range plan.Stats {
		stats.Iterations += a.Iterations
		stats.AcceptedWorse += a.AcceptedWorse
		stats.Improvements += a.Improvements
	}
	trips := net.Trips(e.id, plan.Assignment, s.opts.Budget)
	for _, t := range trips {
		stats.TotalDistanceKm += t.DistanceKm
	}
	metrics.AnnealIterations.Add(float64(stats.Iterations))
	metrics.AnnealAcceptedWorse.Add(float64(stats.AcceptedWorse))
	metrics.UnassignedRiders.Add(float64(len(plan.Unassigned)))
	for _, c := range conflicts {
		metrics.JobConflicts.WithLabelValues(string(c.Kind)).Inc()
	}

	if s.opts.Trips != nil && len(trips) > 0 {
		tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := s.opts.Trips.SaveTrips(tctx, trips)
		cancel()
		if err != nil {
			s.log.Warn("save trips", zap.String("job_id", e.id), zap.Error(err))
		}
	}

	if conflicts == nil {
		conflicts = []conflict.Conflict{}
	}
	return Status{
		Status:           Done,
		Message:          fmt.Sprintf("optimization finished with %d vehicle(s)", len(plan.Assignment)),
		Assignment:       plan.Assignment,
		Conflicts:        conflicts,
		Valid:            &valid,
		WithinTimeBudget: &within,
		Unassigned:       net.RiderIDs(plan.Unassigned),
		Stats:            stats,
	}, nil
}

func (s *Service) complete(e *entry, st Status, log *zap.Logger) {
	now := time.Now().UTC()
	st.FinishedAt = &now
	if !e.finish(st) {
		log.Debug("job finished after termination; result discarded")
		return
	}
	metrics.JobsCompleted.WithLabelValues(string(Done)).Inc()
	metrics.JobsInFlight.Dec()
	log.Info("job done",
		zap.Int("vehicles", len(st.Assignment)),
		zap.Int("conflicts", len(st.Conflicts)),
		zap.Int("unassigned", len(st.Unassigned)),
		zap.Int64("duration_ms", st.Stats.DurationMs))
	s.publish(e.id, EventDone, map[string]any{
		"conflicts":  len(st.Conflicts),
		"unassigned": len(st.Unassigned),
	})
	s.notify(e, st)
}

// fail records an ERROR status. It reports whether this call made the job
// terminal.
func (s *Service) fail(e *entry, msg string) bool {
	now := time.Now().UTC()
	st := Status{Status: Failed, Message: msg, FinishedAt: &now}
	if !e.finish(st) {
		return false
	}
	metrics.JobsCompleted.WithLabelValues(string(Failed)).Inc()
	metrics.JobsInFlight.Dec()
	s.log.Info("job failed", zap.String("job_id", e.id), zap.String("message", msg))
	s.publish(e.id, EventFailed, map[string]any{"message": msg})
	s.notify(e, e.snapshot())
	return true
}

func (s *Service) notify(e *entry, st Status) {
	if s.opts.Notifier == nil || e.req.CallbackURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := s.opts.Notifier.Emit(ctx, e.req.CallbackURL, webhooks.EventJobCompleted, st); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("enqueue callback", zap.String("job_id", e.id), zap.Error(err))
	}
}
