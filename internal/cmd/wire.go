package cmd

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ridepool/internal/config"
	"ridepool/internal/conflict"
	"ridepool/internal/events"
	"ridepool/internal/geocode"
	"ridepool/internal/jobs"
	"ridepool/internal/metrics"
	"ridepool/internal/opt"
	"ridepool/internal/store"
	"ridepool/internal/webhooks"
)

// services is everything serve runs besides the HTTP listener.
type services struct {
	store  store.Store
	broker events.Broker
	queue  *webhooks.MemoryQueue
	worker *webhooks.Worker
	jobs   *jobs.Service

	closers []func() error
}

func jobOptions(c *config.Config, log *zap.Logger) jobs.Options {
	return jobs.Options{
		Workers:       c.Jobs.Workers,
		QueueSize:     c.Jobs.QueueSize,
		StatusWait:    c.Jobs.StatusWait,
		ShutdownGrace: c.Jobs.ShutdownGrace,
		Seed:          c.Jobs.Seed,
		Schedule: opt.Schedule{
			MaxIterations: c.Anneal.MaxIterations,
			InitialTemp:   c.Anneal.InitialTemp,
			MinTemp:       c.Anneal.MinTemp,
			CoolingRate:   c.Anneal.CoolingRate,
			TwoOptPasses:  c.Anneal.TwoOptPasses,
		},
		Budget: conflict.Budget{
			AvgSpeedKmh: c.Validation.AvgSpeedKmh,
			MaxMinutes:  c.Validation.MaxRouteMinutes,
		},
		Geocoder: geocode.NewHashed(geocode.Point{Lat: c.Geocode.CenterLat, Lng: c.Geocode.CenterLon}, c.Geocode.Spread),
		Logger:   log,
	}
}

// newServices opens the configured store and broker, falling back to
// in-memory ones when no URL is set.
func newServices(ctx context.Context, c *config.Config, log *zap.Logger) (*services, error) {
	s := &services{}
	if c.Metrics.Enabled {
		metrics.RegisterDefault()
	}

	if c.Database.URL == "" {
		s.store = store.NewMemory()
	} else {
		pg, err := store.NewPostgres(c.Database.URL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pg.Close)
		if c.Database.Migrate {
			if err := pg.Migrate(ctx); err != nil {
				s.close(log)
				return nil, err
			}
		}
		s.store = pg
		log.Info("using postgres store")
	}

	s.broker = events.NewMemory()
	if c.Redis.URL != "" {
		rb, err := events.NewRedisBroker(c.Redis.URL, log.Named("events"))
		if err != nil {
			log.Warn("redis broker unavailable, using in-memory events", zap.Error(err))
		} else {
			pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err = rb.Ping(pctx)
			cancel()
			if err != nil {
				_ = rb.Close()
				log.Warn("redis ping failed, using in-memory events", zap.Error(err))
			} else {
				s.broker = rb
				s.closers = append(s.closers, rb.Close)
				log.Info("using redis event broker")
			}
		}
	}

	s.queue = webhooks.NewMemoryQueue()
	s.worker = webhooks.NewWorker(s.queue, c.Webhooks.MaxAttempts, c.Webhooks.PollInterval, log.Named("webhooks"))

	o := jobOptions(c, log)
	o.Broker = s.broker
	o.Trips = s.store
	o.Notifier = webhooks.NewPublisher(s.queue, c.Webhooks.Secret)
	s.jobs = jobs.NewService(o)
	return s, nil
}

// close stops the webhook worker and releases connections in reverse order.
func (s *services) close(log *zap.Logger) {
	if s.worker != nil {
		s.worker.Stop()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Warn("close", zap.Error(err))
		}
	}
}

// settingsSummary is the non-secret part of c reported by /debug/info.
func settingsSummary(c *config.Config) map[string]any {
	return map[string]any{
		"server.addr":            c.Server.Addr,
		"jobs.workers":           c.Jobs.Workers,
		"jobs.queue_size":        c.Jobs.QueueSize,
		"anneal.max_iterations":  c.Anneal.MaxIterations,
		"anneal.cooling_rate":    c.Anneal.CoolingRate,
		"anneal.two_opt_passes":  c.Anneal.TwoOptPasses,
		"rate.rps":               c.Rate.RPS,
		"rate.burst":             c.Rate.Burst,
		"webhooks.max_attempts":  c.Webhooks.MaxAttempts,
		"has_database_url":       c.Database.URL != "",
		"has_redis_url":          c.Redis.URL != "",
		"has_webhook_secret":     c.Webhooks.Secret != "",
		"has_auth_secret":        c.Auth.HMACSecret != "",
		"metrics.enabled":        c.Metrics.Enabled,
		"validation.max_minutes": c.Validation.MaxRouteMinutes,
	}
}
