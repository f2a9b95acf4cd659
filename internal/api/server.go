package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ridepool/internal/auth"
	"ridepool/internal/events"
	"ridepool/internal/jobs"
	"ridepool/internal/metrics"
	"ridepool/internal/store"
	"ridepool/internal/webhooks"
)

// DeliveryLister exposes queued webhook deliveries to admins.
type DeliveryLister interface {
	List() []webhooks.Delivery
}

type Server struct {
	Jobs       *jobs.Service
	Store      store.Store
	Broker     events.Broker
	Deliveries DeliveryLister
	Log        *zap.Logger

	// Auth guards /v1/admin when set.
	Auth *auth.Verifier

	// Settings is reported verbatim by /debug/info.
	Settings map[string]any

	limiter *rate.Limiter
	metrics bool
}

type Options struct {
	RateRPS float64
	Burst   int
	Metrics bool
}

func NewServer(j *jobs.Service, st store.Store, b events.Broker, log *zap.Logger, o Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if b == nil {
		b = events.NewMemory()
	}
	if st == nil {
		st = store.NewMemory()
	}
	if o.RateRPS <= 0 {
		o.RateRPS = 5
	}
	if o.Burst <= 0 {
		o.Burst = 10
	}
	return &Server{
		Jobs:    j,
		Store:   st,
		Broker:  b,
		Log:     log.Named("api"),
		limiter: rate.NewLimiter(rate.Limit(o.RateRPS), o.Burst),
		metrics: o.Metrics,
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.recoverer)
	r.Use(s.accessLog)

	r.Get("/healthz", s.HealthHandler)
	r.Get("/readyz", s.ReadyHandler)
	r.Get("/debug/info", s.DebugJSON)
	if s.metrics {
		metrics.RegisterDefault()
		r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/riders", s.CreateRidersHandler)
		r.Get("/riders", s.ListRidersHandler)
		r.Get("/riders/{id}", s.GetRiderHandler)
		r.Post("/vehicles", s.CreateVehiclesHandler)
		r.Get("/vehicles", s.ListVehiclesHandler)

		r.With(s.rateLimited).Post("/optimize", s.OptimizeHandler)
		r.Get("/jobs/{id}", s.JobStatusHandler)
		r.Get("/jobs/{id}/events", s.JobEventsHandler)
		r.Get("/trips", s.TripsHandler)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/jobs/cleanup", s.CleanupHandler)
			r.Get("/webhook-deliveries", s.WebhookDeliveriesHandler)
		})
	})
	return r
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler checks the store and, when it supports pinging, the broker.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		writeProblem(w, r, http.StatusServiceUnavailable, "Not Ready", "store: "+err.Error())
		return
	}
	type pinger interface{ Ping(ctx context.Context) error }
	if p, ok := s.Broker.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			writeProblem(w, r, http.StatusServiceUnavailable, "Not Ready", "broker: "+err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
