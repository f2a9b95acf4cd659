package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ridepool/internal/jobs"
	"ridepool/internal/model"
	"ridepool/internal/store"
)

const maxBody = 4 << 20

// decodeBody decodes a JSON body into v. An empty body leaves v unchanged.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// CreateRidersHandler handles POST /v1/riders
func (s *Server) CreateRidersHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Riders []model.Rider `json:"riders"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := jobs.ValidateRequest(model.OptimizeRequest{Riders: req.Riders}); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "Invalid riders", err.Error())
		return
	}
	n, err := s.Store.UpsertRiders(r.Context(), req.Riders)
	if err != nil {
		writeProblem(w, r, http.StatusInternalServerError, "Save riders failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"upserted": n})
}

// ListRidersHandler handles GET /v1/riders
func (s *Server) ListRidersHandler(w http.ResponseWriter, r *http.Request) {
	items, err := s.Store.ListRiders(r.Context())
	if err != nil {
		writeProblem(w, r, http.StatusInternalServerError, "List riders failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// GetRiderHandler handles GET /v1/riders/{id}
func (s *Server) GetRiderHandler(w http.ResponseWriter, r *http.Request) {
	rd, err := s.Store.GetRider(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeProblem(w, r, http.StatusNotFound, "Not Found", "rider not found")
	case err != nil:
		writeProblem(w, r, http.StatusInternalServerError, "Get rider failed", err.Error())
	default:
		writeJSON(w, http.StatusOK, rd)
	}
}

// CreateVehiclesHandler handles POST /v1/vehicles
func (s *Server) CreateVehiclesHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Vehicles []model.Vehicle `json:"vehicles"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := jobs.ValidateRequest(model.OptimizeRequest{Vehicles: req.Vehicles}); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "Invalid vehicles", err.Error())
		return
	}
	n, err := s.Store.UpsertVehicles(r.Context(), req.Vehicles)
	if err != nil {
		writeProblem(w, r, http.StatusInternalServerError, "Save vehicles failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"upserted": n})
}

// ListVehiclesHandler handles GET /v1/vehicles
func (s *Server) ListVehiclesHandler(w http.ResponseWriter, r *http.Request) {
	items, err := s.Store.ListVehicles(r.Context())
	if err != nil {
		writeProblem(w, r, http.StatusInternalServerError, "List vehicles failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// OptimizeHandler handles POST /v1/optimize. Missing riders or vehicles are
// taken from the store.
func (s *Server) OptimizeHandler(w http.ResponseWriter, r *http.Request) {
	var req model.OptimizeRequest
	if err := decodeBody(r, &req); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if len(req.Riders) == 0 {
		items, err := s.Store.ListRiders(r.Context())
		if err != nil {
			writeProblem(w, r, http.StatusInternalServerError, "List riders failed", err.Error())
			return
		}
		req.Riders = items
	}
	if len(req.Vehicles) == 0 {
		items, err := s.Store.ListVehicles(r.Context())
		if err != nil {
			writeProblem(w, r, http.StatusInternalServerError, "List vehicles failed", err.Error())
			return
		}
		req.Vehicles = items
	}

	id, err := s.Jobs.SubmitRequest(req)
	switch {
	case errors.Is(err, jobs.ErrInvalidRequest):
		writeProblem(w, r, http.StatusBadRequest, "Invalid optimize request", err.Error())
		return
	case errors.Is(err, jobs.ErrQueueFull):
		w.Header().Set("Retry-After", "1")
		writeProblem(w, r, http.StatusServiceUnavailable, "Queue full", err.Error())
		return
	case errors.Is(err, jobs.ErrShutdown):
		writeProblem(w, r, http.StatusServiceUnavailable, "Shutting down", err.Error())
		return
	case err != nil:
		writeProblem(w, r, http.StatusInternalServerError, "Submit failed", err.Error())
		return
	}
	w.Header().Set("Location", "/v1/jobs/"+id)
	writeJSON(w, http.StatusAccepted, model.JobAccepted{JobID: id})
}

// JobStatusHandler handles GET /v1/jobs/{id}. Unknown ids get the ERROR
// status document with a 404.
func (s *Server) JobStatusHandler(w http.ResponseWriter, r *http.Request) {
	st, ok := s.Jobs.Lookup(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, st)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// CleanupHandler handles POST /v1/admin/jobs/cleanup
func (s *Server) CleanupHandler(w http.ResponseWriter, r *http.Request) {
	n := s.Jobs.Cleanup()
	s.Log.Info("jobs cleaned up", zap.Int("removed", n))
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

// TripsHandler handles GET /v1/trips?jobId=&limit=
func (s *Server) TripsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeProblem(w, r, http.StatusBadRequest, "Invalid limit", "limit must be a positive integer")
			return
		}
		limit = n
	}
	items, err := s.Store.ListTrips(r.Context(), r.URL.Query().Get("jobId"), limit)
	if err != nil {
		writeProblem(w, r, http.StatusInternalServerError, "List trips failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// WebhookDeliveriesHandler handles GET /v1/admin/webhook-deliveries
func (s *Server) WebhookDeliveriesHandler(w http.ResponseWriter, r *http.Request) {
	if s.Deliveries == nil {
		writeJSON(w, http.StatusOK, map[string]any{"items": []any{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": s.Deliveries.List()})
}
