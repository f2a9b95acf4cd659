package jobs

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"ridepool/internal/conflict"
	"ridepool/internal/model"
	"ridepool/internal/opt"
)

var (
	ErrShutdown        = errors.New("jobs: service is shut down")
	ErrQueueFull       = errors.New("jobs: queue is full")
	ErrInvalidRequest  = errors.New("jobs: invalid request")
	ErrShutdownTimeout = errors.New("jobs: shutdown grace period expired")
)

type State string

const (
	Pending State = "PENDING"
	Running State = "RUNNING"
	Done    State = "DONE"
	Failed  State = "ERROR"
)

func (s State) Terminal() bool { return s == Done || s == Failed }

// Event types published on events.JobTopic for each transition.
const (
	EventPending = "job.pending"
	EventRunning = "job.running"
	EventDone    = "job.done"
	EventFailed  = "job.failed"
)

// Status is the pollable view of a job. Assignment, conflicts and the fields
// after them are only set once the job is DONE.
type Status struct {
	JobID            string              `json:"jobId"`
	Status           State               `json:"status"`
	Message          string              `json:"message"`
	Assignment       opt.Assignment      `json:"assignment,omitempty"`
	Conflicts        []conflict.Conflict `json:"conflicts,omitempty"`
	Valid            *bool               `json:"valid,omitempty"`
	WithinTimeBudget *bool               `json:"withinTimeBudget,omitempty"`
	Unassigned       []string            `json:"unassigned,omitempty"`
	Stats            *Stats              `json:"stats,omitempty"`
	SubmittedAt      *time.Time          `json:"submittedAt,omitempty"`
	StartedAt        *time.Time          `json:"startedAt,omitempty"`
	FinishedAt       *time.Time          `json:"finishedAt,omitempty"`
}

// MarshalJSON always emits conflicts on a DONE status, as an empty list when
// the assignment is clean.
func (s Status) MarshalJSON() ([]byte, error) {
	type plain Status
	if s.Status != Done {
		return json.Marshal(plain(s))
	}
	conflicts := s.Conflicts
	if conflicts == nil {
		conflicts = []conflict.Conflict{}
	}
	return json.Marshal(struct {
		plain
		Conflicts []conflict.Conflict `json:"conflicts"`
	}{plain(s), conflicts})
}

// Stats summarises one pipeline run.
type Stats struct {
	Riders          int     `json:"riders"`
	Vehicles        int     `json:"vehicles"`
	Depots          int     `json:"depots"`
	Iterations      int     `json:"iterations"`
	AcceptedWorse   int     `json:"acceptedWorse"`
	Improvements    int     `json:"improvements"`
	TotalDistanceKm float64 `json:"totalDistanceKm"`
	DurationMs      int64   `json:"durationMs"`
}

// entry is a registry record. Its status is written by the worker running
// the job and read by pollers.
type entry struct {
	id  string
	req model.OptimizeRequest

	mu     sync.RWMutex
	status Status
	done   chan struct{}
}

func newEntry(id string, req model.OptimizeRequest, now time.Time) *entry {
	return &entry{
		id:  id,
		req: req,
		status: Status{
			JobID:       id,
			Status:      Pending,
			Message:     "queued",
			SubmittedAt: &now,
		},
		done: make(chan struct{}),
	}
}

func (e *entry) snapshot() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// start moves a pending job to RUNNING and reports whether it did.
func (e *entry) start(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status.Status != Pending {
		return false
	}
	e.status.Status = Running
	e.status.Message = "optimization in progress"
	e.status.StartedAt = &now
	return true
}

// finish stores a terminal status. Only the first call wins; a terminal job
// never changes again.
func (e *entry) finish(st Status) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status.Status.Terminal() {
		return false
	}
	st.JobID = e.id
	st.SubmittedAt = e.status.SubmittedAt
	if st.StartedAt == nil {
		st.StartedAt = e.status.StartedAt
	}
	e.status = st
	close(e.done)
	return true
}

func (e *entry) completed() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}
