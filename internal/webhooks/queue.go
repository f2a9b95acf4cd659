package webhooks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending   = "pending"
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
)

type Delivery struct {
	ID            string     `json:"id"`
	EventType     string     `json:"eventType"`
	URL           string     `json:"url"`
	Secret        string     `json:"-"`
	Payload       []byte     `json:"-"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	NextAttemptAt time.Time  `json:"nextAttemptAt"`
	LastError     string     `json:"lastError,omitempty"`
	ResponseCode  int        `json:"responseCode,omitempty"`
	LatencyMs     int        `json:"latencyMs,omitempty"`
	DeliveredAt   *time.Time `json:"deliveredAt,omitempty"`
	dedupKey      string
}

// Queue holds pending deliveries for the Worker.
type Queue interface {
	Enqueue(ctx context.Context, eventType, url, secret string, payload []byte) (string, error)
	FetchDue(ctx context.Context, limit int) ([]Delivery, error)
	Mark(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode, latencyMs int) error
	Fail(ctx context.Context, id string, lastError string, responseCode, latencyMs int) error
}

// MemoryQueue is an in-process Queue. A payload whose dedup key is already
// queued for the same URL is not enqueued twice.
type MemoryQueue struct {
	mu    sync.Mutex
	items map[string]*Delivery
	now   func() time.Time
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{items: map[string]*Delivery{}, now: time.Now}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, eventType, url, secret string, payload []byte) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	key := computeDedupKey(payload)
	for _, d := range q.items {
		if d.dedupKey == key && d.URL == url {
			return d.ID, nil
		}
	}
	id := uuid.New().String()
	q.items[id] = &Delivery{
		ID:            id,
		EventType:     eventType,
		URL:           url,
		Secret:        secret,
		Payload:       append([]byte(nil), payload...),
		Status:        StatusPending,
		NextAttemptAt: q.now(),
		dedupKey:      key,
	}
	return id, nil
}

func (q *MemoryQueue) FetchDue(ctx context.Context, limit int) ([]Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()
	out := []Delivery{}
	for _, d := range q.items {
		if d.Status == StatusPending && !d.NextAttemptAt.After(now) {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextAttemptAt.Before(out[j].NextAttemptAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (q *MemoryQueue) Mark(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode, latencyMs int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	d, ok := q.items[id]
	if !ok {
		return nil
	}
	d.Attempts++
	d.LastError = lastError
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	if success {
		now := q.now()
		d.Status = StatusDelivered
		d.DeliveredAt = &now
		return nil
	}
	if nextAttemptAt != nil {
		d.NextAttemptAt = *nextAttemptAt
	}
	return nil
}

func (q *MemoryQueue) Fail(ctx context.Context, id string, lastError string, responseCode, latencyMs int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if d, ok := q.items[id]; ok {
		d.Attempts++
		d.Status = StatusFailed
		d.LastError = lastError
		d.ResponseCode = responseCode
		d.LatencyMs = latencyMs
	}
	return nil
}

// List returns a snapshot of every delivery ordered by creation.
func (q *MemoryQueue) List() []Delivery {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Delivery, 0, len(q.items))
	for _, d := range q.items {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// computeDedupKey prefers the payload's "id" field and falls back to a
// content hash.
func computeDedupKey(payload []byte) string {
	var m map[string]any
	if json.Unmarshal(payload, &m) == nil {
		if v, ok := m["id"].(string); ok && v != "" {
			return v
		}
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:8])
}
