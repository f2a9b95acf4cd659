package webhooks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const EventJobCompleted = "job.completed"

// Publisher turns domain events into signed webhook deliveries.
type Publisher struct {
	Queue  Queue
	Secret string
}

func NewPublisher(q Queue, secret string) *Publisher {
	return &Publisher{Queue: q, Secret: secret}
}

// Emit enqueues one delivery of eventType to url. The payload envelope is
// {id, type, ts, data}.
func (p *Publisher) Emit(ctx context.Context, url, eventType string, data any) (string, error) {
	payload := map[string]any{
		"id":   "evt_" + uuid.New().String(),
		"type": eventType,
		"ts":   time.Now().UTC().Format(time.RFC3339),
		"data": data,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return p.Queue.Enqueue(ctx, eventType, url, p.Secret, body)
}
