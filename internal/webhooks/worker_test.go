package webhooks

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordQueue struct {
	*MemoryQueue
	mu    sync.Mutex
	marks []markRec
	fails []failRec
}

type markRec struct {
	ID      string
	Success bool
	Code    int
	LastErr string
}

type failRec struct {
	ID      string
	Code    int
	LastErr string
}

func (r *recordQueue) Mark(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode, latencyMs int) error {
	r.mu.Lock()
	r.marks = append(r.marks, markRec{ID: id, Success: success, Code: responseCode, LastErr: lastError})
	r.mu.Unlock()
	return r.MemoryQueue.Mark(ctx, id, success, nextAttemptAt, lastError, responseCode, latencyMs)
}

func (r *recordQueue) Fail(ctx context.Context, id string, lastError string, responseCode, latencyMs int) error {
	r.mu.Lock()
	r.fails = append(r.fails, failRec{ID: id, Code: responseCode, LastErr: lastError})
	r.mu.Unlock()
	return r.MemoryQueue.Fail(ctx, id, lastError, responseCode, latencyMs)
}

func TestWorkerProcessOnce_SuccessAndSignature(t *testing.T) {
	var gotSig, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(HeaderSignature)
		gotType = r.Header.Get(HeaderEventType)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rq := &recordQueue{MemoryQueue: NewMemoryQueue()}
	w := NewWorker(rq, 3, time.Second, nil)
	w.HTTP = srv.Client()
	id, err := NewPublisher(rq, "secret").Emit(context.Background(), srv.URL, EventJobCompleted, map[string]any{"jobId": "j1"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	w.processOnce()

	assert.Equal(t, EventJobCompleted, gotType)
	assert.True(t, VerifyHMAC("secret", gotBody, gotSig))
	require.Len(t, rq.marks, 1)
	assert.True(t, rq.marks[0].Success)
	assert.Equal(t, StatusDelivered, rq.List()[0].Status)

	// delivered items are not fetched again
	w.processOnce()
	assert.Len(t, rq.marks, 1)
}

func TestWorkerProcessOnce_RetryThenFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rq := &recordQueue{MemoryQueue: NewMemoryQueue()}
	w := NewWorker(rq, 2, time.Second, nil)
	w.HTTP = srv.Client()
	_, err := rq.Enqueue(context.Background(), EventJobCompleted, srv.URL, "", []byte(`{}`))
	require.NoError(t, err)

	w.processOnce()
	require.Len(t, rq.marks, 1)
	assert.False(t, rq.marks[0].Success)
	assert.Equal(t, http.StatusInternalServerError, rq.marks[0].Code)
	assert.Contains(t, rq.marks[0].LastErr, "500")

	// push the retry into the past so it is due again
	rq.now = func() time.Time { return time.Now().Add(time.Hour) }
	w.processOnce()
	require.Len(t, rq.fails, 1)
	assert.Equal(t, StatusFailed, rq.List()[0].Status)
	assert.Equal(t, 2, rq.List()[0].Attempts)
}

func TestWorkerStartStop(t *testing.T) {
	w := NewWorker(NewMemoryQueue(), 0, 10*time.Millisecond, nil)
	assert.Equal(t, 10, w.MaxAttempts)
	w.Start()
	time.Sleep(30 * time.Millisecond)
	done := make(chan struct{})
	go func() { w.Stop(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	assert.NotPanics(t, w.Stop)
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, time.Second, nextBackoff(-1))
	assert.Equal(t, 4*time.Second, nextBackoff(2))
	assert.Equal(t, 1024*time.Second, nextBackoff(50))
}

func TestMemoryQueue_Dedup(t *testing.T) {
	q := NewMemoryQueue()
	a, err := q.Enqueue(context.Background(), "x", "http://a", "", []byte(`{"id":"evt_1"}`))
	require.NoError(t, err)
	b, err := q.Enqueue(context.Background(), "x", "http://a", "", []byte(`{"id":"evt_1","retry":true}`))
	require.NoError(t, err)
	c, err := q.Enqueue(context.Background(), "x", "http://b", "", []byte(`{"id":"evt_1"}`))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, q.List(), 2)
}

func TestComputeDedupKey(t *testing.T) {
	assert.Equal(t, "evt_123", computeDedupKey([]byte(`{"id":"evt_123","type":"x"}`)))
	assert.Len(t, computeDedupKey([]byte(`{"notId":"x"}`)), 16)
}

func TestSignVerify(t *testing.T) {
	body := []byte(`{"a":1}`)
	sig := SignHMAC("k", body)
	assert.True(t, VerifyHMAC("k", body, sig))
	assert.False(t, VerifyHMAC("other", body, sig))
	assert.False(t, VerifyHMAC("k", body, "zz"))
}
