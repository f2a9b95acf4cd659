package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ridepool/internal/events"
	"ridepool/internal/geocode"
	"ridepool/internal/model"
)

var paris = geocode.NewHashed(geocode.Point{Lat: 48.85, Lng: 2.35}, 0.1)

// gatedGeocoder blocks every lookup until release is closed.
type gatedGeocoder struct {
	release chan struct{}
}

func newGated() *gatedGeocoder { return &gatedGeocoder{release: make(chan struct{})} }

func (g *gatedGeocoder) Locate(ctx context.Context, key string) (geocode.Point, error) {
	select {
	case <-g.release:
	case <-ctx.Done():
		return geocode.Point{}, ctx.Err()
	}
	return paris.Locate(ctx, key)
}

type panicGeocoder struct{}

func (panicGeocoder) Locate(context.Context, string) (geocode.Point, error) {
	panic("geocoder exploded")
}

type failingGeocoder struct{}

func (failingGeocoder) Locate(context.Context, string) (geocode.Point, error) {
	return geocode.Point{}, errors.New("lookup unavailable")
}

func riders(n int) []model.Rider {
	out := make([]model.Rider, n)
	for i := range out {
		out[i] = model.Rider{ID: fmt.Sprint(i + 1), Name: fmt.Sprintf("rider %d", i+1)}
	}
	return out
}

func testService(t *testing.T, o Options) *Service {
	t.Helper()
	if o.Geocoder == nil {
		o.Geocoder = paris
	}
	if o.Workers == 0 {
		o.Workers = 2
	}
	if o.ShutdownGrace == 0 {
		o.ShutdownGrace = 2 * time.Second
	}
	s := NewService(o)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func waitTerminal(t *testing.T, s *Service, id string) Status {
	t.Helper()
	var st Status
	require.Eventually(t, func() bool {
		st = s.Status(id)
		return st.Status.Terminal()
	}, 10*time.Second, 5*time.Millisecond)
	return st
}

// recordingBroker keeps every published event type per topic, in order.
type recordingBroker struct {
	mu    sync.Mutex
	order []string
	seen  map[string][]string
}

func (b *recordingBroker) Subscribe(string) chan events.Event { return make(chan events.Event) }

func (b *recordingBroker) Unsubscribe(string, chan events.Event) {}

func (b *recordingBroker) Publish(topic string, evt events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seen == nil {
		b.seen = map[string][]string{}
	}
	if _, ok := b.seen[topic]; !ok {
		b.order = append(b.order, topic)
	}
	b.seen[topic] = append(b.seen[topic], evt.Type)
}

func (b *recordingBroker) topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.order...)
}

func (b *recordingBroker) types(topic string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.seen[topic]...)
}
