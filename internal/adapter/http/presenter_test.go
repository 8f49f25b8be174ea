package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/snackway/partner/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// safeRecorder guards the recorder against the handler goroutine writing
// while the test reads the body.
type safeRecorder struct {
	mu  sync.Mutex
	rec *httptest.ResponseRecorder
}

func newSafeRecorder() *safeRecorder {
	return &safeRecorder{rec: httptest.NewRecorder()}
}

func (s *safeRecorder) Header() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Header()
}

func (s *safeRecorder) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Write(b)
}

func (s *safeRecorder) WriteHeader(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.WriteHeader(code)
}

func (s *safeRecorder) Flush() {}

func (s *safeRecorder) body() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Body.String()
}

func TestAlertStreamBroadcasts(t *testing.T) {
	stream := NewAlertStream(nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/alert/stream", nil).WithContext(ctx)
	rec := newSafeRecorder()

	done := make(chan struct{})
	go func() {
		stream.HandleStream(rec, req)
		close(done)
	}()

	// Wait for the subscription before publishing.
	require.Eventually(t, func() bool {
		stream.mu.Lock()
		defer stream.mu.Unlock()
		return len(stream.subscribers) == 1
	}, 2*time.Second, 5*time.Millisecond)

	stream.OnNewOrderAlert(domain.Order{ID: "order-1", Status: domain.StatusPending})
	stream.OnAlertCleared()

	assert.Eventually(t, func() bool {
		body := rec.body()
		return strings.Contains(body, "event: alert") && strings.Contains(body, "event: cleared")
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done

	assert.Contains(t, rec.body(), `"order-1"`)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	// The subscriber is gone; further broadcasts go nowhere.
	stream.OnAlertCleared()
	stream.mu.Lock()
	assert.Empty(t, stream.subscribers)
	stream.mu.Unlock()
}

func TestAlertStreamDropsEventsForSlowClients(t *testing.T) {
	stream := NewAlertStream(nopLogger{})

	// A subscriber that never reads: its channel fills and broadcast must
	// not block.
	sub := make(chan alertEvent, 1)
	stream.mu.Lock()
	stream.subscribers[sub] = struct{}{}
	stream.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			stream.OnAlertCleared()
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}
}
