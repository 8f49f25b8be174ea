package contentstore

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenDeliversMutationEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/data/listen/production")
		assert.Equal(t, "true", r.URL.Query().Get("includeResult"))
		assert.Equal(t, `"r-1"`, r.URL.Query().Get("$restaurantId"))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		// A welcome event must be skipped, a mutation delivered.
		fmt.Fprint(w, "event: welcome\ndata: {\"listenerName\": \"x\"}\n\n")
		fmt.Fprint(w, "event: mutation\ndata: {\"transition\": \"appear\", \"result\": {\"_id\": \"order-1\", \"orderStatus\": \"pending\"}}\n\n")
		flusher.Flush()

		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := testClient(server.URL).Listen(ctx, `*[_type == "foodOrder"]`, map[string]any{"restaurantId": "r-1"})
	require.NoError(t, err)

	select {
	case evt := <-events:
		assert.Equal(t, "appear", evt.Transition)
		assert.Contains(t, string(evt.Result), "order-1")
	case <-time.After(2 * time.Second):
		t.Fatal("no change event delivered")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-events
		return !open
	}, 2*time.Second, 10*time.Millisecond)
}

func TestListenReconnectsAfterDrop(t *testing.T) {
	savedDelay := reconnectDelay
	reconnectDelay = 10 * time.Millisecond
	defer func() { reconnectDelay = savedDelay }()

	var connections atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := connections.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		// First connection dies immediately; the second delivers.
		if n == 1 {
			return
		}
		fmt.Fprint(w, "event: mutation\ndata: {\"transition\": \"appear\", \"result\": {\"_id\": \"order-2\"}}\n\n")
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := testClient(server.URL).Listen(ctx, `*[_type == "foodOrder"]`, nil)
	require.NoError(t, err)

	select {
	case evt := <-events:
		assert.Contains(t, string(evt.Result), "order-2")
		assert.GreaterOrEqual(t, connections.Load(), int32(2))
	case <-time.After(2 * time.Second):
		t.Fatal("stream never recovered")
	}
}
