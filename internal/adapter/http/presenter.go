package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/snackway/partner/internal/adapter/logger"
	"github.com/snackway/partner/internal/domain"
)

// AlertStream implements interfaces.Presenter by fanning alert events out to
// connected clients over server-sent events. The UI keeps one stream open
// and shows/dismisses the confirmation modal from it.
type AlertStream struct {
	logger logger.Logger

	mu          sync.Mutex
	subscribers map[chan alertEvent]struct{}
}

type alertEvent struct {
	Kind  string         `json:"kind"` // "alert" or "cleared"
	Order *orderResponse `json:"order,omitempty"`
}

func NewAlertStream(lgr logger.Logger) *AlertStream {
	return &AlertStream{
		logger:      lgr,
		subscribers: make(map[chan alertEvent]struct{}),
	}
}

func (s *AlertStream) OnNewOrderAlert(order domain.Order) {
	resp := toOrderResponse(order)
	s.broadcast(alertEvent{Kind: "alert", Order: &resp})
}

func (s *AlertStream) OnAlertCleared() {
	s.broadcast(alertEvent{Kind: "cleared"})
}

func (s *AlertStream) broadcast(evt alertEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subscribers {
		select {
		case sub <- evt:
		default:
			// Slow client: drop the event rather than block the monitor.
		}
	}
}

// HandleStream serves GET /alert/stream as text/event-stream.
func (s *AlertStream) HandleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := make(chan alertEvent, 8)
	s.mu.Lock()
	s.subscribers[sub] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.subscribers, sub)
		s.mu.Unlock()
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-sub:
			payload, err := json.Marshal(evt)
			if err != nil {
				s.logger.Error("stream_encode_failed", "Failed to encode alert event", "", nil, err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Kind, payload)
			flusher.Flush()
		}
	}
}
