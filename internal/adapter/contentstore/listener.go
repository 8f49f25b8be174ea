package contentstore

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// reconnectDelay is a variable so tests can shorten it.
var reconnectDelay = 5 * time.Second

// ChangeEvent is one mutation event from the listen stream. Result is only
// present on appear/update; disappear events carry the document id alone.
type ChangeEvent struct {
	Transition string          `json:"transition"`
	DocumentID string          `json:"documentId"`
	Result     json.RawMessage `json:"result"`
}

// Listen opens the store's change stream for the given query and delivers
// events on the returned channel. The stream reconnects with a fixed delay
// until ctx is cancelled; the channel is closed on cancellation. A dropped
// connection is logged, never surfaced to consumers.
func (c *Client) Listen(ctx context.Context, groq string, params map[string]any) (<-chan ChangeEvent, error) {
	listenURL, err := c.listenURL(groq, params)
	if err != nil {
		return nil, err
	}

	events := make(chan ChangeEvent)
	go func() {
		defer close(events)
		for {
			err := c.streamOnce(ctx, listenURL, events)
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("listen_disconnected", "Change stream disconnected, reconnecting", "", map[string]interface{}{
				"delay_seconds": int(reconnectDelay.Seconds()),
			}, err)

			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
		}
	}()

	return events, nil
}

func (c *Client) listenURL(groq string, params map[string]any) (string, error) {
	values := url.Values{}
	values.Set("query", groq)
	values.Set("includeResult", "true")
	for name, value := range params {
		encoded, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("encode listen param %s: %w", name, err)
		}
		values.Set("$"+name, string(encoded))
	}
	return fmt.Sprintf("%s/data/listen/%s?%s", c.baseURL, c.dataset, values.Encode()), nil
}

func (c *Client) streamOnce(ctx context.Context, listenURL string, events chan<- ChangeEvent) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listenURL, nil)
	if err != nil {
		return fmt.Errorf("create listen request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	// Streaming request: no client timeout, lifetime is bound to ctx.
	streamClient := &http.Client{Timeout: 0}
	resp, err := streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("listen request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("listen failed: unexpected status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventName string
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if eventName == "mutation" && data.Len() > 0 {
				var evt ChangeEvent
				if err := json.Unmarshal([]byte(data.String()), &evt); err != nil {
					c.logger.Error("listen_parse_failed", "Failed to parse change event", "", nil, err)
				} else {
					select {
					case events <- evt:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
			eventName = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("listen stream: %w", err)
	}
	return fmt.Errorf("listen stream closed by server")
}
