// Package realtime maintains the server-push channel: a single
// text/event-stream connection to the backend, fanned out to local
// subscribers by event name.
package realtime

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/freshpress/portal-bff-go/internal/infra/observability"
	"github.com/freshpress/portal-bff-go/internal/port"
)

// Event names pushed by the backend.
const (
	EventOrderUpdate     = "order_update"
	EventStatsUpdate     = "stats_update"
	EventInventoryUpdate = "inventory_update"
)

// Handler receives the raw JSON payload of one pushed event.
type Handler func(data []byte)

// Channel is one session's push connection. Subscriptions can be added
// before or after the connection is up; events arriving with no
// subscriber are dropped. All methods are safe for concurrent use.
type Channel struct {
	httpClient *http.Client
	baseURL    string
	creds      port.CredentialSource
	logger     *zap.Logger
	metrics    *observability.Metrics

	mu      sync.Mutex
	subs    map[string]map[int]Handler
	nextSub int
	cancel  context.CancelFunc
	done    chan struct{}
	closed  bool
}

func NewChannel(httpClient *http.Client, baseURL string, creds port.CredentialSource, logger *zap.Logger, metrics *observability.Metrics) *Channel {
	return &Channel{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		creds:      creds,
		logger:     logger,
		metrics:    metrics,
		subs:       make(map[string]map[int]Handler),
	}
}

// Connect starts the stream reader. It returns immediately; the reader
// reconnects with backoff until ctx is cancelled or Close is called.
func (c *Channel) Connect(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.cancel != nil {
		return
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go c.run(ctx)
}

func (c *Channel) run(ctx context.Context) {
	defer close(c.done)

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		err := c.stream(ctx)
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("event stream dropped, reconnecting",
			zap.Error(err),
			zap.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

// stream opens one connection and pumps events until it breaks. The
// credential is read here, at connect time, so a re-login between
// reconnects is picked up.
func (c *Channel) stream(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if cred := c.creds.Credential(); cred != "" {
		req.Header.Set("Authorization", "Bearer "+cred)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("event stream returned status %d", resp.StatusCode)
	}

	c.logger.Info("event stream connected")

	var event string
	var data strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() > 0 {
				c.dispatch(event, []byte(data.String()))
			}
			event = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		case strings.HasPrefix(line, ":"):
			// comment/keepalive
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return fmt.Errorf("event stream closed by server")
}

func (c *Channel) dispatch(event string, data []byte) {
	if event == "" {
		event = "message"
	}
	if c.metrics != nil {
		c.metrics.IncrRealtimeEvent(event)
	}

	c.mu.Lock()
	handlers := make([]Handler, 0, len(c.subs[event]))
	for _, h := range c.subs[event] {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(data)
	}
}

// Subscribe registers handler for event and returns its disposer.
// Multiple handlers per event are supported; each disposer removes
// only its own handler and is safe to call more than once.
func (c *Channel) Subscribe(event string, handler Handler) func() {
	c.mu.Lock()
	if c.subs[event] == nil {
		c.subs[event] = make(map[int]Handler)
	}
	id := c.nextSub
	c.nextSub++
	c.subs[event][id] = handler
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs[event], id)
			c.mu.Unlock()
		})
	}
}

// Close tears the connection down and drops all subscriptions. The
// channel cannot be reconnected afterwards.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cancel := c.cancel
	done := c.done
	c.subs = make(map[string]map[int]Handler)
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}
