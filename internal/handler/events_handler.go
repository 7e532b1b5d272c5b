package handler

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/freshpress/portal-bff-go/internal/realtime"
)

// keepaliveInterval spaces the SSE comments that hold idle proxies
// open.
const keepaliveInterval = 25 * time.Second

type pushFrame struct {
	event string
	data  []byte
}

// eventsHandler relays the session's push channel to the browser as a
// text/event-stream response. The subscription is torn down when the
// client disconnects.
func eventsHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}
		rt := runtimeFromContext(r.Context())

		frames := make(chan pushFrame, 32)
		relay := func(event string) func([]byte) {
			return func(data []byte) {
				select {
				case frames <- pushFrame{event: event, data: data}:
				default:
					// A stalled browser drops frames rather than the
					// whole connection.
				}
			}
		}
		disposers := []func(){
			rt.channel.Subscribe(realtime.EventOrderUpdate, relay(realtime.EventOrderUpdate)),
			rt.channel.Subscribe(realtime.EventStatsUpdate, relay(realtime.EventStatsUpdate)),
			rt.channel.Subscribe(realtime.EventInventoryUpdate, relay(realtime.EventInventoryUpdate)),
		}
		defer func() {
			for _, dispose := range disposers {
				dispose()
			}
		}()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		keepalive := time.NewTicker(keepaliveInterval)
		defer keepalive.Stop()

		for {
			select {
			case <-r.Context().Done():
				logger.Debug("event stream client disconnected")
				return
			case <-keepalive.C:
				if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
					return
				}
				flusher.Flush()
			case frame := <-frames:
				if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", frame.event, frame.data); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
