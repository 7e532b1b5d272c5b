package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type staticCreds string

func (s staticCreds) Credential() string { return string(s) }

// streamServer serves one SSE connection and lets the test push frames.
type streamServer struct {
	*httptest.Server
	frames chan string

	mu       sync.Mutex
	lastAuth string
}

func newStreamServer(t *testing.T) *streamServer {
	t.Helper()
	s := &streamServer{frames: make(chan string, 16)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/events" {
			http.NotFound(w, r)
			return
		}
		s.mu.Lock()
		s.lastAuth = r.Header.Get("Authorization")
		s.mu.Unlock()

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fl := w.(http.Flusher)
		fl.Flush()
		for {
			select {
			case frame := <-s.frames:
				if _, err := w.Write([]byte(frame)); err != nil {
					return
				}
				fl.Flush()
			case <-r.Context().Done():
				return
			}
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *streamServer) auth() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth
}

func TestChannel_DispatchesByEventName(t *testing.T) {
	srv := newStreamServer(t)
	ch := NewChannel(srv.Client(), srv.URL, staticCreds("tok-1"), zap.NewNop(), nil)
	defer ch.Close()

	orders := make(chan string, 1)
	stats := make(chan string, 1)
	ch.Subscribe(EventOrderUpdate, func(data []byte) { orders <- string(data) })
	ch.Subscribe(EventStatsUpdate, func(data []byte) { stats <- string(data) })

	ch.Connect(context.Background())
	srv.frames <- "event: order_update\ndata: {\"id\":\"ord-9\"}\n\n"
	srv.frames <- "event: stats_update\ndata: {\"pendingOrders\":3}\n\n"

	select {
	case got := <-orders:
		if got != `{"id":"ord-9"}` {
			t.Fatalf("order payload = %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("order_update never dispatched")
	}
	select {
	case got := <-stats:
		if got != `{"pendingOrders":3}` {
			t.Fatalf("stats payload = %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stats_update never dispatched")
	}
	if srv.auth() != "Bearer tok-1" {
		t.Fatalf("auth header = %q, want the connect-time credential", srv.auth())
	}
}

func TestChannel_MultipleSubscribersAndDisposer(t *testing.T) {
	srv := newStreamServer(t)
	ch := NewChannel(srv.Client(), srv.URL, staticCreds("tok-1"), zap.NewNop(), nil)
	defer ch.Close()

	var mu sync.Mutex
	var a, b int
	got := make(chan struct{}, 4)
	disposeA := ch.Subscribe(EventInventoryUpdate, func([]byte) {
		mu.Lock()
		a++
		mu.Unlock()
		got <- struct{}{}
	})
	ch.Subscribe(EventInventoryUpdate, func([]byte) {
		mu.Lock()
		b++
		mu.Unlock()
		got <- struct{}{}
	})

	ch.Connect(context.Background())
	srv.frames <- "event: inventory_update\ndata: {}\n\n"
	for i := 0; i < 2; i++ {
		select {
		case <-got:
		case <-time.After(2 * time.Second):
			t.Fatal("first event not seen by both subscribers")
		}
	}

	disposeA()
	disposeA()
	srv.frames <- "event: inventory_update\ndata: {}\n\n"
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("second event not seen by remaining subscriber")
	}

	mu.Lock()
	defer mu.Unlock()
	if a != 1 {
		t.Fatalf("disposed subscriber saw %d events, want 1", a)
	}
	if b != 2 {
		t.Fatalf("remaining subscriber saw %d events, want 2", b)
	}
}

func TestChannel_CloseStopsReader(t *testing.T) {
	srv := newStreamServer(t)
	ch := NewChannel(srv.Client(), srv.URL, staticCreds("tok-1"), zap.NewNop(), nil)

	seen := make(chan struct{}, 1)
	ch.Subscribe(EventOrderUpdate, func([]byte) { seen <- struct{}{} })
	ch.Connect(context.Background())
	srv.frames <- "event: order_update\ndata: {}\n\n"
	select {
	case <-seen:
	case <-time.After(2 * time.Second):
		t.Fatal("stream never delivered before close")
	}

	ch.Close()
	ch.Close()

	select {
	case srv.frames <- "event: order_update\ndata: {}\n\n":
	default:
	}
	select {
	case <-seen:
		t.Fatal("closed channel must not dispatch")
	case <-time.After(200 * time.Millisecond):
	}
}
