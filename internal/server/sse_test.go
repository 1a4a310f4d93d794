package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSSEHub_BroadcastAndReceive(t *testing.T) {
	hub := newSSEHub()

	client := hub.subscribe(nil) // all topics
	defer hub.unsubscribe(client)

	hub.broadcast("libra.events.716710-1", []byte(`{"sequence":1}`))

	select {
	case evt := <-client.ch:
		if evt.Topic != "libra.events.716710-1" {
			t.Fatalf("expected topic=%q, got %q", "libra.events.716710-1", evt.Topic)
		}
		if string(evt.Data) != `{"sequence":1}` {
			t.Fatalf("unexpected data %q", string(evt.Data))
		}
		if evt.ID != 1 {
			t.Fatalf("expected id=1, got %d", evt.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSSEHub_TopicFiltering(t *testing.T) {
	hub := newSSEHub()

	// Client only wants device 716710-1.
	client := hub.subscribe([]string{"libra.events.716710-1"})
	defer hub.unsubscribe(client)

	hub.broadcast("libra.events.716710-2", []byte(`{}`))
	hub.broadcast("libra.events.716710-1", []byte(`{}`))

	select {
	case evt := <-client.ch:
		if evt.Topic != "libra.events.716710-1" {
			t.Fatalf("expected topic=%q, got %q", "libra.events.716710-1", evt.Topic)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	// The 716710-2 event should have been filtered out.
	select {
	case evt := <-client.ch:
		t.Fatalf("unexpected event: topic=%q", evt.Topic)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSSEHub_Unsubscribe(t *testing.T) {
	hub := newSSEHub()

	client := hub.subscribe(nil)
	hub.unsubscribe(client)

	hub.broadcast("libra.events.716710-1", []byte(`{}`))

	select {
	case <-client.ch:
		t.Fatal("should not receive events after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSSEHub_EventsSince(t *testing.T) {
	hub := newSSEHub()

	for range 5 {
		hub.broadcast("libra.events.716710-1", []byte(`{}`))
	}

	// Events after ID 2 are IDs 3, 4, 5.
	evts := hub.eventsSince(2)
	if len(evts) != 3 {
		t.Fatalf("expected 3 events, got %d", len(evts))
	}
	if evts[0].ID != 3 || evts[1].ID != 4 || evts[2].ID != 5 {
		t.Fatalf("expected IDs [3,4,5], got [%d,%d,%d]", evts[0].ID, evts[1].ID, evts[2].ID)
	}
}

func TestSSEHub_EventsSince_Empty(t *testing.T) {
	hub := newSSEHub()
	if evts := hub.eventsSince(0); len(evts) != 0 {
		t.Fatalf("expected 0 events, got %d", len(evts))
	}
}

func TestSSEHub_RingBufferWrap(t *testing.T) {
	hub := newSSEHub()

	// Overfill the ring buffer to force a wrap.
	for range sseRingBufferSize + 100 {
		hub.broadcast("libra.events.716710-1", []byte(`{}`))
	}

	evts := hub.eventsSince(0)
	if len(evts) != sseRingBufferSize {
		t.Fatalf("expected %d events, got %d", sseRingBufferSize, len(evts))
	}
	// 100 events were evicted, so the oldest surviving ID is 101.
	if evts[0].ID != 101 {
		t.Fatalf("expected oldest event ID=101, got %d", evts[0].ID)
	}
}

func TestMatchTopicPattern(t *testing.T) {
	for _, tc := range []struct {
		pattern string
		topic   string
		want    bool
	}{
		{"libra.events.716710-1", "libra.events.716710-1", true},
		{"libra.events.716710-1", "libra.events.716710-2", false},
		{"libra.events.*", "libra.events.716710-1", true},
		{"libra.events.*", "libra.events.716710-2", true},
		{"libra.events.*", "libra.health.716710-1", false},
		{"libra.>", "libra.events.716710-1", true},
		{"libra.>", "other.topic", false},
		{"*.*.*", "libra.events.716710-1", true},
		{"*.*.*", "libra.events", false},
	} {
		t.Run(tc.pattern+"_"+tc.topic, func(t *testing.T) {
			got := matchTopicPattern(tc.pattern, tc.topic)
			if got != tc.want {
				t.Fatalf("matchTopicPattern(%q, %q) = %v, want %v", tc.pattern, tc.topic, got, tc.want)
			}
		})
	}
}

func TestHandleEventStream_SSE(t *testing.T) {
	srv, _, handler := newTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest("GET", "/v1/events/stream", nil)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, req)
	}()

	// Give the handler time to register the subscription.
	time.Sleep(50 * time.Millisecond)

	srv.sseHub.broadcast("libra.events.716710-1", []byte(`{"sequence":7}`))

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected Content-Type=text/event-stream, got %q", ct)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "event:libra.events.716710-1") {
		t.Fatalf("expected event line in body, got:\n%s", body)
	}
	if !strings.Contains(body, `data:{"sequence":7}`) {
		t.Fatalf("expected data line in body, got:\n%s", body)
	}
	if !strings.Contains(body, "id:") {
		t.Fatalf("expected id field in body, got:\n%s", body)
	}
}

func TestHandleEventStream_DeviceFilter(t *testing.T) {
	srv, _, handler := newTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest("GET", "/v1/events/stream?device=716710-1", nil)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, req)
	}()

	time.Sleep(50 * time.Millisecond)

	srv.sseHub.broadcast("libra.events.716710-2", []byte(`{"sequence":1}`))
	srv.sseHub.broadcast("libra.events.716710-1", []byte(`{"sequence":2}`))

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if strings.Contains(body, "716710-2") {
		t.Fatalf("expected 716710-2 events to be filtered, got:\n%s", body)
	}
	if !strings.Contains(body, `data:{"sequence":2}`) {
		t.Fatalf("expected the 716710-1 event in body, got:\n%s", body)
	}
}

func TestHandleEventStream_LastEventIDReplay(t *testing.T) {
	srv, _, handler := newTestServer()

	// Broadcast before any client connects so the events only exist in the
	// ring buffer.
	srv.sseHub.broadcast("libra.events.716710-1", []byte(`{"sequence":1}`))
	srv.sseHub.broadcast("libra.events.716710-1", []byte(`{"sequence":2}`))
	srv.sseHub.broadcast("libra.events.716710-1", []byte(`{"sequence":3}`))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest("GET", "/v1/events/stream", nil)
	req.Header.Set("Last-Event-ID", "1")
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, req)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if strings.Contains(body, `data:{"sequence":1}`) {
		t.Fatalf("event 1 should not be replayed, got:\n%s", body)
	}
	if !strings.Contains(body, `data:{"sequence":2}`) || !strings.Contains(body, `data:{"sequence":3}`) {
		t.Fatalf("expected events 2 and 3 replayed, got:\n%s", body)
	}
}
