package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/scaleworks/libralog/internal/events"
	"github.com/scaleworks/libralog/internal/model"
	"github.com/scaleworks/libralog/internal/state"
	"github.com/scaleworks/libralog/internal/store"
)

// LogServer serves read queries over the scale event log and fans newly
// detected events out to SSE clients and the NATS bus. It holds no mutable
// state of its own beyond the SSE hub; the monitor owns the cursor.
type LogServer struct {
	store     store.Store
	resolver  *state.Resolver
	publisher events.Publisher
	devices   []string
	sseHub    *sseHub
	logger    *slog.Logger

	// cursor reports the monitor's high-water mark for /v1/health.
	cursor func() int64
}

// New returns a LogServer backed by the given store and publisher, tracking
// latest-state for the given device keys. cursor may be nil when no monitor
// is attached (health then reports 0).
func New(s store.Store, p events.Publisher, devices []string, cursor func() int64, logger *slog.Logger) *LogServer {
	return &LogServer{
		store:     s,
		resolver:  state.New(s, logger),
		publisher: p,
		devices:   devices,
		sseHub:    newSSEHub(),
		logger:    logger,
		cursor:    cursor,
	}
}

// ObserveBatch is the monitor observer: it publishes each new event on the
// bus and broadcasts it to connected SSE clients. Failures are logged and
// never propagate back into the poll loop.
func (s *LogServer) ObserveBatch(ctx context.Context, batch []*model.Event) {
	for _, e := range batch {
		topic := events.DeviceTopic(e.DeviceID)
		payload := events.NewEvent{Event: e}

		if err := s.publisher.Publish(ctx, topic, payload); err != nil {
			s.logger.Warn("failed to publish event", "topic", topic, "sequence", e.Sequence, "err", err)
		}
		s.broadcastEvent(topic, payload)
	}
}

// broadcastEvent fans one event out to SSE clients.
func (s *LogServer) broadcastEvent(topic string, event any) {
	if s.sseHub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to marshal event for SSE broadcast", "topic", topic, "err", err)
		return
	}
	s.sseHub.broadcast(topic, payload)
}
