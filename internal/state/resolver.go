// Package state resolves the current representative reading for each scale.
package state

import (
	"context"
	"log/slog"

	"github.com/scaleworks/libralog/internal/model"
	"github.com/scaleworks/libralog/internal/store"
)

// Resolver answers "what is the current state of this device". A device's
// current state is not simply its newest event: a Served or Refilled event
// outranks any ordinary reading (heartbeats included), no matter how many
// heartbeats arrived after it. Within the same class the highest sequence
// wins. Timestamps are never consulted; they cannot be trusted for ordering.
type Resolver struct {
	store  store.Store
	logger *slog.Logger
}

// New creates a Resolver over the given store.
func New(s store.Store, logger *slog.Logger) *Resolver {
	return &Resolver{store: s, logger: logger}
}

// Latest returns the representative event for one device, or (nil, nil) when
// the device has no events. Store failures propagate to the caller.
func (r *Resolver) Latest(ctx context.Context, deviceID string) (*model.Event, error) {
	events, err := r.store.EventsForDevice(ctx, deviceID, 0)
	if err != nil {
		return nil, err
	}
	return pick(events), nil
}

// LatestAll resolves every device key independently. A key whose query fails
// resolves to nil (logged) without failing the rest of the batch.
func (r *Resolver) LatestAll(ctx context.Context, deviceIDs []string) map[string]*model.Event {
	result := make(map[string]*model.Event, len(deviceIDs))
	for _, id := range deviceIDs {
		event, err := r.Latest(ctx, id)
		if err != nil {
			r.logger.Warn("latest-state query failed", "device_id", id, "err", err)
			result[id] = nil
			continue
		}
		result[id] = event
	}
	return result
}

// pick selects the event sorting first under (priority class, sequence desc)
// from a sequence-descending slice: the first priority-action event if one
// exists, otherwise the newest event overall.
func pick(events []*model.Event) *model.Event {
	if len(events) == 0 {
		return nil
	}
	for _, e := range events {
		if e.Action.Priority() {
			return e
		}
	}
	return events[0]
}
