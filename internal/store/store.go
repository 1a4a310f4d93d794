package store

import (
	"context"
	"errors"

	"github.com/scaleworks/libralog/internal/model"
)

// ErrUnavailable wraps transient store failures (connection loss, IO errors).
// Callers use errors.Is to distinguish a broken store from an empty result:
// absence of data is never an error.
var ErrUnavailable = errors.New("store unavailable")

// Store is the read-mostly persistence interface for the scale event log.
// The log is append-only and ordered by Sequence; the monitor and resolver
// never write. InsertEvent exists for the synthetic generator, which plays
// the role of the external writer.
type Store interface {
	// MaxSequence returns the highest sequence in the log, or 0 when empty.
	MaxSequence(ctx context.Context) (int64, error)

	// EventsAfter returns all events with sequence > after, ascending.
	EventsAfter(ctx context.Context, after int64) ([]*model.Event, error)

	// EventsForDevice returns events for one device, descending by sequence.
	// limit <= 0 means no limit.
	EventsForDevice(ctx context.Context, deviceID string, limit int) ([]*model.Event, error)

	// RecentEvents returns the most recent events across all devices,
	// descending by sequence. limit <= 0 means no limit.
	RecentEvents(ctx context.Context, limit int) ([]*model.Event, error)

	// InsertEvent appends an event and fills in its assigned Sequence.
	InsertEvent(ctx context.Context, event *model.Event) error

	// Lifecycle
	Close() error
}
