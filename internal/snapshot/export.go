// Package snapshot periodically exports the tail of the event log as JSONL
// to durable destinations (S3-compatible object storage or a local file),
// so downstream analytics can read recent scale activity without touching
// the database.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/scaleworks/libralog/internal/model"
	"github.com/scaleworks/libralog/internal/store"
)

// DefaultWindow is the number of most recent events exported when no
// window is configured.
const DefaultWindow = 10000

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version    string    `json:"version"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	EventCount int       `json:"event_count"`
	Window     int       `json:"window"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string       `json:"type"`
	Data *model.Event `json:"data"`
}

// ExportJSONL writes the window most recent events from the store as JSONL
// to w, oldest first. A window of zero or less uses DefaultWindow.
func ExportJSONL(ctx context.Context, s store.Store, window int, w io.Writer) error {
	if window <= 0 {
		window = DefaultWindow
	}

	events, err := s.RecentEvents(ctx, window)
	if err != nil {
		return fmt.Errorf("load recent events: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:    "1",
		Type:       "header",
		Timestamp:  time.Now().UTC(),
		EventCount: len(events),
		Window:     window,
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	// RecentEvents returns newest first; the export reads oldest first.
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		if err := enc.Encode(record{Type: "event", Data: e}); err != nil {
			return fmt.Errorf("encode event %d: %w", e.Sequence, err)
		}
	}

	return nil
}
