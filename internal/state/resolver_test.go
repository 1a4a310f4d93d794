package state

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/scaleworks/libralog/internal/model"
	"github.com/scaleworks/libralog/internal/store"
)

// fakeStore serves per-device events. Devices listed in failing return
// ErrUnavailable.
type fakeStore struct {
	byDevice map[string][]*model.Event
	failing  map[string]bool
}

func (f *fakeStore) MaxSequence(_ context.Context) (int64, error) { return 0, nil }

func (f *fakeStore) EventsAfter(_ context.Context, _ int64) ([]*model.Event, error) {
	return nil, nil
}

func (f *fakeStore) EventsForDevice(_ context.Context, deviceID string, limit int) ([]*model.Event, error) {
	if f.failing[deviceID] {
		return nil, fmt.Errorf("events for device: %w", store.ErrUnavailable)
	}
	events := append([]*model.Event(nil), f.byDevice[deviceID]...)
	sort.Slice(events, func(i, j int) bool { return events[i].Sequence > events[j].Sequence })
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (f *fakeStore) RecentEvents(_ context.Context, _ int) ([]*model.Event, error) {
	return nil, nil
}

func (f *fakeStore) InsertEvent(_ context.Context, _ *model.Event) error { return nil }

func (f *fakeStore) Close() error { return nil }

func newResolver(fs *fakeStore) *Resolver {
	return New(fs, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func ev(seq int64, device string, action model.Action, amount float64) *model.Event {
	return &model.Event{Sequence: seq, DeviceID: device, Action: action, Amount: amount}
}

func TestLatest_PriorityBeatsHigherSequence(t *testing.T) {
	fs := &fakeStore{byDevice: map[string][]*model.Event{
		"A": {
			ev(5, "A", model.ActionHeartbeat, 10),
			ev(3, "A", model.ActionServed, 7),
		},
	}}

	got, err := newResolver(fs).Latest(context.Background(), "A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Sequence != 3 {
		t.Fatalf("expected the Served event at sequence 3, got %+v", got)
	}
}

func TestLatest_HighestSequenceWithinClass(t *testing.T) {
	fs := &fakeStore{byDevice: map[string][]*model.Event{
		"B": {
			ev(1, "B", model.ActionHeartbeat, 1),
			ev(2, "B", model.ActionHeartbeat, 2),
			ev(3, "B", model.ActionHeartbeat, 3),
		},
		"C": {
			ev(4, "C", model.ActionServed, 10),
			ev(9, "C", model.ActionRefilled, 20),
			ev(12, "C", model.ActionHeartbeat, 5),
		},
	}}
	r := newResolver(fs)

	got, err := r.Latest(context.Background(), "B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Sequence != 3 {
		t.Fatalf("expected sequence 3 for all-heartbeat device, got %+v", got)
	}

	got, err = r.Latest(context.Background(), "C")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Sequence != 9 {
		t.Fatalf("expected the newer Refilled event at sequence 9, got %+v", got)
	}
}

func TestLatest_NoEvents(t *testing.T) {
	fs := &fakeStore{byDevice: map[string][]*model.Event{}}

	got, err := newResolver(fs).Latest(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("no events must not be an error, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil event, got %+v", got)
	}
}

func TestLatest_StoreFailurePropagates(t *testing.T) {
	fs := &fakeStore{failing: map[string]bool{"A": true}}

	_, err := newResolver(fs).Latest(context.Background(), "A")
	if err == nil {
		t.Fatal("expected error from failing store")
	}
}

func TestLatestAll_PartialFailure(t *testing.T) {
	fs := &fakeStore{
		byDevice: map[string][]*model.Event{
			"A": {ev(1, "A", model.ActionServed, 5)},
			"B": {ev(2, "B", model.ActionHeartbeat, 6)},
		},
		failing: map[string]bool{"C": true},
	}

	result := newResolver(fs).LatestAll(context.Background(), []string{"A", "B", "C", "D"})

	if len(result) != 4 {
		t.Fatalf("expected an entry per key, got %d", len(result))
	}
	if result["A"] == nil || result["A"].Sequence != 1 {
		t.Fatalf("A: got %+v", result["A"])
	}
	if result["B"] == nil || result["B"].Sequence != 2 {
		t.Fatalf("B: got %+v", result["B"])
	}
	if result["C"] != nil {
		t.Fatalf("failing key C should resolve to nil, got %+v", result["C"])
	}
	if result["D"] != nil {
		t.Fatalf("empty key D should resolve to nil, got %+v", result["D"])
	}
}
