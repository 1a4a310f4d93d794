package generator

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/scaleworks/libralog/internal/model"
	"github.com/scaleworks/libralog/internal/store"
)

type fakeStore struct {
	events  []*model.Event
	failing bool
}

func (f *fakeStore) MaxSequence(_ context.Context) (int64, error) {
	return int64(len(f.events)), nil
}

func (f *fakeStore) EventsAfter(_ context.Context, after int64) ([]*model.Event, error) {
	return nil, nil
}

func (f *fakeStore) EventsForDevice(_ context.Context, deviceID string, limit int) ([]*model.Event, error) {
	return nil, nil
}

func (f *fakeStore) RecentEvents(_ context.Context, limit int) ([]*model.Event, error) {
	return nil, nil
}

func (f *fakeStore) InsertEvent(_ context.Context, event *model.Event) error {
	if f.failing {
		return store.ErrUnavailable
	}
	event.Sequence = int64(len(f.events) + 1)
	f.events = append(f.events, event)
	return nil
}

func (f *fakeStore) Close() error { return nil }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGenerator(fs *fakeStore) *Generator {
	return New(fs, nil, 1, discard())
}

func TestEntry_FieldsPopulated(t *testing.T) {
	g := newTestGenerator(&fakeStore{})

	for range 100 {
		e := g.Entry()
		if e.Model == "" || e.DeviceID == "" || e.Location == "" || e.Ingredient == "" {
			t.Fatalf("entry has empty fields: %+v", e)
		}
		if e.Action == "" {
			t.Fatalf("entry has empty action: %+v", e)
		}
		if e.Amount < 0 {
			t.Fatalf("entry has negative amount: %+v", e)
		}
		if e.Timestamp.IsZero() {
			t.Fatal("entry has zero timestamp")
		}
	}
}

func TestEntry_AmountWithinIngredientRange(t *testing.T) {
	g := newTestGenerator(&fakeStore{})

	for range 500 {
		e := g.Entry()
		bounds, ok := weightRanges[e.Ingredient]
		if !ok {
			t.Fatalf("unknown ingredient %q", e.Ingredient)
		}
		// Starting and Offline entries may read zero.
		if e.Amount == 0 && (e.Action == model.ActionStarting || e.Action == model.ActionOffline) {
			continue
		}
		if e.Amount < bounds[0] || e.Amount > bounds[1] {
			t.Fatalf("amount %v outside range %v for %q", e.Amount, bounds, e.Ingredient)
		}
	}
}

func TestEntry_HeartbeatDominates(t *testing.T) {
	g := newTestGenerator(&fakeStore{})

	counts := map[model.Action]int{}
	const n = 2000
	for range n {
		counts[g.Entry().Action]++
	}

	if hb := counts[model.ActionHeartbeat]; hb < n/2 {
		t.Fatalf("expected heartbeats to dominate, got %d of %d", hb, n)
	}
	for _, a := range []model.Action{model.ActionServed, model.ActionRefilled, model.ActionStarting, model.ActionOffline} {
		if counts[a] == 0 {
			t.Fatalf("expected at least one %s in %d entries", a, n)
		}
	}
}

func TestEntry_UsesConfiguredDevices(t *testing.T) {
	fs := &fakeStore{}
	g := New(fs, []string{"716710-7"}, 1, discard())

	for range 20 {
		if e := g.Entry(); e.DeviceID != "716710-7" {
			t.Fatalf("expected device 716710-7, got %q", e.DeviceID)
		}
	}
}

func TestSingle_InsertsOneEvent(t *testing.T) {
	fs := &fakeStore{}
	g := newTestGenerator(fs)

	if err := g.Single(context.Background()); err != nil {
		t.Fatalf("Single() error: %v", err)
	}
	if len(fs.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(fs.events))
	}
}

func TestSingle_StoreUnavailable(t *testing.T) {
	fs := &fakeStore{failing: true}
	g := newTestGenerator(fs)

	err := g.Single(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestBatch_InsertsInTimestampOrder(t *testing.T) {
	fs := &fakeStore{}
	g := newTestGenerator(fs)

	if err := g.Batch(context.Background(), 25, time.Hour); err != nil {
		t.Fatalf("Batch() error: %v", err)
	}
	if len(fs.events) != 25 {
		t.Fatalf("expected 25 events, got %d", len(fs.events))
	}
	for i := 1; i < len(fs.events); i++ {
		if fs.events[i].Timestamp.Before(fs.events[i-1].Timestamp) {
			t.Fatalf("events out of timestamp order at %d", i)
		}
	}
}

func TestContinuous_StopsOnCancel(t *testing.T) {
	fs := &fakeStore{}
	g := newTestGenerator(fs)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- g.Continuous(ctx, 50*time.Millisecond)
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Continuous did not stop after cancel")
	}

	if len(fs.events) == 0 {
		t.Fatal("expected at least one event before cancel")
	}
}

func TestScenario_StartAndEndEvents(t *testing.T) {
	fs := &fakeStore{}
	g := newTestGenerator(fs)

	if err := g.Scenario(context.Background(), "716710-2", 0); err != nil {
		t.Fatalf("Scenario() error: %v", err)
	}

	if len(fs.events) < 2 {
		t.Fatalf("expected at least starting and offline events, got %d", len(fs.events))
	}

	first := fs.events[0]
	if first.Action != model.ActionStarting || first.Amount != 0 {
		t.Fatalf("expected zero-amount starting event, got %+v", first)
	}

	last := fs.events[len(fs.events)-1]
	if last.Action != model.ActionOffline {
		t.Fatalf("expected offline event last, got %+v", last)
	}
	if last.Amount <= 0 {
		t.Fatalf("expected positive target amount, got %v", last.Amount)
	}

	for _, e := range fs.events {
		if e.DeviceID != "716710-2" {
			t.Fatalf("expected all events on 716710-2, got %q", e.DeviceID)
		}
		if e.Ingredient != first.Ingredient || e.Location != first.Location {
			t.Fatal("scenario events should share ingredient and location")
		}
	}
}

func TestRunID_HasPrefix(t *testing.T) {
	g := newTestGenerator(&fakeStore{})
	if !strings.HasPrefix(g.RunID(), "run-") {
		t.Fatalf("expected run- prefix, got %q", g.RunID())
	}
}
