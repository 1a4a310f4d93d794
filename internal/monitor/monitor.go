// Package monitor polls the event store for newly appended scale events and
// dispatches them to registered observers.
package monitor

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/scaleworks/libralog/internal/model"
	"github.com/scaleworks/libralog/internal/store"
)

// DefaultPollInterval bounds detection latency when no interval is configured.
const DefaultPollInterval = time.Second

// Observer receives each batch of newly appended events, in ascending
// sequence order. Observers run synchronously, in registration order, once
// per batch. A panicking observer is logged and does not affect the cursor
// or the remaining observers.
type Observer func(ctx context.Context, batch []*model.Event)

// Monitor owns a high-water-mark cursor over the append-only event log and a
// timed poll loop. The cursor lives only in process memory: a restart resumes
// from the log's current maximum, so events appended while the process was
// down are not replayed.
type Monitor struct {
	store    store.Store
	interval time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	observers []Observer
	lastSeen  int64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Monitor polling the given store. A non-positive interval
// falls back to DefaultPollInterval.
func New(s store.Store, interval time.Duration, logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Monitor{
		store:    s,
		interval: interval,
		logger:   logger,
	}
}

// Register appends an observer. Registration is allowed before or after
// Start; dispatch snapshots the list, so late registrations take effect on
// the next cycle.
func (m *Monitor) Register(fn Observer) {
	m.mu.Lock()
	m.observers = append(m.observers, fn)
	m.mu.Unlock()
}

// Initialize sets the cursor to the store's current maximum sequence so that
// only events appended after this point are delivered. A store failure is not
// fatal: the cursor starts at 0 and the backlog is delivered on the first
// successful poll.
func (m *Monitor) Initialize(ctx context.Context) {
	seq, err := m.store.MaxSequence(ctx)
	if err != nil {
		m.logger.Error("monitor init: store unavailable, starting from 0", "err", err)
		seq = 0
	}
	m.mu.Lock()
	m.lastSeen = seq
	m.mu.Unlock()
	m.logger.Info("monitor initialized", "last_seen", seq)
}

// LastSeen returns the current cursor position.
func (m *Monitor) LastSeen() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSeen
}

// PollOnce runs a single poll cycle: fetch events past the cursor, advance
// the cursor to the batch maximum, and dispatch the batch to every observer.
// A store failure leaves the cursor unchanged and dispatches nothing; the
// next cycle retries.
func (m *Monitor) PollOnce(ctx context.Context) {
	m.mu.Lock()
	cursor := m.lastSeen
	m.mu.Unlock()

	batch, err := m.store.EventsAfter(ctx, cursor)
	if err != nil {
		m.logger.Error("poll failed, will retry", "last_seen", cursor, "err", err)
		return
	}
	if len(batch) == 0 {
		return
	}

	// Advance before dispatch: observer failures must not cause redelivery.
	m.mu.Lock()
	m.lastSeen = batch[len(batch)-1].Sequence
	observers := slices.Clone(m.observers)
	m.mu.Unlock()

	m.logger.Info("new events", "count", len(batch), "last_seen", batch[len(batch)-1].Sequence)

	for i, fn := range observers {
		m.invoke(ctx, i, fn, batch)
	}
}

// invoke runs one observer, converting a panic into a log line so one
// observer cannot starve the rest of the batch.
func (m *Monitor) invoke(ctx context.Context, i int, fn Observer, batch []*model.Event) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("observer panicked", "observer", i, "panic", r)
		}
	}()
	fn(ctx, batch)
}

// Start initializes the cursor and launches the poll loop in a goroutine.
func (m *Monitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(ctx)
	}()
}

// Stop cancels the poll loop and waits for the in-flight cycle (if any) to
// finish. Stopping takes effect between cycles, never mid-cycle.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

func (m *Monitor) run(ctx context.Context) {
	m.Initialize(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.PollOnce(ctx)
		}
	}
}
