// Package generator produces synthetic scale events for exercising the
// monitor, resolver, and dashboards without real hardware. It writes
// straight to the event store so detection goes through the normal poll
// path.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/scaleworks/libralog/internal/idgen"
	"github.com/scaleworks/libralog/internal/model"
	"github.com/scaleworks/libralog/internal/store"
)

var (
	models = []string{"LibraV0", "LibraV1", "LibraV2"}

	locations = []string{
		"Kitchen Counter", "Prep Station A", "Prep Station B",
		"Storage Room", "Loading Dock", "Quality Lab",
		"Production Line 1", "Production Line 2",
	}

	ingredients = []string{
		"Flour", "Sugar", "Salt", "Butter", "Eggs", "Milk",
		"Vanilla Extract", "Baking Powder", "Cocoa Powder", "Yeast",
		"Olive Oil", "Tomatoes", "Onions", "Garlic", "Cheese",
		"Chicken Breast", "Ground Beef", "Rice", "Pasta", "Herbs",
	}

	// weightRanges bounds the plausible gram range per ingredient.
	weightRanges = map[string][2]float64{
		"Flour":           {100, 5000},
		"Sugar":           {50, 2000},
		"Salt":            {5, 500},
		"Butter":          {100, 1000},
		"Eggs":            {50, 600},
		"Milk":            {200, 2000},
		"Vanilla Extract": {5, 100},
		"Baking Powder":   {5, 200},
		"Cocoa Powder":    {20, 500},
		"Yeast":           {5, 100},
		"Olive Oil":       {50, 1000},
		"Tomatoes":        {100, 3000},
		"Onions":          {100, 2000},
		"Garlic":          {10, 200},
		"Cheese":          {100, 2000},
		"Chicken Breast":  {200, 5000},
		"Ground Beef":     {250, 4000},
		"Rice":            {200, 5000},
		"Pasta":           {100, 3000},
		"Herbs":           {5, 100},
	}
)

// Generator writes synthetic events through a Store.
type Generator struct {
	store   store.Store
	devices []string
	rng     *rand.Rand
	logger  *slog.Logger
	runID   string
}

// New creates a Generator over the given devices. A nil seed source uses
// the current time, so repeated runs differ.
func New(s store.Store, devices []string, seed int64, logger *slog.Logger) *Generator {
	if len(devices) == 0 {
		devices = model.DefaultDevices
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	runID, err := idgen.Generate()
	if err != nil {
		runID = "run-unknown"
	}
	return &Generator{
		store:   s,
		devices: devices,
		rng:     rand.New(rand.NewSource(seed)),
		logger:  logger.With("run_id", runID),
		runID:   runID,
	}
}

// RunID identifies this generator invocation in logs.
func (g *Generator) RunID() string { return g.runID }

// Entry builds one synthetic event without inserting it. Heartbeats dominate
// so streams look like an idle scale with occasional serve and refill
// activity.
func (g *Generator) Entry() *model.Event {
	action := g.pickAction()
	ingredient := ingredients[g.rng.Intn(len(ingredients))]

	return &model.Event{
		Model:      models[g.rng.Intn(len(models))],
		DeviceID:   g.devices[g.rng.Intn(len(g.devices))],
		Timestamp:  time.Now().UTC(),
		Action:     action,
		Amount:     g.amountFor(ingredient, action),
		Location:   locations[g.rng.Intn(len(locations))],
		Ingredient: ingredient,
		Synced:     g.rng.Intn(2) == 1,
	}
}

// pickAction draws an action with heartbeats weighted heavily.
func (g *Generator) pickAction() model.Action {
	switch n := g.rng.Intn(100); {
	case n < 80:
		return model.ActionHeartbeat
	case n < 85:
		return model.ActionServed
	case n < 90:
		return model.ActionRefilled
	case n < 95:
		return model.ActionStarting
	default:
		return model.ActionOffline
	}
}

// amountFor draws a weight in the ingredient's range. Starting and Offline
// events are sometimes zero, matching a scale with nothing on it.
func (g *Generator) amountFor(ingredient string, action model.Action) float64 {
	bounds, ok := weightRanges[ingredient]
	if !ok {
		bounds = [2]float64{10, 1000}
	}
	if (action == model.ActionStarting || action == model.ActionOffline) && g.rng.Float64() < 0.3 {
		return 0
	}
	amount := bounds[0] + g.rng.Float64()*(bounds[1]-bounds[0])
	return round2(amount)
}

// Single inserts one event.
func (g *Generator) Single(ctx context.Context) error {
	e := g.Entry()
	if err := g.store.InsertEvent(ctx, e); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	g.logger.Info("generated event",
		"device_id", e.DeviceID, "action", e.Action, "ingredient", e.Ingredient, "amount", e.Amount)
	return nil
}

// Batch inserts count events with timestamps spread over the given window
// ending now, inserted in timestamp order.
func (g *Generator) Batch(ctx context.Context, count int, spread time.Duration) error {
	start := time.Now().UTC().Add(-spread)

	entries := make([]*model.Event, 0, count)
	for range count {
		e := g.Entry()
		e.Timestamp = start.Add(time.Duration(g.rng.Float64() * float64(spread)))
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	for _, e := range entries {
		if err := g.store.InsertEvent(ctx, e); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	g.logger.Info("generated batch", "count", count, "spread", spread)
	return nil
}

// Continuous inserts events until ctx is cancelled. Roughly one in ten
// cycles emits a short burst, simulating busy periods. Insert failures are
// logged and the loop keeps going.
func (g *Generator) Continuous(ctx context.Context, interval time.Duration) error {
	g.logger.Info("starting continuous generation", "interval", interval)

	for {
		if g.rng.Float64() < 0.1 {
			burst := 2 + g.rng.Intn(4)
			g.logger.Info("generating burst", "size", burst)
			for range burst {
				if err := g.Single(ctx); err != nil {
					g.logger.Warn("burst insert failed", "err", err)
				}
				if sleepCtx(ctx, 200*time.Millisecond) {
					return ctx.Err()
				}
			}
		} else if err := g.Single(ctx); err != nil {
			g.logger.Warn("insert failed", "err", err)
		}

		// Jitter so inserts do not land in lockstep with the poll tick.
		jitter := time.Duration((g.rng.Float64() - 0.5) * float64(time.Second))
		wait := max(interval+jitter, 100*time.Millisecond)
		if sleepCtx(ctx, wait) {
			return ctx.Err()
		}
	}
}

// Scenario simulates one scale weighing a single ingredient: a Starting
// event at zero, heartbeats tracking a noisy ramp toward a target weight,
// and a final Offline event at the target.
func (g *Generator) Scenario(ctx context.Context, deviceID string, duration time.Duration) error {
	if deviceID == "" {
		deviceID = g.devices[g.rng.Intn(len(g.devices))]
	}
	ingredient := ingredients[g.rng.Intn(len(ingredients))]
	location := locations[g.rng.Intn(len(locations))]

	bounds, ok := weightRanges[ingredient]
	if !ok {
		bounds = [2]float64{100, 1000}
	}
	target := bounds[0] + g.rng.Float64()*(bounds[1]-bounds[0])

	g.logger.Info("starting scenario",
		"device_id", deviceID, "ingredient", ingredient, "location", location,
		"target", round2(target), "duration", duration)

	insert := func(action model.Action, amount float64) error {
		e := &model.Event{
			Model:      models[g.rng.Intn(len(models))],
			DeviceID:   deviceID,
			Timestamp:  time.Now().UTC(),
			Action:     action,
			Amount:     round2(amount),
			Location:   location,
			Ingredient: ingredient,
		}
		return g.store.InsertEvent(ctx, e)
	}

	if err := insert(model.ActionStarting, 0); err != nil {
		return fmt.Errorf("insert starting event: %w", err)
	}

	start := time.Now()
	for time.Since(start) < duration {
		progress := float64(time.Since(start)) / float64(duration)
		weight := target * progress
		weight += (g.rng.Float64()*2 - 1) * target * 0.05
		weight = max(weight, 0)

		if err := insert(model.ActionHeartbeat, weight); err != nil {
			g.logger.Warn("heartbeat insert failed", "err", err)
		}

		wait := time.Duration(1+2*g.rng.Float64()) * time.Second
		if sleepCtx(ctx, wait) {
			return ctx.Err()
		}
	}

	if err := insert(model.ActionOffline, target); err != nil {
		return fmt.Errorf("insert offline event: %w", err)
	}

	g.logger.Info("scenario complete", "ingredient", ingredient, "target", round2(target))
	return nil
}

// sleepCtx waits for d or until ctx is done, reporting cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return true
	case <-t.C:
		return false
	}
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
