package game

import (
	"context"
	"math/rand"
	"testing"

	"short-order/server/internal/session"
	"short-order/server/internal/sim"
)

const worldTestLevels = `
levels:
  - ordersRequired: 2
    orderDisplaySeconds: 10
    interOrderDelaySeconds: 1
    minOrderItems: 1
    maxOrderItems: 1
    activeTrayCount: 3
    basePointsPerOrder: 100
    perfectOrderBonus: 50
    timeBonusPerSecond: 0
    plateCapacity: 4
  - ordersRequired: 1
    orderDisplaySeconds: 10
    interOrderDelaySeconds: 1
    minOrderItems: 1
    maxOrderItems: 1
    activeTrayCount: 3
    basePointsPerOrder: 100
    perfectOrderBonus: 50
    timeBonusPerSecond: 0
    plateCapacity: 4
`

func newTestWorld(t *testing.T) (*World, *session.Ledger) {
	t.Helper()
	levels, err := NewLevelProvider([]byte(worldTestLevels))
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	ledger := session.NewLedger(session.NewMemoryStore(), nil, nil)
	cfg := DefaultWorldConfig()
	cfg.CustomersEnabled = false
	world := NewWorld(cfg, levels, VariantLibraryDefault(), ledger, nil, nil, nil, rand.New(rand.NewSource(5)))
	if err := world.StartRun(context.Background()); err != nil {
		t.Fatalf("start run: %v", err)
	}
	return world, ledger
}

func stepWorld(w *World, seconds float64) {
	const dt = 0.1
	steps := int(seconds/dt) + 1
	for i := 0; i < steps; i++ {
		w.Step(sim.TickContext{Tick: uint64(i + 1), Delta: dt})
	}
}

func serveCommand() sim.Command {
	return sim.Command{ActorID: "p1", Type: sim.CommandServe}
}

func placeCommands(items []FoodType) []sim.Command {
	cmds := make([]sim.Command, 0, len(items))
	for _, item := range items {
		cmds = append(cmds, sim.Command{
			ActorID: "p1",
			Type:    sim.CommandPlaceItem,
			Place:   &sim.PlaceItemCommand{Food: string(item)},
		})
	}
	return cmds
}

func TestStartRunShowsFirstOrder(t *testing.T) {
	world, ledger := newTestWorld(t)

	if !ledger.HasActiveSession() {
		t.Fatalf("no session after start")
	}

	snap := world.Snapshot()
	if snap.CycleState != "displayed" {
		t.Fatalf("cycle state = %s, want displayed", snap.CycleState)
	}
	if snap.Order == nil || len(snap.Order.Items) != 1 {
		t.Fatalf("order = %+v, want one item", snap.Order)
	}

	events := world.DrainEvents()
	var sawLevel, sawOrder bool
	for _, ev := range events {
		switch ev.Type {
		case EventLevelStarted:
			sawLevel = true
		case EventOrderShown:
			sawOrder = true
		}
	}
	if !sawLevel || !sawOrder {
		t.Fatalf("missing startup events: level=%v order=%v (%d events)", sawLevel, sawOrder, len(events))
	}
}

func TestServeCreditsLedgerAndClearsPlate(t *testing.T) {
	world, ledger := newTestWorld(t)
	ordered := world.Snapshot().Order.Items

	world.Apply(placeCommands(ordered))
	world.Apply([]sim.Command{serveCommand()})

	if got := ledger.TotalScore(); got != 150 {
		t.Fatalf("total score = %d, want 150", got)
	}
	snap := world.Snapshot()
	if len(snap.Plate.Items) != 0 {
		t.Fatalf("plate not cleared: %v", snap.Plate.Items)
	}
}

func TestServeWithoutOrderIsAbsorbed(t *testing.T) {
	world, ledger := newTestWorld(t)

	// Serve the first order, then serve again before the next one appears.
	ordered := world.Snapshot().Order.Items
	world.Apply(placeCommands(ordered))
	world.Apply([]sim.Command{serveCommand(), serveCommand()})

	if got := ledger.TotalScore(); got != 150 {
		t.Fatalf("total score = %d, want 150 from a single credited serve", got)
	}
}

func TestLevelProgressionAndRunCompletion(t *testing.T) {
	world, ledger := newTestWorld(t)

	serveCurrent := func() {
		snap := world.Snapshot()
		if snap.Order == nil {
			t.Fatalf("no displayed order to serve")
		}
		world.Apply(placeCommands(snap.Order.Items))
		world.Apply([]sim.Command{serveCommand()})
	}

	// Level 0 needs two orders; the self loop waits one second between them.
	serveCurrent()
	stepWorld(world, 1.5)
	serveCurrent()

	if world.LevelIndex() != 0 {
		t.Fatalf("level advanced before the transition delay")
	}
	stepWorld(world, levelTransitionSeconds+0.5)
	if world.LevelIndex() != 1 {
		t.Fatalf("level = %d, want 1", world.LevelIndex())
	}

	rec := ledger.Snapshot()
	if rec.LevelsCompleted != 1 || rec.CurrentLevel != 1 {
		t.Fatalf("session progress = %+v, want level 1 recorded", rec)
	}

	// Level 1 needs one order; clearing it ends the run.
	serveCurrent()
	stepWorld(world, levelTransitionSeconds+0.5)

	if !world.RunComplete() {
		t.Fatalf("run not complete after the last level")
	}
	if ledger.HasActiveSession() {
		t.Fatalf("session still active after run completion")
	}
}

func TestExpiryCountsTowardQuotaWithoutPoints(t *testing.T) {
	world, ledger := newTestWorld(t)

	stepWorld(world, 11) // Display time is 10 seconds.

	snap := world.Snapshot()
	if snap.OrdersCompleted != 1 {
		t.Fatalf("orders completed = %d, want 1 after expiry", snap.OrdersCompleted)
	}
	if ledger.TotalScore() != 0 {
		t.Fatalf("expiry earned %d points", ledger.TotalScore())
	}
}

func TestToggleTrayShrinksActiveSet(t *testing.T) {
	world, _ := newTestWorld(t)

	// Disable every tray but the first; the fallback must not trigger since
	// one displayable tray remains.
	catalog := FullCatalog()
	var cmds []sim.Command
	for _, food := range catalog[1:] {
		cmds = append(cmds, sim.Command{
			ActorID: "p1",
			Type:    sim.CommandToggleTray,
			Tray:    &sim.ToggleTrayCommand{Food: string(food), Enabled: false},
		})
	}
	world.Apply(cmds)

	// Let the current order expire and the next one generate.
	stepWorld(world, 12)

	snap := world.Snapshot()
	if snap.Order == nil {
		t.Fatalf("no order after regeneration")
	}
	if len(snap.Order.Items) != 1 || snap.Order.Items[0] != catalog[0] {
		t.Fatalf("order = %v, want [%s]", snap.Order.Items, catalog[0])
	}
}

func TestRestartLevelKeepsSessionTotal(t *testing.T) {
	world, ledger := newTestWorld(t)

	ordered := world.Snapshot().Order.Items
	world.Apply(placeCommands(ordered))
	world.Apply([]sim.Command{serveCommand()})
	if ledger.TotalScore() != 150 {
		t.Fatalf("setup: total = %d", ledger.TotalScore())
	}

	if err := world.RestartLevel(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	snap := world.Snapshot()
	if snap.OrdersCompleted != 0 {
		t.Fatalf("orders completed = %d after restart, want 0", snap.OrdersCompleted)
	}
	if snap.Score.LevelScore != 0 {
		t.Fatalf("level score = %d after restart, want 0", snap.Score.LevelScore)
	}
	if ledger.TotalScore() != 150 {
		t.Fatalf("session total changed on restart: %d", ledger.TotalScore())
	}
}

func TestStartNewRunResetsSession(t *testing.T) {
	world, ledger := newTestWorld(t)

	ordered := world.Snapshot().Order.Items
	world.Apply(placeCommands(ordered))
	world.Apply([]sim.Command{serveCommand()})
	firstID := ledger.Snapshot().ID

	if err := world.StartNewRun(context.Background()); err != nil {
		t.Fatalf("new run: %v", err)
	}
	rec := ledger.Snapshot()
	if rec.ID == firstID {
		t.Fatalf("session id unchanged after new run")
	}
	if rec.TotalScore != 0 {
		t.Fatalf("total = %d after new run, want 0", rec.TotalScore)
	}
	if world.LevelIndex() != 0 {
		t.Fatalf("level = %d after new run, want 0", world.LevelIndex())
	}
}
