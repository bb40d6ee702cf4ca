package game

import (
	"math/rand"
	"testing"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *OrderCycle) {
	t.Helper()
	cfg := cycleLevelConfig()
	trays := NewTrayRack(cfg.ActiveTrayCount)
	scorer := NewScoreKeeper(cfg)
	cycle := NewOrderCycle(trays, scorer, rand.New(rand.NewSource(11)))
	cycle.Configure(cfg)
	co := NewCoordinator(DefaultCoordinatorConfig(), cycle, VariantLibraryDefault(), rand.New(rand.NewSource(11)))
	co.OnLevelLoaded(0)
	return co, cycle
}

func TestSpawnNextIsNoOpWhileCustomerExists(t *testing.T) {
	co, _ := newTestCoordinator(t)

	if !co.SpawnNext() {
		t.Fatalf("first spawn failed")
	}
	first := co.Current()
	if first == nil {
		t.Fatalf("no current customer after spawn")
	}

	if co.SpawnNext() {
		t.Fatalf("second spawn succeeded while a customer exists")
	}
	if co.Current() != first {
		t.Fatalf("current customer changed on duplicate spawn")
	}
}

func TestRequestOrderGenerationGuards(t *testing.T) {
	co, cycle := newTestCoordinator(t)
	co.SpawnNext()
	c := co.Current()

	var skips []string
	co.SetHooks(CoordinatorHooks{
		RequestSkipped: func(_ *Customer, reason string) { skips = append(skips, reason) },
	})

	if !co.RequestOrderGeneration(c) {
		t.Fatalf("first generation request failed")
	}
	if cycle.State() != OrderCycleDisplayed {
		t.Fatalf("cycle state = %s, want displayed", cycle.State())
	}
	if !co.GuardHeld() {
		t.Fatalf("admission not held after generation")
	}

	// A racing duplicate is absorbed by the per-customer guard.
	if co.RequestOrderGeneration(c) {
		t.Fatalf("duplicate generation request succeeded")
	}
	if len(skips) != 1 || skips[0] != "guard_set" {
		t.Fatalf("skips = %v, want [guard_set]", skips)
	}

	// A stale customer pointer is rejected outright.
	stray := newCustomer("stray", c.Variant)
	if co.RequestOrderGeneration(stray) {
		t.Fatalf("generation for non-current customer succeeded")
	}
	if skips[len(skips)-1] != "not_current" {
		t.Fatalf("last skip = %s, want not_current", skips[len(skips)-1])
	}
}

func TestGuardReleasedOnlyOnExit(t *testing.T) {
	co, cycle := newTestCoordinator(t)
	co.SpawnNext()
	c := co.Current()
	co.RequestOrderGeneration(c)

	result, ok := cycle.Resolve(cycle.CurrentOrder())
	if !ok || !result.Perfect {
		t.Fatalf("resolution failed: ok=%v perfect=%v", ok, result.Perfect)
	}
	co.OnOrderResolved(result.Perfect, nil)

	if !co.GuardHeld() {
		t.Fatalf("admission released before the customer exited")
	}
	if c.Phase() != PhaseReacting {
		t.Fatalf("phase = %s, want reacting", c.Phase())
	}

	// Drive the reaction and walk-out to completion.
	for i := 0; i < 400 && co.Current() != nil; i++ {
		co.Step(0.1)
	}
	if co.Current() != nil {
		t.Fatalf("customer never exited")
	}
	if co.GuardHeld() {
		t.Fatalf("admission still held after exit")
	}
}

func TestStepDrivesFullCustomerLoop(t *testing.T) {
	co, cycle := newTestCoordinator(t)

	var spawned, exited int
	co.SetHooks(CoordinatorHooks{
		CustomerSpawned: func(*Customer) { spawned++ },
		CustomerExited:  func(*Customer) { exited++ },
	})

	// Spawn delay, walk in, order delay, display.
	for i := 0; i < 200 && cycle.State() != OrderCycleDisplayed; i++ {
		co.Step(0.1)
	}
	if cycle.State() != OrderCycleDisplayed {
		t.Fatalf("order never displayed; state = %s", cycle.State())
	}
	if spawned != 1 {
		t.Fatalf("spawned = %d, want 1", spawned)
	}

	result, _ := cycle.Resolve(cycle.CurrentOrder())
	co.OnOrderResolved(result.Perfect, nil)

	// Reaction, walk out, exit, then the respawn timer brings the next one.
	for i := 0; i < 400 && exited == 0; i++ {
		co.Step(0.1)
	}
	if exited != 1 {
		t.Fatalf("exited = %d, want 1", exited)
	}

	for i := 0; i < 200 && spawned < 2; i++ {
		co.Step(0.1)
	}
	if spawned != 2 {
		t.Fatalf("next customer never spawned; spawned = %d", spawned)
	}
}

func TestQuotaStopsRespawn(t *testing.T) {
	co, _ := newTestCoordinator(t)
	co.SpawnNext()
	c := co.Current()

	co.OnLevelComplete()
	co.OnCustomerExited(c)

	for i := 0; i < 100; i++ {
		co.Step(0.1)
	}
	if co.Current() != nil {
		t.Fatalf("customer spawned after the quota was met")
	}
}

func TestOrderExpiryTriggersSadReaction(t *testing.T) {
	co, cycle := newTestCoordinator(t)
	co.SpawnNext()
	c := co.Current()
	co.RequestOrderGeneration(c)

	for i := 0; i < 2000 && cycle.State() == OrderCycleDisplayed; i++ {
		cycle.Tick(0.1)
	}
	co.OnOrderExpired()

	if c.Phase() != PhaseReacting {
		t.Fatalf("phase = %s, want reacting", c.Phase())
	}
	if c.Happy() {
		t.Fatalf("customer happy after expiry")
	}
}

func TestPickRandomFailsWithNothingUnlocked(t *testing.T) {
	if _, err := VariantLibraryDefault().PickRandom(-1, rand.New(rand.NewSource(1))); err == nil {
		t.Fatalf("expected error for a level below every unlock gate")
	}
}
