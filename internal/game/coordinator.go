package game

import (
	"math/rand"

	"github.com/google/uuid"
)

// admissionToken is the explicit state token guarding order generation. It is
// checked-and-set at admission and released only on the customer's terminal
// transition, so duplicate or re-entrant generation requests between those
// points are absorbed.
type admissionToken struct {
	held bool
}

func (t *admissionToken) TryAcquire() bool {
	if t == nil || t.held {
		return false
	}
	t.held = true
	return true
}

func (t *admissionToken) Release() {
	if t == nil {
		return
	}
	t.held = false
}

func (t *admissionToken) Held() bool {
	return t != nil && t.held
}

// CoordinatorConfig tunes the fixed delays around the customer loop.
type CoordinatorConfig struct {
	// ServiceSettleSeconds is added on top of the variant's order delay once
	// the customer reaches the service point.
	ServiceSettleSeconds float64
	// SpawnDelaySeconds is the gap between one customer exiting and the next
	// walking in.
	SpawnDelaySeconds float64
}

func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		ServiceSettleSeconds: 0.5,
		SpawnDelaySeconds:    1.0,
	}
}

// CoordinatorHooks surface lifecycle moments to the world. Nil hooks are
// skipped.
type CoordinatorHooks struct {
	CustomerSpawned func(c *Customer)
	CustomerArrived func(c *Customer)
	CustomerPhase   func(c *Customer)
	CustomerExited  func(c *Customer)
	SpawnFailed     func(level int, err error)
	RequestSkipped  func(c *Customer, reason string)
}

// Coordinator is the single point of truth for which customer exists right
// now, and the sole bridge between the customer lifecycle and the order
// cycle.
type Coordinator struct {
	cfg      CoordinatorConfig
	cycle    *OrderCycle
	variants *VariantLibrary
	rng      *rand.Rand
	hooks    CoordinatorHooks

	levelIndex int
	current    *Customer
	admission  admissionToken

	spawnPending bool
	spawnDelay   float64

	orderDelayPending bool
	orderDelay        float64

	quotaMet bool
}

func NewCoordinator(cfg CoordinatorConfig, cycle *OrderCycle, variants *VariantLibrary, rng *rand.Rand) *Coordinator {
	if variants == nil {
		variants = VariantLibraryDefault()
	}
	return &Coordinator{
		cfg:      cfg,
		cycle:    cycle,
		variants: variants,
		rng:      rng,
	}
}

// SetHooks installs the lifecycle observers.
func (co *Coordinator) SetHooks(hooks CoordinatorHooks) {
	if co == nil {
		return
	}
	co.hooks = hooks
}

// Current returns the customer currently at (or heading to) the counter.
func (co *Coordinator) Current() *Customer {
	if co == nil {
		return nil
	}
	return co.current
}

// GuardHeld reports the admission token state, for diagnostics.
func (co *Coordinator) GuardHeld() bool {
	if co == nil {
		return false
	}
	return co.admission.Held()
}

// OnLevelLoaded force-clears any current customer and all guard state. Used
// on level transition and restart so no stale references survive.
func (co *Coordinator) OnLevelLoaded(levelIndex int) {
	if co == nil {
		return
	}
	co.levelIndex = levelIndex
	co.current = nil
	co.admission.Release()
	co.orderDelayPending = false
	co.orderDelay = 0
	co.quotaMet = false
	co.spawnPending = true
	co.spawnDelay = co.cfg.SpawnDelaySeconds
}

// OnLevelComplete stops the spawn loop; the quota is met.
func (co *Coordinator) OnLevelComplete() {
	if co == nil {
		return
	}
	co.quotaMet = true
	co.spawnPending = false
}

// Stop cancels pending timers and drops the current customer without a
// walk-out. Used when the level is torn down mid-cycle.
func (co *Coordinator) Stop() {
	if co == nil {
		return
	}
	co.current = nil
	co.admission.Release()
	co.spawnPending = false
	co.orderDelayPending = false
}

// SpawnNext instantiates the next customer. A call while a customer is
// already current is a no-op: at most one customer exists system-wide.
func (co *Coordinator) SpawnNext() bool {
	if co == nil || co.current != nil || co.quotaMet {
		return false
	}
	variant, err := co.variants.PickRandom(co.levelIndex, co.rng)
	if err != nil {
		co.spawnPending = false
		if co.hooks.SpawnFailed != nil {
			co.hooks.SpawnFailed(co.levelIndex, err)
		}
		return false
	}
	co.current = newCustomer(uuid.NewString(), variant)
	co.spawnPending = false
	co.cycle.AwaitCustomer()
	if co.hooks.CustomerSpawned != nil {
		co.hooks.CustomerSpawned(co.current)
	}
	return true
}

// OnArrivedAtService schedules the order-generation request after the
// variant's order delay plus the fixed service-point settle delay. Ignored
// unless the given customer is current.
func (co *Coordinator) OnArrivedAtService(c *Customer) {
	if co == nil || c == nil || c != co.current {
		return
	}
	co.orderDelayPending = true
	co.orderDelay = c.Variant.OrderDelaySeconds + co.cfg.ServiceSettleSeconds
	if co.hooks.CustomerArrived != nil {
		co.hooks.CustomerArrived(c)
	}
}

// RequestOrderGeneration runs the guarded generation path. Two independent
// triggers can race here; only the first admitted call proceeds, the rest
// are silently dropped.
func (co *Coordinator) RequestOrderGeneration(c *Customer) bool {
	if co == nil || co.cycle == nil {
		return false
	}
	if c == nil || c != co.current {
		co.skip(c, "not_current")
		return false
	}
	if c.orderGenerationGuard {
		co.skip(c, "guard_set")
		return false
	}
	if co.cycle.State() == OrderCycleDisplayed {
		co.skip(c, "order_displayed")
		return false
	}
	if !co.admission.TryAcquire() {
		co.skip(c, "admission_held")
		return false
	}
	c.orderGenerationGuard = true

	co.cycle.RecomputeActiveFoodTypes()
	if !co.cycle.GenerateOrder() || !co.cycle.Display(c.Variant.Patience) {
		// Generation failed; give the admission back so a later request for a
		// fresh customer is not starved.
		c.orderGenerationGuard = false
		co.admission.Release()
		co.skip(c, "generation_failed")
		return false
	}
	c.markOrderVisible()
	return true
}

// OnOrderResolved forwards a serve resolution to the current customer as a
// reaction trigger. The admission token stays held until the customer fully
// exits, so a late duplicate resolution cannot retrigger generation.
func (co *Coordinator) OnOrderResolved(perfect bool, served []FoodType) {
	if co == nil || co.current == nil {
		return
	}
	happy := perfect || co.current.Variant.PrefersAny(served)
	if co.current.beginReaction(happy) && co.hooks.CustomerPhase != nil {
		co.hooks.CustomerPhase(co.current)
	}
}

// OnOrderExpired forwards a timeout to the current customer.
func (co *Coordinator) OnOrderExpired() {
	if co == nil || co.current == nil {
		return
	}
	if co.current.beginReaction(false) && co.hooks.CustomerPhase != nil {
		co.hooks.CustomerPhase(co.current)
	}
}

// OnCustomerExited clears the current-customer slot and the guard state,
// then schedules the next spawn if the quota is still open. Only honored for
// the current customer.
func (co *Coordinator) OnCustomerExited(c *Customer) {
	if co == nil || c == nil || c != co.current {
		return
	}
	if co.hooks.CustomerExited != nil {
		co.hooks.CustomerExited(c)
	}
	co.current = nil
	co.admission.Release()
	co.orderDelayPending = false
	if !co.quotaMet {
		co.spawnPending = true
		co.spawnDelay = co.cfg.SpawnDelaySeconds
	}
}

// Step advances the spawn delay, the customer lifecycle, and the pending
// order-generation delay by one tick.
func (co *Coordinator) Step(dt float64) {
	if co == nil || dt <= 0 {
		return
	}

	if co.current == nil {
		if co.spawnPending {
			co.spawnDelay -= dt
			if co.spawnDelay <= 0 {
				co.SpawnNext()
			}
		}
		return
	}

	switch co.current.advance(dt) {
	case customerEventArrived:
		co.OnArrivedAtService(co.current)
	case customerEventReactionDone:
		if co.hooks.CustomerPhase != nil {
			co.hooks.CustomerPhase(co.current)
		}
	case customerEventExited:
		co.OnCustomerExited(co.current)
		return
	}

	if co.orderDelayPending && co.current != nil {
		co.orderDelay -= dt
		if co.orderDelay <= 0 {
			co.orderDelayPending = false
			co.RequestOrderGeneration(co.current)
		}
	}
}

func (co *Coordinator) skip(c *Customer, reason string) {
	if co.hooks.RequestSkipped != nil {
		co.hooks.RequestSkipped(c, reason)
	}
}
