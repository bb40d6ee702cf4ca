package game

import (
	"math"
	"math/rand"
)

// OrderCycleState tracks the single live order.
type OrderCycleState uint8

const (
	OrderCycleIdle OrderCycleState = iota
	OrderCycleAwaitingCustomer
	OrderCycleDisplayed
	OrderCycleResolved
)

func (s OrderCycleState) String() string {
	switch s {
	case OrderCycleIdle:
		return "idle"
	case OrderCycleAwaitingCustomer:
		return "awaiting_customer"
	case OrderCycleDisplayed:
		return "displayed"
	case OrderCycleResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Order is the currently requested sequence of food types.
type Order struct {
	Items []FoodType `json:"items"`
}

// OrderCycleHooks receive the cycle's fire-and-forget signals. Nil hooks are
// skipped.
type OrderCycleHooks struct {
	OrderShown    func(items []FoodType, displaySeconds float64)
	OrderHidden   func()
	TimerTick     func(secondsRemaining int)
	OrderServed   func(result ScoreResult, remainingSeconds float64, served []FoodType, ordered []FoodType)
	OrderExpired  func(ordered []FoodType)
	LevelComplete func(ordersCompleted int)
	NextScheduled func(delaySeconds float64)
}

// OrderCycle owns the live order and its countdown. It is advanced by the
// world tick; no goroutines of its own.
type OrderCycle struct {
	cfg    LevelConfig
	trays  TraySupply
	scorer *ScoreKeeper
	rng    *rand.Rand
	hooks  OrderCycleHooks

	state           OrderCycleState
	order           Order
	remaining       float64
	lastWholeSecond int
	ordersCompleted int
	active          []FoodType

	// selfDriven runs the standalone loop with no customer actors: resolve or
	// expire, wait the inter-order delay, generate again.
	selfDriven bool
	nextDelay  float64
}

func NewOrderCycle(trays TraySupply, scorer *ScoreKeeper, rng *rand.Rand) *OrderCycle {
	return &OrderCycle{
		trays:  trays,
		scorer: scorer,
		rng:    rng,
	}
}

// SetHooks installs the signal receivers.
func (c *OrderCycle) SetHooks(hooks OrderCycleHooks) {
	if c == nil {
		return
	}
	c.hooks = hooks
}

// SetSelfDriven toggles the standalone no-customer loop.
func (c *OrderCycle) SetSelfDriven(selfDriven bool) {
	if c == nil {
		return
	}
	c.selfDriven = selfDriven
}

// Configure installs the level tunables and resets the completed-order count.
func (c *OrderCycle) Configure(cfg LevelConfig) {
	if c == nil {
		return
	}
	c.cfg = cfg
	c.ordersCompleted = 0
	c.state = OrderCycleIdle
	c.order = Order{}
	c.remaining = 0
	c.nextDelay = 0
}

// State reports the current cycle state.
func (c *OrderCycle) State() OrderCycleState {
	if c == nil {
		return OrderCycleIdle
	}
	return c.state
}

// CurrentOrder returns a copy of the live order items.
func (c *OrderCycle) CurrentOrder() []FoodType {
	if c == nil {
		return nil
	}
	return append([]FoodType(nil), c.order.Items...)
}

// Remaining reports the countdown seconds left on the displayed order.
func (c *OrderCycle) Remaining() float64 {
	if c == nil {
		return 0
	}
	return c.remaining
}

// OrdersCompleted reports resolutions (served or expired) this level.
func (c *OrderCycle) OrdersCompleted() int {
	if c == nil {
		return 0
	}
	return c.ordersCompleted
}

// ActiveFoodTypes returns the set used for the last generation.
func (c *OrderCycle) ActiveFoodTypes() []FoodType {
	if c == nil {
		return nil
	}
	return append([]FoodType(nil), c.active...)
}

// AwaitCustomer marks the cycle as waiting for a customer to arrive. Only
// meaningful from Idle.
func (c *OrderCycle) AwaitCustomer() {
	if c == nil || c.state != OrderCycleIdle {
		return
	}
	c.state = OrderCycleAwaitingCustomer
}

// RecomputeActiveFoodTypes queries the tray supply and filters to foods with
// a display definition. Falls back to the full catalog when nothing usable
// remains. Called before every generation because trays change mid-level.
func (c *OrderCycle) RecomputeActiveFoodTypes() {
	if c == nil {
		return
	}
	var active []FoodType
	if c.trays != nil {
		for _, t := range c.trays.ActiveFoodTypes() {
			if _, ok := DisplayDef(t); ok {
				active = append(active, t)
			}
		}
	}
	if len(active) == 0 {
		active = FullCatalog()
	}
	c.active = active
}

// GenerateOrder samples a fresh order from the active set: a size within the
// configured bounds clamped to the set size, drawn without replacement.
// Returns false when generation is impossible.
func (c *OrderCycle) GenerateOrder() bool {
	if c == nil || c.state == OrderCycleDisplayed {
		return false
	}
	maxPossible := len(c.active)
	if maxPossible == 0 {
		return false
	}
	lo := c.cfg.MinOrderItems
	hi := c.cfg.MaxOrderItems
	if lo > maxPossible {
		lo = maxPossible
	}
	if hi > maxPossible {
		hi = maxPossible
	}
	if hi < lo {
		hi = lo
	}
	size := lo
	if hi > lo && c.rng != nil {
		size = lo + c.rng.Intn(hi-lo+1)
	}
	if size < 1 {
		size = 1
	}

	pool := append([]FoodType(nil), c.active...)
	if c.rng != nil {
		c.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}
	c.order = Order{Items: pool[:size]}
	return true
}

// Display transitions to Displayed and starts the countdown. A second call
// while an order is already displayed is a no-op: exactly one order is live.
// patienceScale stretches or shrinks the countdown per customer variant;
// values <= 0 mean no scaling.
func (c *OrderCycle) Display(patienceScale float64) bool {
	if c == nil {
		return false
	}
	if c.state != OrderCycleIdle && c.state != OrderCycleAwaitingCustomer {
		return false
	}
	if len(c.order.Items) == 0 {
		return false
	}
	if patienceScale <= 0 {
		patienceScale = 1
	}
	c.state = OrderCycleDisplayed
	c.remaining = c.cfg.OrderDisplaySeconds * patienceScale
	c.lastWholeSecond = int(math.Ceil(c.remaining))
	if c.hooks.OrderShown != nil {
		c.hooks.OrderShown(c.CurrentOrder(), c.remaining)
	}
	return true
}

// Tick advances the countdown while an order is displayed, and drives the
// inter-order delay in self-driven mode.
func (c *OrderCycle) Tick(dt float64) {
	if c == nil || dt <= 0 {
		return
	}
	switch c.state {
	case OrderCycleDisplayed:
		c.remaining -= dt
		if c.remaining <= 0 {
			c.remaining = 0
			c.expire()
			return
		}
		whole := int(math.Ceil(c.remaining))
		if whole != c.lastWholeSecond {
			c.lastWholeSecond = whole
			if c.hooks.TimerTick != nil {
				c.hooks.TimerTick(whole)
			}
		}
	case OrderCycleResolved:
		if !c.selfDriven {
			return
		}
		c.nextDelay -= dt
		if c.nextDelay <= 0 {
			c.state = OrderCycleIdle
			c.startNext()
		}
	}
}

// Resolve settles the displayed order against the served items. Calls outside
// the Displayed state are silently absorbed; duplicate resolution signals are
// an expected idempotence path, not an error.
func (c *OrderCycle) Resolve(served []FoodType) (ScoreResult, bool) {
	if c == nil || c.state != OrderCycleDisplayed {
		return ScoreResult{}, false
	}
	ordered := c.CurrentOrder()
	remaining := c.remaining
	var result ScoreResult
	if c.scorer != nil {
		result = c.scorer.Score(served, ordered, remaining)
	}
	c.state = OrderCycleResolved
	c.remaining = 0
	if c.hooks.OrderServed != nil {
		c.hooks.OrderServed(result, remaining, served, ordered)
	}
	c.hideOrder()
	c.finishResolution()
	return result, true
}

func (c *OrderCycle) expire() {
	ordered := c.CurrentOrder()
	if c.scorer != nil {
		c.scorer.RecordExpiry()
	}
	c.state = OrderCycleResolved
	if c.hooks.OrderExpired != nil {
		c.hooks.OrderExpired(ordered)
	}
	c.hideOrder()
	c.finishResolution()
}

func (c *OrderCycle) finishResolution() {
	c.ordersCompleted++
	if c.ordersCompleted >= c.cfg.OrdersRequired {
		if c.hooks.LevelComplete != nil {
			c.hooks.LevelComplete(c.ordersCompleted)
		}
		c.state = OrderCycleIdle
		c.order = Order{}
		return
	}
	if c.selfDriven {
		c.nextDelay = c.cfg.InterOrderDelaySeconds
		if c.hooks.NextScheduled != nil {
			c.hooks.NextScheduled(c.nextDelay)
		}
		return
	}
	// Customer-driven mode: return to Idle immediately so the next spawn can
	// move the cycle to AwaitingCustomer.
	c.state = OrderCycleIdle
	c.order = Order{}
}

// StartSelfLoop kicks off the standalone loop: generate and display the
// first order immediately.
func (c *OrderCycle) StartSelfLoop() bool {
	if c == nil || !c.selfDriven || c.state != OrderCycleIdle {
		return false
	}
	return c.startNext()
}

func (c *OrderCycle) startNext() bool {
	c.RecomputeActiveFoodTypes()
	if !c.GenerateOrder() {
		return false
	}
	return c.Display(1)
}

// StopAndHide cancels the countdown and any pending generation, clears the
// displayed items, and returns to Idle. Called on level end, restart, or
// external disable.
func (c *OrderCycle) StopAndHide() {
	if c == nil {
		return
	}
	wasDisplayed := c.state == OrderCycleDisplayed
	c.state = OrderCycleIdle
	c.order = Order{}
	c.remaining = 0
	c.nextDelay = 0
	if wasDisplayed {
		c.hideOrder()
	}
}

func (c *OrderCycle) hideOrder() {
	if c.hooks.OrderHidden != nil {
		c.hooks.OrderHidden()
	}
}
