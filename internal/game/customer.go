package game

// CustomerPhase is the per-customer lifecycle state.
type CustomerPhase uint8

const (
	PhaseWalkingIn CustomerPhase = iota
	PhaseAtService
	PhaseReacting
	PhaseWalkingOut
	PhaseExited
)

func (p CustomerPhase) String() string {
	switch p {
	case PhaseWalkingIn:
		return "walking_in"
	case PhaseAtService:
		return "at_service"
	case PhaseReacting:
		return "reacting"
	case PhaseWalkingOut:
		return "walking_out"
	case PhaseExited:
		return "exited"
	default:
		return "unknown"
	}
}

// customerEvent is what a lifecycle advance step surfaces to the coordinator.
type customerEvent uint8

const (
	customerEventNone customerEvent = iota
	customerEventArrived
	customerEventReactionDone
	customerEventExited
)

// readinessGate waits for an external completion signal with a bounded
// fallback: Ready once signaled or once the fallback duration has elapsed.
// This is how walk animations report completion without ever stalling the
// cycle when the client never answers.
type readinessGate struct {
	signaled        bool
	fallbackSeconds float64
	elapsed         float64
}

func newReadinessGate(fallbackSeconds float64) readinessGate {
	if fallbackSeconds <= 0 {
		fallbackSeconds = 0.1
	}
	return readinessGate{fallbackSeconds: fallbackSeconds}
}

func (g *readinessGate) Signal() {
	if g == nil {
		return
	}
	g.signaled = true
}

func (g *readinessGate) advance(dt float64) {
	if g == nil {
		return
	}
	g.elapsed += dt
}

func (g *readinessGate) ready() bool {
	if g == nil {
		return true
	}
	return g.signaled || g.elapsed >= g.fallbackSeconds
}

// Customer is one lifecycle instance. Movement is a linear interpolation
// toward the current target; progress runs 0..1 within each walking phase.
type Customer struct {
	ID      string
	Variant *CustomerVariant

	phase    CustomerPhase
	progress float64
	elapsed  float64

	arriveGate readinessGate
	departGate readinessGate

	happy        bool
	orderVisible bool

	// orderGenerationGuard mirrors the coordinator's admission token on the
	// record itself so a destroyed customer can never re-admit.
	orderGenerationGuard bool
}

// arrivalGraceSeconds pads the walk duration before the fallback fires.
const arrivalGraceSeconds = 1.5

func newCustomer(id string, variant *CustomerVariant) *Customer {
	c := &Customer{
		ID:      id,
		Variant: variant,
		phase:   PhaseWalkingIn,
	}
	c.arriveGate = newReadinessGate(variant.WalkInSeconds + arrivalGraceSeconds)
	return c
}

// Phase reports the current lifecycle phase.
func (c *Customer) Phase() CustomerPhase {
	if c == nil {
		return PhaseExited
	}
	return c.phase
}

// Progress reports motion progress in the current walking phase.
func (c *Customer) Progress() float64 {
	if c == nil {
		return 0
	}
	return c.progress
}

// Happy reports which departure path the customer is on.
func (c *Customer) Happy() bool {
	if c == nil {
		return false
	}
	return c.happy
}

// OrderVisible reports whether this customer's order has been displayed.
func (c *Customer) OrderVisible() bool {
	if c == nil {
		return false
	}
	return c.orderVisible
}

// SignalArrivalAnimationDone marks the walk-in animation finished.
func (c *Customer) SignalArrivalAnimationDone() {
	if c == nil || c.phase != PhaseWalkingIn {
		return
	}
	c.arriveGate.Signal()
}

// SignalDepartureAnimationDone marks the walk-out animation finished.
func (c *Customer) SignalDepartureAnimationDone() {
	if c == nil || c.phase != PhaseWalkingOut {
		return
	}
	c.departGate.Signal()
}

// markOrderVisible records that the order cycle displayed this customer's
// order.
func (c *Customer) markOrderVisible() {
	if c == nil {
		return
	}
	c.orderVisible = true
}

// beginReaction moves the customer to the reaction phase. Safe to call only
// once; later calls while already reacting or leaving are dropped.
func (c *Customer) beginReaction(happy bool) bool {
	if c == nil {
		return false
	}
	if c.phase != PhaseAtService && c.phase != PhaseWalkingIn {
		return false
	}
	c.phase = PhaseReacting
	c.happy = happy
	c.elapsed = 0
	return true
}

// advance moves the lifecycle forward by dt seconds and reports at most one
// transition event.
func (c *Customer) advance(dt float64) customerEvent {
	if c == nil || dt <= 0 {
		return customerEventNone
	}
	switch c.phase {
	case PhaseWalkingIn:
		c.elapsed += dt
		c.arriveGate.advance(dt)
		if c.Variant.WalkInSeconds > 0 {
			c.progress = clamp01(c.elapsed / c.Variant.WalkInSeconds)
		} else {
			c.progress = 1
		}
		if c.progress >= 1 && c.arriveGate.ready() {
			c.phase = PhaseAtService
			c.elapsed = 0
			c.progress = 0
			return customerEventArrived
		}
	case PhaseReacting:
		c.elapsed += dt
		if c.elapsed >= c.Variant.ReactionSeconds {
			c.phase = PhaseWalkingOut
			c.elapsed = 0
			c.progress = 0
			c.departGate = newReadinessGate(c.walkOutSeconds() + arrivalGraceSeconds)
			return customerEventReactionDone
		}
	case PhaseWalkingOut:
		c.elapsed += dt
		c.departGate.advance(dt)
		if out := c.walkOutSeconds(); out > 0 {
			c.progress = clamp01(c.elapsed / out)
		} else {
			c.progress = 1
		}
		if c.progress >= 1 && c.departGate.ready() {
			c.phase = PhaseExited
			return customerEventExited
		}
	}
	return customerEventNone
}

// walkOutSeconds picks the departure duration for the current mood; the sad
// path may linger longer than the happy one.
func (c *Customer) walkOutSeconds() float64 {
	if c == nil || c.Variant == nil {
		return 0
	}
	if c.happy {
		return c.Variant.WalkOutSeconds
	}
	if c.Variant.WalkOutSadSeconds > 0 {
		return c.Variant.WalkOutSadSeconds
	}
	return c.Variant.WalkOutSeconds
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
