package game

import "testing"

func testVariant() *CustomerVariant {
	return &CustomerVariant{
		Name:              "test",
		Patience:          1,
		OrderDelaySeconds: 0.5,
		ReactionSeconds:   1.0,
		WalkInSeconds:     2.0,
		WalkOutSeconds:    2.0,
		WalkOutSadSeconds: 3.0,
	}
}

func stepUntil(c *Customer, dt float64, max int, want customerEvent) (int, bool) {
	for i := 0; i < max; i++ {
		if c.advance(dt) == want {
			return i, true
		}
	}
	return max, false
}

func TestCustomerArrivesOnSignal(t *testing.T) {
	c := newCustomer("c1", testVariant())

	// Walk-in is 2 seconds; one second in, movement is half done.
	c.advance(1)
	if c.Phase() != PhaseWalkingIn {
		t.Fatalf("phase = %s, want walking_in", c.Phase())
	}
	if c.Progress() != 0.5 {
		t.Fatalf("progress = %v, want 0.5", c.Progress())
	}

	c.SignalArrivalAnimationDone()
	if got := c.advance(1.1); got != customerEventArrived {
		t.Fatalf("event = %d, want arrived", got)
	}
	if c.Phase() != PhaseAtService {
		t.Fatalf("phase = %s, want at_service", c.Phase())
	}
}

func TestCustomerArrivesByFallbackWithoutSignal(t *testing.T) {
	c := newCustomer("c1", testVariant())

	// Movement completes at 2s but the gate holds until walkIn + grace.
	steps, ok := stepUntil(c, 0.25, 100, customerEventArrived)
	if !ok {
		t.Fatalf("customer never arrived")
	}
	elapsed := float64(steps+1) * 0.25
	if elapsed < 2.0+arrivalGraceSeconds {
		t.Fatalf("arrived after %vs, want >= %vs fallback", elapsed, 2.0+arrivalGraceSeconds)
	}
}

func TestCustomerReactionAndHappyWalkOut(t *testing.T) {
	c := newCustomer("c1", testVariant())
	c.SignalArrivalAnimationDone()
	if _, ok := stepUntil(c, 0.5, 20, customerEventArrived); !ok {
		t.Fatalf("customer never arrived")
	}

	if !c.beginReaction(true) {
		t.Fatalf("beginReaction failed at service")
	}
	if c.beginReaction(false) {
		t.Fatalf("second beginReaction succeeded while reacting")
	}
	if !c.Happy() {
		t.Fatalf("happy flag not set")
	}

	if _, ok := stepUntil(c, 0.5, 10, customerEventReactionDone); !ok {
		t.Fatalf("reaction never finished")
	}
	if c.Phase() != PhaseWalkingOut {
		t.Fatalf("phase = %s, want walking_out", c.Phase())
	}

	c.SignalDepartureAnimationDone()
	if _, ok := stepUntil(c, 0.5, 20, customerEventExited); !ok {
		t.Fatalf("customer never exited")
	}
}

func TestSadWalkOutUsesLongerDuration(t *testing.T) {
	c := newCustomer("c1", testVariant())
	c.beginReaction(false)
	stepUntil(c, 0.5, 10, customerEventReactionDone)

	if got := c.walkOutSeconds(); got != 3.0 {
		t.Fatalf("sad walk-out = %v, want 3.0", got)
	}

	happy := newCustomer("c2", testVariant())
	happy.beginReaction(true)
	stepUntil(happy, 0.5, 10, customerEventReactionDone)
	if got := happy.walkOutSeconds(); got != 2.0 {
		t.Fatalf("happy walk-out = %v, want 2.0", got)
	}
}

func TestReadinessGateFallback(t *testing.T) {
	gate := newReadinessGate(1.0)
	if gate.ready() {
		t.Fatalf("gate ready before signal or timeout")
	}
	gate.advance(0.5)
	if gate.ready() {
		t.Fatalf("gate ready at half the fallback")
	}
	gate.advance(0.6)
	if !gate.ready() {
		t.Fatalf("gate not ready after the fallback elapsed")
	}

	signaled := newReadinessGate(10)
	signaled.Signal()
	if !signaled.ready() {
		t.Fatalf("gate not ready after signal")
	}
}
