package server

import (
	"context"
	"math/rand"
	"testing"

	"short-order/server/internal/game"
	"short-order/server/internal/session"
	"short-order/server/internal/sim"
)

const hubTestLevels = `
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
`

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	levels, err := game.NewLevelProvider([]byte(hubTestLevels))
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	ledger := session.NewLedger(session.NewMemoryStore(), nil, nil)
	cfg := DefaultConfig()
	cfg.CustomersEnabled = false
	world := game.NewWorld(game.WorldConfig{CustomersEnabled: false}, levels, game.VariantLibraryDefault(), ledger, nil, nil, nil, rand.New(rand.NewSource(9)))
	hub := NewHub(cfg, world, ledger, nil, nil, nil)
	if err := hub.StartRun(context.Background()); err != nil {
		t.Fatalf("start run: %v", err)
	}
	return hub
}

// stubSubscriber buffers broadcast payloads for assertions.
type stubSubscriber struct {
	payloads [][]byte
	closed   bool
	full     bool
}

func (s *stubSubscriber) Send(payload []byte) bool {
	if s.full {
		return false
	}
	s.payloads = append(s.payloads, payload)
	return true
}

func (s *stubSubscriber) Close() { s.closed = true }

func TestJoinAssignsUniquePlayers(t *testing.T) {
	hub := newTestHub(t)

	first := hub.Join()
	second := hub.Join()

	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("join ids not unique: %q vs %q", first.ID, second.ID)
	}
	if first.Ver != protocolVersion {
		t.Fatalf("ver = %d, want %d", first.Ver, protocolVersion)
	}
	if first.Snapshot.CycleState != "displayed" {
		t.Fatalf("join snapshot state = %s, want displayed", first.Snapshot.CycleState)
	}
}

func TestSubscribeRequiresJoinedPlayer(t *testing.T) {
	hub := newTestHub(t)

	if hub.Subscribe("nobody", &stubSubscriber{}) {
		t.Fatalf("subscribe succeeded for unknown player")
	}

	joined := hub.Join()
	if !hub.Subscribe(joined.ID, &stubSubscriber{}) {
		t.Fatalf("subscribe failed for joined player")
	}
}

func TestResubscribeClosesPreviousConnection(t *testing.T) {
	hub := newTestHub(t)
	joined := hub.Join()

	old := &stubSubscriber{}
	hub.Subscribe(joined.ID, old)
	hub.Subscribe(joined.ID, &stubSubscriber{})

	if !old.closed {
		t.Fatalf("previous subscription not closed on resubscribe")
	}
}

func TestEnqueueRejectsUnknownPlayer(t *testing.T) {
	hub := newTestHub(t)

	ok, reason := hub.EnqueueCommand(sim.Command{ActorID: "ghost", Type: sim.CommandServe})
	if ok {
		t.Fatalf("command accepted for unknown player")
	}
	if reason != "unknown_player" {
		t.Fatalf("reason = %s, want unknown_player", reason)
	}

	joined := hub.Join()
	if ok, _ := hub.EnqueueCommand(sim.Command{ActorID: joined.ID, Type: sim.CommandServe}); !ok {
		t.Fatalf("command rejected for joined player")
	}
}

func TestHeartbeatTracksLiveness(t *testing.T) {
	hub := newTestHub(t)
	joined := hub.Join()

	ack, ok := hub.UpdateHeartbeat(joined.ID, 12345)
	if !ok {
		t.Fatalf("heartbeat rejected for joined player")
	}
	if ack.Type != "heartbeat_ack" || ack.ClientSent != 12345 {
		t.Fatalf("ack = %+v", ack)
	}

	if _, ok := hub.UpdateHeartbeat("ghost", 0); ok {
		t.Fatalf("heartbeat accepted for unknown player")
	}
}

func TestDisconnectRemovesPlayer(t *testing.T) {
	hub := newTestHub(t)
	joined := hub.Join()
	sub := &stubSubscriber{}
	hub.Subscribe(joined.ID, sub)

	hub.Disconnect(joined.ID, "test")

	if !sub.closed {
		t.Fatalf("subscription not closed on disconnect")
	}
	if ok, _ := hub.EnqueueCommand(sim.Command{ActorID: joined.ID, Type: sim.CommandServe}); ok {
		t.Fatalf("command accepted after disconnect")
	}
}

func TestAfterStepBroadcastsState(t *testing.T) {
	hub := newTestHub(t)
	joined := hub.Join()
	sub := &stubSubscriber{}
	hub.Subscribe(joined.ID, sub)

	hub.afterStep(sim.StepResult{Tick: 1})

	if len(sub.payloads) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(sub.payloads))
	}
}

func TestBackpressuredSubscriberIsDisconnected(t *testing.T) {
	hub := newTestHub(t)
	joined := hub.Join()
	sub := &stubSubscriber{full: true}
	hub.Subscribe(joined.ID, sub)

	hub.afterStep(sim.StepResult{Tick: 1})

	if !sub.closed {
		t.Fatalf("backpressured subscriber not disconnected")
	}
}

func TestDiagnosticsReportsHubState(t *testing.T) {
	hub := newTestHub(t)
	joined := hub.Join()
	hub.Subscribe(joined.ID, &stubSubscriber{})

	diag := hub.Diagnostics()
	if len(diag.Players) != 1 {
		t.Fatalf("players = %d, want 1", len(diag.Players))
	}
	if !diag.Players[0].Subscribed {
		t.Fatalf("player not marked subscribed")
	}
	if diag.CycleState != "displayed" {
		t.Fatalf("cycle state = %s, want displayed", diag.CycleState)
	}
}
