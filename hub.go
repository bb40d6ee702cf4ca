package server

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"short-order/server/internal/game"
	"short-order/server/internal/session"
	"short-order/server/internal/sim"
	"short-order/server/internal/telemetry"
	"short-order/server/logging"
	"short-order/server/logging/lifecycle"
)

// Subscriber is the write side of one connected client. Send must not
// block; a false return marks the subscriber dead.
type Subscriber interface {
	Send(payload []byte) bool
	Close()
}

type playerSession struct {
	ID            string
	ConnectedAt   time.Time
	LastHeartbeat time.Time
	sub           Subscriber
}

// Hub owns the world and every connection to it. The simulation loop calls
// back into the hub under its mutex; HTTP and websocket goroutines go
// through the same mutex, so the world itself never locks.
type Hub struct {
	cfg Config

	mu      sync.Mutex
	world   *game.World
	ledger  *session.Ledger
	players map[string]*playerSession
	tick    uint64

	loop      *sim.Loop
	publisher logging.Publisher
	logger    telemetry.Logger
	metrics   telemetry.Metrics

	lastPrune time.Time
}

func NewHub(cfg Config, world *game.World, ledger *session.Ledger, publisher logging.Publisher, logger telemetry.Logger, metrics telemetry.Metrics) *Hub {
	cfg = cfg.normalized()
	h := &Hub{
		cfg:       cfg,
		world:     world,
		ledger:    ledger,
		players:   make(map[string]*playerSession),
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
	loopCfg := sim.DefaultLoopConfig()
	loopCfg.TickRate = cfg.TickRate
	h.loop = sim.NewLoop(hubCore{h}, loopCfg, sim.LoopHooks{
		AfterStep:     h.afterStep,
		OnCommandDrop: h.onCommandDrop,
		OnQueueWarning: func(length int) {
			h.printf("command queue backlog: %d staged", length)
		},
	}, logging.SystemClock{}, logger, metrics)
	return h
}

// StartRun boots the world from the persisted session. Called once before
// Run.
func (h *Hub) StartRun(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.StartRun(ctx)
}

// Run drives the simulation until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	if h == nil {
		return
	}
	stop := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(stop)
	}()
	h.loop.Run(stop)
}

// Join registers a new player and returns the current state.
func (h *Hub) Join() joinResponse {
	h.mu.Lock()
	id := uuid.NewString()
	now := time.Now()
	h.players[id] = &playerSession{ID: id, ConnectedAt: now, LastHeartbeat: now}
	tick := h.tick
	snapshot := h.world.Snapshot()
	h.mu.Unlock()

	lifecycle.PlayerJoined(context.Background(), h.publisher, tick, logging.EntityRef{ID: id, Kind: logging.EntityKindPlayer})
	h.addMetric("players_joined", 1)
	return joinResponse{
		Ver:      protocolVersion,
		ID:       id,
		TickRate: h.cfg.TickRate,
		Snapshot: snapshot,
	}
}

// Subscribe attaches a broadcast sink to a joined player. An existing
// subscription is replaced.
func (h *Hub) Subscribe(playerID string, sub Subscriber) bool {
	h.mu.Lock()
	p, ok := h.players[playerID]
	var old Subscriber
	if ok {
		old = p.sub
		p.sub = sub
		p.LastHeartbeat = time.Now()
	}
	h.mu.Unlock()
	if old != nil {
		old.Close()
	}
	return ok
}

// Disconnect removes a player and closes its subscription.
func (h *Hub) Disconnect(playerID, reason string) {
	h.mu.Lock()
	p, ok := h.players[playerID]
	var tick uint64
	if ok {
		delete(h.players, playerID)
		tick = h.tick
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	if p.sub != nil {
		p.sub.Close()
	}
	lifecycle.PlayerDisconnected(context.Background(), h.publisher, tick, logging.EntityRef{ID: playerID, Kind: logging.EntityKindPlayer}, reason)
	h.addMetric("players_disconnected", 1)
}

// UpdateHeartbeat refreshes a player's liveness and returns the ack payload.
func (h *Hub) UpdateHeartbeat(playerID string, clientSent int64) (heartbeatAck, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.players[playerID]
	if !ok {
		return heartbeatAck{}, false
	}
	p.LastHeartbeat = time.Now()
	return heartbeatAck{
		Type:       "heartbeat_ack",
		Tick:       h.tick,
		ClientSent: clientSent,
		ServerTime: time.Now().UnixMilli(),
	}, true
}

// EnqueueCommand stages a player command for the next tick.
func (h *Hub) EnqueueCommand(cmd sim.Command) (bool, string) {
	h.mu.Lock()
	known := h.players[cmd.ActorID] != nil
	cmd.OriginTick = h.tick
	h.mu.Unlock()
	if !known {
		return false, "unknown_player"
	}
	if cmd.IssuedAt.IsZero() {
		cmd.IssuedAt = time.Now()
	}
	return h.loop.Enqueue(cmd)
}

// Snapshot reads the current world state.
func (h *Hub) Snapshot() game.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.Snapshot()
}

// SessionSnapshot reads the persisted-session view.
func (h *Hub) SessionSnapshot() *session.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ledger.Snapshot()
}

// StartNewRun discards the session and restarts from level zero.
func (h *Hub) StartNewRun(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.StartNewRun(ctx)
}

// RestartLevel reloads the current level without touching the session total.
func (h *Hub) RestartLevel() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.RestartLevel()
}

// DeleteSession drops the persisted session record.
func (h *Hub) DeleteSession(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ledger.Delete(ctx)
}

// CompleteSession closes out the active session on request.
func (h *Hub) CompleteSession(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ledger.CompleteSession(ctx)
}

// PersistSession flushes the session record, used on shutdown.
func (h *Hub) PersistSession(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ledger.Persist(ctx)
}

// Diagnostics assembles the operational snapshot served over HTTP.
func (h *Hub) Diagnostics() diagnosticsSnapshot {
	h.mu.Lock()
	players := make([]diagnosticsPlayer, 0, len(h.players))
	for _, p := range h.players {
		players = append(players, diagnosticsPlayer{
			ID:            p.ID,
			ConnectedAt:   p.ConnectedAt,
			LastHeartbeat: p.LastHeartbeat,
			Subscribed:    p.sub != nil,
		})
	}
	snap := diagnosticsSnapshot{
		Tick:            h.tick,
		Level:           h.world.LevelIndex(),
		CycleState:      h.world.CycleStateName(),
		GuardHeld:       h.world.GuardHeld(),
		PendingCommands: h.loop.Pending(),
		Players:         players,
	}
	h.mu.Unlock()

	sort.Slice(snap.Players, func(i, j int) bool { return snap.Players[i].ID < snap.Players[j].ID })
	if m, ok := h.metrics.(interface{ Snapshot() map[string]uint64 }); ok {
		snap.Metrics = m.Snapshot()
	}
	return snap
}

// hubCore adapts the hub-guarded world to the loop's engine interface.
type hubCore struct {
	h *Hub
}

func (c hubCore) Apply(cmds []sim.Command) error {
	c.h.mu.Lock()
	defer c.h.mu.Unlock()
	return c.h.world.Apply(cmds)
}

func (c hubCore) Step(ctx sim.TickContext) {
	c.h.mu.Lock()
	defer c.h.mu.Unlock()
	c.h.tick = ctx.Tick
	c.h.world.Step(ctx)
}

func (h *Hub) afterStep(result sim.StepResult) {
	h.mu.Lock()
	snapshot := h.world.Snapshot()
	events := h.world.DrainEvents()
	stale := h.pruneLocked(result.Now)
	type target struct {
		id  string
		sub Subscriber
	}
	targets := make([]target, 0, len(h.players))
	for id, p := range h.players {
		if p.sub != nil {
			targets = append(targets, target{id: id, sub: p.sub})
		}
	}
	h.mu.Unlock()

	for _, id := range stale {
		h.Disconnect(id, "heartbeat_timeout")
	}

	if result.Duration > result.Budget {
		h.addMetric("tick_budget_overruns", 1)
		h.printf("tick %d overran budget: %s > %s", result.Tick, result.Duration, result.Budget)
	}

	if len(targets) == 0 {
		return
	}
	payload, err := json.Marshal(stateMessage{
		Type:     "state",
		Tick:     result.Tick,
		Snapshot: snapshot,
		Events:   events,
	})
	if err != nil {
		h.printf("failed to marshal state broadcast: %v", err)
		return
	}
	for _, t := range targets {
		if !t.sub.Send(payload) {
			h.Disconnect(t.id, "send_backpressure")
		}
	}
}

// pruneLocked collects players whose heartbeat went silent. Runs at most
// once per heartbeat interval.
func (h *Hub) pruneLocked(now time.Time) []string {
	if now.Sub(h.lastPrune) < heartbeatInterval {
		return nil
	}
	h.lastPrune = now
	var stale []string
	for id, p := range h.players {
		if now.Sub(p.LastHeartbeat) > disconnectAfter {
			stale = append(stale, id)
		}
	}
	return stale
}

func (h *Hub) onCommandDrop(reason string, cmd sim.Command) {
	h.addMetric("commands_dropped", 1)
	h.mu.Lock()
	var sub Subscriber
	if p := h.players[cmd.ActorID]; p != nil {
		sub = p.sub
	}
	h.mu.Unlock()
	if sub == nil {
		return
	}
	payload, err := json.Marshal(commandReject{
		Type:    "command_reject",
		Command: string(cmd.Type),
		Reason:  reason,
	})
	if err != nil {
		return
	}
	sub.Send(payload)
}

func (h *Hub) addMetric(key string, delta uint64) {
	if h.metrics == nil {
		return
	}
	h.metrics.Add(key, delta)
}

func (h *Hub) printf(format string, args ...any) {
	if h.logger == nil {
		return
	}
	h.logger.Printf(format, args...)
}
