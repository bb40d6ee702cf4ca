package game

import (
	"context"
	"fmt"
	"math/rand"

	"short-order/server/internal/session"
	"short-order/server/internal/sim"
	"short-order/server/internal/telemetry"
	"short-order/server/logging"
	"short-order/server/logging/customers"
	"short-order/server/logging/orders"
)

// levelTransitionSeconds is the pause between the quota being met and the
// next level loading.
const levelTransitionSeconds = 3.0

// WorldConfig tunes the world-level behavior.
type WorldConfig struct {
	// CustomersEnabled selects the customer-driven loop. When false the order
	// cycle runs its standalone self-driven loop.
	CustomersEnabled bool
	Coordinator      CoordinatorConfig
}

func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		CustomersEnabled: true,
		Coordinator:      DefaultCoordinatorConfig(),
	}
}

// World is the authoritative game state. Everything in here is advanced by
// Apply and Step from the simulation loop goroutine; snapshot reads go
// through the hub's lock, never through internal locking of the world
// itself.
type World struct {
	cfg    WorldConfig
	levels *LevelProvider
	ledger *session.Ledger

	publisher logging.Publisher
	logger    telemetry.Logger
	metrics   telemetry.Metrics

	trays  *TrayRack
	plate  *Plate
	scorer *ScoreKeeper
	cycle  *OrderCycle
	coord  *Coordinator

	baseCtx context.Context

	levelIndex int
	level      LevelConfig

	tick   uint64
	events []Event

	// advanceDelay counts down the pause between level completion and the
	// next level load. Zero means no transition is pending.
	advanceDelay float64
	runComplete  bool
}

func NewWorld(cfg WorldConfig, levels *LevelProvider, variants *VariantLibrary, ledger *session.Ledger, publisher logging.Publisher, logger telemetry.Logger, metrics telemetry.Metrics, rng *rand.Rand) *World {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	trays := NewTrayRack(1)
	plate := NewPlate(1)
	scorer := NewScoreKeeper(LevelConfig{})
	cycle := NewOrderCycle(trays, scorer, rng)
	cycle.SetSelfDriven(!cfg.CustomersEnabled)

	w := &World{
		cfg:       cfg,
		levels:    levels,
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		trays:     trays,
		plate:     plate,
		scorer:    scorer,
		cycle:     cycle,
		baseCtx:   context.Background(),
	}
	if cfg.CustomersEnabled {
		w.coord = NewCoordinator(cfg.Coordinator, cycle, variants, rng)
		w.coord.SetHooks(CoordinatorHooks{
			CustomerSpawned: w.onCustomerSpawned,
			CustomerArrived: w.onCustomerArrived,
			CustomerPhase:   w.onCustomerPhase,
			CustomerExited:  w.onCustomerExited,
			SpawnFailed:     w.onSpawnFailed,
			RequestSkipped:  w.onRequestSkipped,
		})
	}
	cycle.SetHooks(OrderCycleHooks{
		OrderShown:    w.onOrderShown,
		OrderHidden:   w.onOrderHidden,
		TimerTick:     w.onTimerTick,
		OrderServed:   w.onOrderServed,
		OrderExpired:  w.onOrderExpired,
		LevelComplete: w.onLevelComplete,
	})
	return w
}

// StartRun resumes the persisted session, or starts a fresh one, and loads
// the level the session points at.
func (w *World) StartRun(ctx context.Context) error {
	if w == nil {
		return fmt.Errorf("world not initialized")
	}
	rec := w.ledger.Snapshot()
	if rec == nil || !rec.Active {
		rec = w.ledger.StartNewSession(ctx)
	}
	index := 0
	if rec != nil {
		index = rec.CurrentLevel
	}
	if index >= w.levels.Count() {
		index = w.levels.Count() - 1
	}
	if index < 0 {
		index = 0
	}
	return w.LoadLevel(index)
}

// StartNewRun discards any existing session and begins at level zero.
func (w *World) StartNewRun(ctx context.Context) error {
	if w == nil {
		return fmt.Errorf("world not initialized")
	}
	w.ledger.Delete(ctx)
	w.ledger.StartNewSession(ctx)
	return w.LoadLevel(0)
}

// LoadLevel tears down the running level and configures everything for the
// given index. Load order matters: the cycle and coordinator are stopped
// before any collaborator is reconfigured so no stale order or customer
// survives the transition.
func (w *World) LoadLevel(index int) error {
	if w == nil {
		return fmt.Errorf("world not initialized")
	}
	cfg, ok := w.levels.ByIndex(index)
	if !ok {
		return fmt.Errorf("level %d not defined", index)
	}

	w.cycle.StopAndHide()
	w.coord.Stop()

	w.levelIndex = index
	w.level = cfg
	w.advanceDelay = 0
	w.runComplete = false

	w.scorer.Configure(cfg)
	w.cycle.Configure(cfg)
	w.trays.Reset(cfg.ActiveTrayCount)
	w.plate.SetCapacity(cfg.PlateCapacity)
	w.plate.Clear()

	if w.cfg.CustomersEnabled {
		w.coord.OnLevelLoaded(index)
	} else {
		w.cycle.StartSelfLoop()
	}

	w.printf("level %d loaded: quota=%d trays=%d", index, cfg.OrdersRequired, cfg.ActiveTrayCount)
	w.emit(EventLevelStarted, map[string]any{"level": index, "ordersRequired": cfg.OrdersRequired})
	w.emit(EventTrays, w.trayViews())
	w.emit(EventPlate, w.plateView())
	w.emit(EventComboChanged, w.scoreView())
	return nil
}

// RestartLevel reloads the current level. The level score resets; the
// session total does not.
func (w *World) RestartLevel() error {
	if w == nil {
		return fmt.Errorf("world not initialized")
	}
	return w.LoadLevel(w.levelIndex)
}

// LevelIndex reports the index of the running level.
func (w *World) LevelIndex() int {
	if w == nil {
		return 0
	}
	return w.levelIndex
}

// CycleStateName reports the order cycle state for diagnostics.
func (w *World) CycleStateName() string {
	if w == nil {
		return ""
	}
	return w.cycle.State().String()
}

// GuardHeld reports the order-generation admission state for diagnostics.
func (w *World) GuardHeld() bool {
	if w == nil {
		return false
	}
	return w.coord.GuardHeld()
}

// RunComplete reports whether every defined level has been cleared.
func (w *World) RunComplete() bool {
	return w != nil && w.runComplete
}

// Apply executes the staged player commands against the world. Unknown or
// out-of-phase commands are absorbed, never fatal.
func (w *World) Apply(cmds []sim.Command) error {
	if w == nil {
		return nil
	}
	for _, cmd := range cmds {
		switch cmd.Type {
		case sim.CommandPlaceItem:
			w.applyPlaceItem(cmd)
		case sim.CommandClearPlate:
			w.plate.Clear()
			w.emit(EventPlate, w.plateView())
		case sim.CommandServe:
			w.applyServe(cmd)
		case sim.CommandToggleTray:
			w.applyToggleTray(cmd)
		case sim.CommandAnimationDone:
			w.applyAnimationDone(cmd)
		default:
			w.printf("ignoring unknown command type %q from %s", cmd.Type, cmd.ActorID)
		}
	}
	return nil
}

// Step advances the world by one fixed timestep.
func (w *World) Step(ctx sim.TickContext) {
	if w == nil {
		return
	}
	w.tick = ctx.Tick

	if w.advanceDelay > 0 {
		w.advanceDelay -= ctx.Delta
		if w.advanceDelay <= 0 {
			w.advanceDelay = 0
			w.advanceLevel()
		}
		return
	}

	w.coord.Step(ctx.Delta)
	w.cycle.Tick(ctx.Delta)
}

// DrainEvents returns and clears the wire events accumulated since the last
// drain. Called by the hub after every step.
func (w *World) DrainEvents() []Event {
	if w == nil || len(w.events) == 0 {
		return nil
	}
	out := w.events
	w.events = nil
	return out
}

// Snapshot captures the full renderable state.
func (w *World) Snapshot() Snapshot {
	if w == nil {
		return Snapshot{}
	}
	snap := Snapshot{
		Tick:            w.tick,
		Level:           w.levelIndex,
		OrdersRequired:  w.level.OrdersRequired,
		OrdersCompleted: w.cycle.OrdersCompleted(),
		CycleState:      w.cycle.State().String(),
		Score:           w.scoreView(),
		Trays:           w.trayViews(),
		Plate:           w.plateView(),
	}
	if w.cycle.State() == OrderCycleDisplayed {
		snap.Order = &OrderView{
			Items:            w.cycle.CurrentOrder(),
			SecondsRemaining: w.cycle.Remaining(),
		}
	}
	if c := w.coord.Current(); c != nil {
		view := customerView(c)
		snap.Customer = &view
	}
	if rec := w.ledger.Snapshot(); rec != nil {
		snap.Session = &SessionView{
			ID:              rec.ID,
			TotalScore:      rec.TotalScore,
			CurrentLevel:    rec.CurrentLevel,
			LevelsCompleted: rec.LevelsCompleted,
			Active:          rec.Active,
		}
	}
	return snap
}

func (w *World) applyPlaceItem(cmd sim.Command) {
	if cmd.Place == nil {
		return
	}
	food, ok := ParseFoodType(cmd.Place.Food)
	if !ok {
		w.printf("place_item: unknown food %q from %s", cmd.Place.Food, cmd.ActorID)
		return
	}
	if !w.plate.Add(food) {
		w.addMetric("plate_rejected", 1)
		return
	}
	w.emit(EventPlate, w.plateView())
}

func (w *World) applyServe(cmd sim.Command) {
	if w.cycle.State() != OrderCycleDisplayed {
		w.addMetric("serve_without_order", 1)
		return
	}
	served := w.plate.ServedItemTypes()
	if _, ok := w.cycle.Resolve(served); !ok {
		return
	}
	w.plate.Clear()
	w.emit(EventPlate, w.plateView())
}

func (w *World) applyToggleTray(cmd sim.Command) {
	if cmd.Tray == nil {
		return
	}
	food, ok := ParseFoodType(cmd.Tray.Food)
	if !ok {
		w.printf("toggle_tray: unknown food %q from %s", cmd.Tray.Food, cmd.ActorID)
		return
	}
	w.trays.SetEnabled(food, cmd.Tray.Enabled)
	w.emit(EventTrays, w.trayViews())
}

func (w *World) applyAnimationDone(cmd sim.Command) {
	if cmd.Animation == nil {
		return
	}
	c := w.coord.Current()
	if c == nil {
		return
	}
	switch cmd.Animation.Stage {
	case sim.AnimationStageArrive:
		c.SignalArrivalAnimationDone()
	case sim.AnimationStageDepart:
		c.SignalDepartureAnimationDone()
	}
}

func (w *World) advanceLevel() {
	next := w.levelIndex + 1
	if next < w.levels.Count() {
		if err := w.LoadLevel(next); err != nil {
			w.printf("failed to load level %d: %v", next, err)
		}
		return
	}
	w.runComplete = true
	w.ledger.CompleteSession(w.baseCtx)
	w.emit(EventSession, map[string]any{"complete": true, "totalScore": w.ledger.TotalScore()})
	w.printf("run complete: total=%d", w.ledger.TotalScore())
}

// Order cycle hooks.

func (w *World) onOrderShown(items []FoodType, displaySeconds float64) {
	w.emit(EventOrderShown, OrderView{Items: items, SecondsRemaining: displaySeconds})
	orders.Generated(w.baseCtx, w.publisher, w.tick, w.orderRef(), orders.GeneratedPayload{
		Items:          foodStrings(items),
		DisplaySeconds: displaySeconds,
		ActiveSet:      foodStrings(w.cycle.ActiveFoodTypes()),
	})
	w.addMetric("orders_generated", 1)
}

func (w *World) onOrderHidden() {
	w.emit(EventOrderHidden, nil)
}

func (w *World) onTimerTick(secondsRemaining int) {
	w.emit(EventTimer, map[string]any{"secondsRemaining": secondsRemaining})
}

func (w *World) onOrderServed(result ScoreResult, remainingSeconds float64, served, ordered []FoodType) {
	w.ledger.AddLevelScore(w.baseCtx, result.Points)
	w.emit(EventScoreChanged, w.scoreView())
	w.emit(EventComboChanged, w.scoreView())
	orders.Served(w.baseCtx, w.publisher, w.tick, w.orderRef(), orders.ServedPayload{
		Ordered:          foodStrings(ordered),
		Served:           foodStrings(served),
		Perfect:          result.Perfect,
		Points:           result.Points,
		Multiplier:       result.Multiplier,
		RemainingSeconds: remainingSeconds,
	})
	w.addMetric("orders_served", 1)
	if result.Perfect {
		w.addMetric("orders_perfect", 1)
	}
	w.coord.OnOrderResolved(result.Perfect, served)
}

func (w *World) onOrderExpired(ordered []FoodType) {
	w.emit(EventComboChanged, w.scoreView())
	orders.Expired(w.baseCtx, w.publisher, w.tick, w.orderRef(), orders.ExpiredPayload{
		Ordered: foodStrings(ordered),
	})
	w.addMetric("orders_expired", 1)
	w.coord.OnOrderExpired()
}

func (w *World) onLevelComplete(ordersCompleted int) {
	w.coord.OnLevelComplete()
	w.ledger.RecordLevelCompleted(w.baseCtx, w.levelIndex)
	orders.LevelCompleted(w.baseCtx, w.publisher, w.tick, orders.LevelCompletedPayload{
		Level:           w.levelIndex,
		OrdersCompleted: ordersCompleted,
		LevelScore:      w.scorer.LevelScore(),
	})
	w.emit(EventLevelComplete, map[string]any{
		"level":      w.levelIndex,
		"levelScore": w.scorer.LevelScore(),
		"totalScore": w.ledger.TotalScore(),
	})
	w.advanceDelay = levelTransitionSeconds
	w.printf("level %d complete: score=%d total=%d", w.levelIndex, w.scorer.LevelScore(), w.ledger.TotalScore())
}

// Coordinator hooks.

func (w *World) onCustomerSpawned(c *Customer) {
	w.emit(EventCustomer, customerView(c))
	customers.Spawned(w.baseCtx, w.publisher, w.tick, customerRef(c), customers.SpawnedPayload{
		Variant:     c.Variant.Name,
		Patience:    c.Variant.Patience,
		OrderDelay:  c.Variant.OrderDelaySeconds,
		UnlockLevel: c.Variant.UnlockLevel,
	})
	w.addMetric("customers_spawned", 1)
}

func (w *World) onCustomerArrived(c *Customer) {
	w.emit(EventCustomer, customerView(c))
	customers.Arrived(w.baseCtx, w.publisher, w.tick, customerRef(c))
}

func (w *World) onCustomerPhase(c *Customer) {
	w.emit(EventCustomer, customerView(c))
	if c.Phase() == PhaseReacting {
		customers.Reacting(w.baseCtx, w.publisher, w.tick, customerRef(c), c.Happy())
	}
}

func (w *World) onCustomerExited(c *Customer) {
	w.emit(EventCustomer, customerView(c))
	customers.Exited(w.baseCtx, w.publisher, w.tick, customerRef(c), customers.ExitedPayload{Happy: c.Happy()})
	if c.Happy() {
		w.addMetric("customers_happy", 1)
	} else {
		w.addMetric("customers_unhappy", 1)
	}
}

func (w *World) onSpawnFailed(level int, err error) {
	w.printf("customer spawn failed at level %d: %v", level, err)
	customers.SpawnFailed(w.baseCtx, w.publisher, w.tick, customers.SpawnFailedPayload{Level: level})
	w.addMetric("spawn_failures", 1)
}

func (w *World) onRequestSkipped(c *Customer, reason string) {
	orders.GenerationSkipped(w.baseCtx, w.publisher, w.tick, customerRef(c), reason)
	w.addMetric("generation_skipped", 1)
}

func (w *World) scoreView() ScoreView {
	return ScoreView{
		LevelScore: w.scorer.LevelScore(),
		TotalScore: w.ledger.TotalScore(),
		Streak:     w.scorer.Streak(),
		Multiplier: w.scorer.Multiplier(),
	}
}

func (w *World) trayViews() []TrayView {
	active := make(map[FoodType]bool)
	for _, t := range w.trays.ActiveFoodTypes() {
		active[t] = true
	}
	views := make([]TrayView, 0, len(foodDefs))
	for _, t := range FullCatalog() {
		def, _ := DisplayDef(t)
		views = append(views, TrayView{
			Food:    t,
			Label:   def.Label,
			Icon:    def.Icon,
			Enabled: active[t],
		})
	}
	return views
}

func (w *World) plateView() PlateView {
	return PlateView{
		Items:    w.plate.ServedItemTypes(),
		Capacity: w.plate.Capacity(),
	}
}

func (w *World) emit(eventType string, data any) {
	w.events = append(w.events, Event{Type: eventType, Data: data})
}

func (w *World) orderRef() logging.EntityRef {
	id := ""
	if c := w.coord.Current(); c != nil {
		id = c.ID
	}
	return logging.EntityRef{ID: id, Kind: logging.EntityKindOrder}
}

func customerRef(c *Customer) logging.EntityRef {
	id := ""
	if c != nil {
		id = c.ID
	}
	return logging.EntityRef{ID: id, Kind: logging.EntityKindCustomer}
}

func customerView(c *Customer) CustomerView {
	view := CustomerView{
		ID:       c.ID,
		Phase:    c.Phase().String(),
		Progress: c.Progress(),
		Happy:    c.Happy(),
	}
	if c.Variant != nil {
		view.Variant = c.Variant.Name
		view.Animation = animationFor(c)
	}
	return view
}

// animationFor picks the walk clip matching the current phase and mood.
func animationFor(c *Customer) string {
	switch c.Phase() {
	case PhaseWalkingIn:
		return c.Variant.ArriveAnimation
	case PhaseWalkingOut, PhaseExited:
		if !c.Happy() && c.Variant.DepartSadAnimation != "" {
			return c.Variant.DepartSadAnimation
		}
		return c.Variant.DepartAnimation
	}
	return ""
}

func (w *World) addMetric(key string, delta uint64) {
	if w.metrics == nil {
		return
	}
	w.metrics.Add(key, delta)
}

func (w *World) printf(format string, args ...any) {
	if w.logger == nil {
		return
	}
	w.logger.Printf(format, args...)
}
