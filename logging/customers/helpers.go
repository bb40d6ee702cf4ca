package customers

import (
	"context"

	"short-order/server/logging"
)

const (
	// EventSpawned is emitted when the coordinator instantiates a customer.
	EventSpawned logging.EventType = "customer.spawned"
	// EventArrived is emitted when a customer reaches the service point.
	EventArrived logging.EventType = "customer.arrived"
	// EventReacting is emitted when the customer starts its reaction.
	EventReacting logging.EventType = "customer.reacting"
	// EventExited is emitted when the customer finishes walking out.
	EventExited logging.EventType = "customer.exited"
	// EventSpawnFailed is emitted when no variant is unlocked for the level.
	EventSpawnFailed logging.EventType = "customer.spawn_failed"
)

// SpawnedPayload describes the selected variant.
type SpawnedPayload struct {
	Variant     string  `json:"variant"`
	Patience    float64 `json:"patience"`
	OrderDelay  float64 `json:"orderDelay"`
	UnlockLevel int     `json:"unlockLevel"`
}

// ExitedPayload records the mood the customer left with.
type ExitedPayload struct {
	Happy bool `json:"happy"`
}

// SpawnFailedPayload names the level that had no eligible variant.
type SpawnFailedPayload struct {
	Level int `json:"level"`
}

func Spawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SpawnedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventSpawned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

func Arrived(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	publish(ctx, pub, logging.Event{
		Type:     EventArrived,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
	})
}

func Reacting(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, happy bool) {
	publish(ctx, pub, logging.Event{
		Type:     EventReacting,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
		Payload:  ExitedPayload{Happy: happy},
	})
}

func Exited(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ExitedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventExited,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

func SpawnFailed(ctx context.Context, pub logging.Publisher, tick uint64, payload SpawnFailedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventSpawnFailed,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityError,
		Category: logging.CategorySystem,
		Payload:  payload,
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, event)
}
