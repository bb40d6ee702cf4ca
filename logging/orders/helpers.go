package orders

import (
	"context"

	"short-order/server/logging"
)

const (
	// EventGenerated is emitted when a new order is generated and displayed.
	EventGenerated logging.EventType = "order.generated"
	// EventServed is emitted when the player resolves an order by serving.
	EventServed logging.EventType = "order.served"
	// EventExpired is emitted when the countdown runs out before a serve.
	EventExpired logging.EventType = "order.expired"
	// EventGenerationSkipped is emitted when a generation request is dropped
	// by the admission guards or an empty active set.
	EventGenerationSkipped logging.EventType = "order.generation_skipped"
	// EventLevelCompleted is emitted when the level order quota is met.
	EventLevelCompleted logging.EventType = "order.level_completed"
)

// GeneratedPayload captures the contents of a freshly displayed order.
type GeneratedPayload struct {
	Items          []string `json:"items"`
	DisplaySeconds float64  `json:"displaySeconds"`
	ActiveSet      []string `json:"activeSet"`
}

// ServedPayload captures a resolution outcome.
type ServedPayload struct {
	Ordered          []string `json:"ordered"`
	Served           []string `json:"served"`
	Perfect          bool     `json:"perfect"`
	Points           int      `json:"points"`
	Multiplier       int      `json:"multiplier"`
	RemainingSeconds float64  `json:"remainingSeconds"`
}

// ExpiredPayload captures a timed-out order.
type ExpiredPayload struct {
	Ordered []string `json:"ordered"`
}

// SkippedPayload names the guard that absorbed a generation request.
type SkippedPayload struct {
	Reason string `json:"reason"`
}

// LevelCompletedPayload captures end-of-level totals.
type LevelCompletedPayload struct {
	Level           int `json:"level"`
	OrdersCompleted int `json:"ordersCompleted"`
	LevelScore      int `json:"levelScore"`
}

func Generated(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload GeneratedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventGenerated,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

func Served(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ServedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventServed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryScoring,
		Payload:  payload,
	})
}

func Expired(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ExpiredPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventExpired,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

func GenerationSkipped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, reason string) {
	publish(ctx, pub, logging.Event{
		Type:     EventGenerationSkipped,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
		Payload:  SkippedPayload{Reason: reason},
	})
}

func LevelCompleted(ctx context.Context, pub logging.Publisher, tick uint64, payload LevelCompletedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventLevelCompleted,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, event)
}
