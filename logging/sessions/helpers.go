package sessions

import (
	"context"

	"short-order/server/logging"
)

const (
	// EventStarted is emitted when a new session record is created.
	EventStarted logging.EventType = "session.started"
	// EventScoreAdded is emitted when level score is folded into the total.
	EventScoreAdded logging.EventType = "session.score_added"
	// EventLevelRecorded is emitted when a level completion is persisted.
	EventLevelRecorded logging.EventType = "session.level_recorded"
	// EventCompleted is emitted when the session is closed out.
	EventCompleted logging.EventType = "session.completed"
	// EventPersistFailed is emitted on a best-effort write failure.
	EventPersistFailed logging.EventType = "session.persist_failed"
)

// ScorePayload carries the delta and the resulting total.
type ScorePayload struct {
	Delta int `json:"delta"`
	Total int `json:"total"`
}

// LevelPayload carries cross-level progress counters.
type LevelPayload struct {
	CurrentLevel    int `json:"currentLevel"`
	LevelsCompleted int `json:"levelsCompleted"`
}

// FailurePayload carries the ignored persistence error.
type FailurePayload struct {
	Op    string `json:"op"`
	Error string `json:"error"`
}

func Started(ctx context.Context, pub logging.Publisher, actor logging.EntityRef) {
	publish(ctx, pub, logging.Event{
		Type:     EventStarted,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySession,
	})
}

func ScoreAdded(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload ScorePayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventScoreAdded,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySession,
		Payload:  payload,
	})
}

func LevelRecorded(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload LevelPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventLevelRecorded,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySession,
		Payload:  payload,
	})
}

func Completed(ctx context.Context, pub logging.Publisher, actor logging.EntityRef) {
	publish(ctx, pub, logging.Event{
		Type:     EventCompleted,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySession,
	})
}

func PersistFailed(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, op string, err error) {
	if err == nil {
		return
	}
	publish(ctx, pub, logging.Event{
		Type:     EventPersistFailed,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySession,
		Payload:  FailurePayload{Op: op, Error: err.Error()},
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, event)
}
