package sim

import (
	"testing"
	"time"
)

// recordingCore captures what the loop feeds it.
type recordingCore struct {
	applied [][]Command
	steps   []TickContext
}

func (c *recordingCore) Apply(cmds []Command) error {
	c.applied = append(c.applied, cmds)
	return nil
}

func (c *recordingCore) Step(ctx TickContext) {
	c.steps = append(c.steps, ctx)
}

func newTestLoop(core EngineCore, cfg LoopConfig, hooks LoopHooks) *Loop {
	return NewLoop(core, cfg, hooks, nil, nil, nil)
}

func TestAdvanceAppliesDrainedCommandsThenSteps(t *testing.T) {
	core := &recordingCore{}
	loop := newTestLoop(core, DefaultLoopConfig(), LoopHooks{})

	loop.Enqueue(Command{ActorID: "p1", Type: CommandPlaceItem})
	loop.Enqueue(Command{ActorID: "p1", Type: CommandServe})

	result := loop.Advance(TickContext{Tick: 1, Now: time.Now(), Delta: 0.05})

	if len(core.applied) != 1 || len(core.applied[0]) != 2 {
		t.Fatalf("applied batches = %v, want one batch of two", core.applied)
	}
	if len(core.steps) != 1 || core.steps[0].Tick != 1 {
		t.Fatalf("steps = %v, want one step at tick 1", core.steps)
	}
	if len(result.Commands) != 2 {
		t.Fatalf("result carried %d commands, want 2", len(result.Commands))
	}
	if loop.Pending() != 0 {
		t.Fatalf("pending = %d after advance, want 0", loop.Pending())
	}
}

func TestEnqueueThrottlesPerActor(t *testing.T) {
	cfg := DefaultLoopConfig()
	cfg.PerActorLimit = 2

	var drops []string
	loop := newTestLoop(&recordingCore{}, cfg, LoopHooks{
		OnCommandDrop: func(reason string, cmd Command) {
			drops = append(drops, reason)
		},
	})

	for i := 0; i < 4; i++ {
		loop.Enqueue(Command{ActorID: "spammer", Type: CommandServe})
	}
	if ok, _ := loop.Enqueue(Command{ActorID: "other", Type: CommandServe}); !ok {
		t.Fatalf("other actor throttled by spammer's backlog")
	}

	if len(drops) != 2 {
		t.Fatalf("drops = %v, want 2 queue_limit drops", drops)
	}
	for _, reason := range drops {
		if reason != CommandRejectQueueLimit {
			t.Fatalf("drop reason = %s, want %s", reason, CommandRejectQueueLimit)
		}
	}
	if loop.Pending() != 3 {
		t.Fatalf("pending = %d, want 3", loop.Pending())
	}
}

func TestPerActorCountResetsAfterAdvance(t *testing.T) {
	cfg := DefaultLoopConfig()
	cfg.PerActorLimit = 1
	loop := newTestLoop(&recordingCore{}, cfg, LoopHooks{})

	if ok, _ := loop.Enqueue(Command{ActorID: "p1", Type: CommandServe}); !ok {
		t.Fatalf("first enqueue rejected")
	}
	if ok, _ := loop.Enqueue(Command{ActorID: "p1", Type: CommandServe}); ok {
		t.Fatalf("second enqueue accepted over the limit")
	}

	loop.Advance(TickContext{Tick: 1, Now: time.Now(), Delta: 0.05})

	if ok, _ := loop.Enqueue(Command{ActorID: "p1", Type: CommandServe}); !ok {
		t.Fatalf("enqueue rejected after the per-tick window reset")
	}
}

func TestEnqueueRejectsWhenBufferFull(t *testing.T) {
	cfg := DefaultLoopConfig()
	cfg.CommandCapacity = 2
	cfg.PerActorLimit = 0
	loop := newTestLoop(&recordingCore{}, cfg, LoopHooks{})

	loop.Enqueue(Command{ActorID: "a", Type: CommandServe})
	loop.Enqueue(Command{ActorID: "b", Type: CommandServe})

	ok, reason := loop.Enqueue(Command{ActorID: "c", Type: CommandServe})
	if ok {
		t.Fatalf("enqueue succeeded on a full buffer")
	}
	if reason != CommandRejectQueueFull {
		t.Fatalf("reason = %s, want %s", reason, CommandRejectQueueFull)
	}
}
