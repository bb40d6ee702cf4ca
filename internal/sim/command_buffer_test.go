package sim

import (
	"fmt"
	"testing"
)

func TestCommandBufferDrainPreservesFIFO(t *testing.T) {
	buffer := NewCommandBuffer(8, nil)
	for i := 0; i < 5; i++ {
		ok := buffer.Push(Command{ActorID: fmt.Sprintf("a%d", i), Type: CommandPlaceItem})
		if !ok {
			t.Fatalf("push %d failed", i)
		}
	}

	drained := buffer.Drain()
	if len(drained) != 5 {
		t.Fatalf("drained %d commands, want 5", len(drained))
	}
	for i, cmd := range drained {
		if want := fmt.Sprintf("a%d", i); cmd.ActorID != want {
			t.Fatalf("position %d has actor %s, want %s", i, cmd.ActorID, want)
		}
	}
	if buffer.Len() != 0 {
		t.Fatalf("buffer not empty after drain: %d", buffer.Len())
	}
}

func TestCommandBufferWrapsAround(t *testing.T) {
	buffer := NewCommandBuffer(4, nil)

	for i := 0; i < 3; i++ {
		buffer.Push(Command{ActorID: "warmup", Type: CommandServe})
	}
	buffer.Drain()

	for i := 0; i < 4; i++ {
		if !buffer.Push(Command{ActorID: fmt.Sprintf("w%d", i), Type: CommandServe}) {
			t.Fatalf("push %d failed after drain", i)
		}
	}
	drained := buffer.Drain()
	if len(drained) != 4 {
		t.Fatalf("drained %d, want 4", len(drained))
	}
	for i, cmd := range drained {
		if want := fmt.Sprintf("w%d", i); cmd.ActorID != want {
			t.Fatalf("position %d has actor %s, want %s", i, cmd.ActorID, want)
		}
	}
}

func TestCommandBufferRejectsWhenFull(t *testing.T) {
	buffer := NewCommandBuffer(2, nil)
	buffer.Push(Command{Type: CommandServe})
	buffer.Push(Command{Type: CommandServe})

	if buffer.Push(Command{Type: CommandServe}) {
		t.Fatalf("push succeeded on a full buffer")
	}
	if buffer.Len() != 2 {
		t.Fatalf("len = %d, want 2", buffer.Len())
	}
}

func TestCommandBufferDrainEmptyReturnsNil(t *testing.T) {
	buffer := NewCommandBuffer(4, nil)
	if drained := buffer.Drain(); drained != nil {
		t.Fatalf("drain on empty buffer returned %v", drained)
	}
}
