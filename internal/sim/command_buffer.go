package sim

import (
	"sync"

	"short-order/server/internal/telemetry"
)

// CommandBuffer is a fixed-capacity ring buffer of staged commands. Pushes
// fail when full; the loop reports the drop upstream.
type CommandBuffer struct {
	mu       sync.Mutex
	entries  []Command
	head     int
	length   int
	capacity int
	metrics  telemetry.Metrics
}

func NewCommandBuffer(capacity int, metrics telemetry.Metrics) *CommandBuffer {
	if capacity <= 0 {
		capacity = 256
	}
	return &CommandBuffer{
		entries:  make([]Command, capacity),
		capacity: capacity,
		metrics:  metrics,
	}
}

// Push stages a command, returning false when the buffer is full.
func (b *CommandBuffer) Push(cmd Command) bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.length >= b.capacity {
		if b.metrics != nil {
			b.metrics.Add("command_buffer_overflow", 1)
		}
		return false
	}
	tail := (b.head + b.length) % b.capacity
	b.entries[tail] = cmd
	b.length++
	if b.metrics != nil {
		b.metrics.Add("commands_enqueued", 1)
	}
	return true
}

// Drain removes and returns every staged command in FIFO order.
func (b *CommandBuffer) Drain() []Command {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.length == 0 {
		return nil
	}
	out := make([]Command, b.length)
	for i := 0; i < b.length; i++ {
		out[i] = b.entries[(b.head+i)%b.capacity]
	}
	b.head = 0
	b.length = 0
	return out
}

// Len reports the number of staged commands.
func (b *CommandBuffer) Len() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.length
}
