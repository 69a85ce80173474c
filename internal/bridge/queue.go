package bridge

import (
	"sync"
	"sync/atomic"
)

// CommandQueue is an unbounded FIFO of commands.
// Push never blocks; the consumer polls with TryPop and may wait on Ready.
type CommandQueue struct {
	mu    sync.Mutex
	items []Command
	ready chan struct{}
}

// NewCommandQueue creates an empty queue.
func NewCommandQueue() *CommandQueue {
	return &CommandQueue{ready: make(chan struct{}, 1)}
}

// Push appends cmd and wakes a waiting consumer.
func (q *CommandQueue) Push(cmd Command) {
	q.mu.Lock()
	q.items = append(q.items, cmd)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// TryPop removes the oldest command without blocking.
func (q *CommandQueue) TryPop() (Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}
	cmd := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return cmd, true
}

// Ready receives a value after at least one Push since the last receive.
// It may fire spuriously; always follow it with TryPop.
func (q *CommandQueue) Ready() <-chan struct{} {
	return q.ready
}

// Len returns the number of queued commands.
func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// MessageQueue is a bounded FIFO of messages with drop-oldest semantics.
//
// It wraps a buffered channel: producers never block, and once the buffer
// holds capacity messages each Push evicts the oldest one.
type MessageQueue struct {
	ch      chan Message
	dropped atomic.Int64
}

// NewMessageQueue creates a queue retaining at most capacity messages.
func NewMessageQueue(capacity int) *MessageQueue {
	if capacity <= 0 {
		panic("bridge: message queue capacity must be > 0")
	}
	return &MessageQueue{ch: make(chan Message, capacity)}
}

// Push inserts msg, discarding the oldest message if the queue is full.
// It reports whether a message was evicted.
func (q *MessageQueue) Push(msg Message) (evicted bool) {
	for {
		select {
		case q.ch <- msg:
			return evicted
		default:
		}
		select {
		case <-q.ch: // drop oldest
			q.dropped.Add(1)
			evicted = true
		default:
		}
	}
}

// DrainAll returns the queued messages in arrival order without blocking.
// At most Cap messages are returned per call.
func (q *MessageQueue) DrainAll() []Message {
	var out []Message
	for i := 0; i < q.Cap(); i++ {
		select {
		case msg := <-q.ch:
			out = append(out, msg)
		default:
			return out
		}
	}
	return out
}

// Len returns the number of buffered messages.
func (q *MessageQueue) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *MessageQueue) Cap() int {
	return cap(q.ch)
}

// Dropped returns the number of messages evicted so far.
func (q *MessageQueue) Dropped() int64 {
	return q.dropped.Load()
}
