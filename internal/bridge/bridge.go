package bridge

import (
	"bytes"
	"context"
	"runtime/pprof"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/vitaminmoo/blecon/internal/config"
)

// Bridge connects a non-blocking control loop to the device worker.
//
// The control loop talks to the worker only through Submit and
// DrainMessages. Neither call blocks. ShutdownAndJoin is the one blocking
// call and is meant for process exit.
type Bridge struct {
	commands *CommandQueue
	messages *MessageQueue
	worker   *Worker
	log      *logrus.Logger

	pending  atomic.Int64 // submitted but not yet executed
	started  atomic.Bool
	closed   atomic.Bool
	done     chan struct{}
	shutdown sync.Once
}

// New creates a bridge over transport. Call Start to launch the worker.
func New(transport Transport, cfg *config.Config, log *logrus.Logger) *Bridge {
	if log == nil {
		log = logrus.New()
	}

	b := &Bridge{
		commands: NewCommandQueue(),
		messages: NewMessageQueue(cfg.MessageCap),
		log:      log,
		done:     make(chan struct{}),
	}
	b.worker = newWorker(transport, cfg, log, b.commands, b.messages, &b.pending)
	return b
}

// Start launches the worker goroutine. Cancelling ctx shuts the worker
// down as if Shutdown had been submitted. Calling Start twice is a no-op.
func (b *Bridge) Start(ctx context.Context) {
	if !b.started.CompareAndSwap(false, true) {
		return
	}

	labels := pprof.Labels("goroutine_name", "bridge-worker")
	go pprof.Do(ctx, labels, func(ctx context.Context) {
		defer close(b.done)
		defer b.closed.Store(true)
		b.worker.run(ctx)
	})
}

// Submit enqueues cmd for the worker. It never blocks. Commands submitted
// after the worker has stopped are dropped.
func (b *Bridge) Submit(cmd Command) {
	if b.closed.Load() {
		b.log.WithField("cmd", commandName(cmd)).Debug("Bridge closed, command ignored")
		return
	}
	if s, ok := cmd.(Send); ok {
		cmd = Send{Payload: bytes.Clone(s.Payload)}
	}
	b.pending.Add(1)
	b.commands.Push(cmd)
}

// DrainMessages returns every message currently queued, oldest first.
func (b *Bridge) DrainMessages() []Message {
	return b.messages.DrainAll()
}

// Busy reports whether submitted commands are still waiting or running.
func (b *Bridge) Busy() bool {
	return !b.closed.Load() && b.pending.Load() > 0
}

// State returns the worker's most recent lifecycle state.
func (b *Bridge) State() State {
	if b.closed.Load() {
		return StateClosed
	}
	return State(b.worker.shared.Load())
}

// Dropped returns how many messages were evicted because the control
// loop did not drain them in time.
func (b *Bridge) Dropped() int64 {
	return b.messages.Dropped()
}

// Done is closed once the worker has terminated.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

// ShutdownAndJoin asks the worker to disconnect and stop, then waits for
// its goroutine to return. It is safe to call more than once.
func (b *Bridge) ShutdownAndJoin() {
	if b.started.CompareAndSwap(false, true) {
		// Never started: nothing to join.
		b.closed.Store(true)
		close(b.done)
		return
	}

	b.shutdown.Do(func() {
		b.Submit(Shutdown{})
	})
	<-b.done
}
