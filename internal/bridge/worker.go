package bridge

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/vitaminmoo/blecon/internal/config"
	"github.com/vitaminmoo/blecon/internal/util"
)

// Worker owns the device connection. Everything below the queues is
// touched only by the goroutine running run, so none of it is locked.
type Worker struct {
	transport Transport
	commands  *CommandQueue
	messages  *MessageQueue
	inbound   chan []byte
	pending   *atomic.Int64
	log       *logrus.Logger

	characteristic string
	pollInterval   time.Duration

	state  State
	shared atomic.Int32 // copy of state readable from other goroutines

	cache  *orderedmap.OrderedMap[string, DeviceDescriptor] // latest scan, name -> first descriptor
	conn   Conn
	device string
}

func newWorker(transport Transport, cfg *config.Config, log *logrus.Logger, commands *CommandQueue, messages *MessageQueue, pending *atomic.Int64) *Worker {
	return &Worker{
		transport:      transport,
		commands:       commands,
		messages:       messages,
		inbound:        make(chan []byte, cfg.NotifyBuffer),
		pending:        pending,
		log:            log,
		characteristic: cfg.Characteristic,
		pollInterval:   cfg.PollInterval,
		state:          StateIdle,
		cache:          orderedmap.New[string, DeviceDescriptor](),
	}
}

// run is the worker's scheduling loop. Commands run one at a time to
// completion; notifications are delivered only between commands.
func (w *Worker) run(ctx context.Context) {
	if err := w.transport.Enable(); err != nil {
		w.log.WithError(err).Error("Failed to enable Bluetooth")
		w.emit(Info{Text: fmt.Sprintf("bluetooth init failed: %v", err)})
		w.setState(StateClosed)
		return
	}
	w.log.Debug("Bridge worker started")

	timer := time.NewTimer(w.pollInterval)
	defer timer.Stop()

	for {
		w.deliverPending()

		if cmd, ok := w.commands.TryPop(); ok {
			stop := w.execute(ctx, cmd)
			w.pending.Add(-1)
			if stop {
				return
			}
			continue
		}

		timer.Reset(w.pollInterval)
		select {
		case <-ctx.Done():
			w.log.Debug("Context cancelled, shutting down")
			w.shutdown()
			return
		case <-w.commands.Ready():
		case data := <-w.inbound:
			w.deliver(data)
		case <-timer.C:
		}
	}
}

// execute runs one command and reports whether the loop must stop.
func (w *Worker) execute(ctx context.Context, cmd Command) (stop bool) {
	w.log.WithFields(logrus.Fields{
		"cmd":   commandName(cmd),
		"state": w.state,
	}).Debug("Executing command")

	var err error
	switch c := cmd.(type) {
	case Scan:
		err = w.scan(ctx)
	case Connect:
		err = w.connect(ctx, c.Name)
	case Disconnect:
		err = w.disconnect()
	case Send:
		err = w.send(c.Payload)
	case Shutdown:
		w.shutdown()
		return true
	default:
		err = fmt.Errorf("unknown command %T", cmd)
	}

	if err != nil {
		w.fail(cmd, err)
	}
	return false
}

func (w *Worker) scan(ctx context.Context) error {
	if w.state == StateIdle {
		w.setState(StateScanning)
		defer w.setState(StateIdle)
	}

	found, err := w.transport.Discover(ctx)
	if err != nil {
		return &OpError{Op: OpScan, Err: err}
	}

	cache := orderedmap.New[string, DeviceDescriptor]()
	names := make([]string, 0, len(found))
	for _, d := range found {
		if d.Name == "" {
			continue
		}
		names = append(names, d.Name)
		if _, exists := cache.Get(d.Name); !exists {
			cache.Set(d.Name, d)
		}
	}
	w.cache = cache

	if w.log.IsLevelEnabled(logrus.DebugLevel) {
		for pair := cache.Oldest(); pair != nil; pair = pair.Next() {
			w.log.WithFields(logrus.Fields{
				"device": pair.Key,
				"handle": fmt.Sprint(pair.Value.Handle),
			}).Debug("Cached device")
		}
	}

	w.emit(ScanResult{Names: names})
	w.emit(Info{Text: fmt.Sprintf("scan complete, found %d devices", len(names))})
	return nil
}

func (w *Worker) connect(ctx context.Context, name string) error {
	if w.state == StateConnected {
		if err := w.disconnect(); err != nil {
			w.fail(Disconnect{}, err)
		}
	}

	target, ok := w.cache.Get(name)
	if !ok {
		return ErrDeviceNotFound
	}

	w.setState(StateConnecting)
	conn, err := w.transport.Connect(ctx, target.Handle)
	if err != nil {
		w.setState(StateIdle)
		return &OpError{Op: OpConnect, Err: err}
	}

	if err := conn.Subscribe(w.characteristic, w.onNotify); err != nil {
		if derr := conn.Disconnect(); derr != nil {
			w.log.WithError(derr).Debug("Disconnect after failed subscribe")
		}
		w.setState(StateIdle)
		return &OpError{Op: OpSubscribe, Err: err}
	}

	w.conn = conn
	w.device = name
	w.setState(StateConnected)
	w.emit(Info{Text: "connected to " + name})
	return nil
}

// disconnect always leaves the worker Idle with no handle, whether or not
// the transport closed cleanly.
func (w *Worker) disconnect() error {
	if w.conn == nil {
		return ErrNotConnected
	}

	w.setState(StateDisconnecting)
	err := w.conn.Disconnect()
	w.log.WithField("device", w.device).Debug("Connection released")
	w.conn = nil
	w.device = ""
	w.setState(StateIdle)

	if err != nil {
		return &OpError{Op: OpDisconnect, Err: err}
	}
	w.emit(Info{Text: "disconnected"})
	return nil
}

func (w *Worker) send(payload []byte) error {
	if w.state != StateConnected || w.conn == nil {
		return ErrNotConnected
	}

	if w.log.IsLevelEnabled(logrus.DebugLevel) {
		w.log.WithField("bytes", len(payload)).Debugf("Writing payload\n%s", util.HexDump(payload))
	}
	if err := w.conn.Write(w.characteristic, payload); err != nil {
		return &OpError{Op: OpWrite, Err: err}
	}
	w.emit(Sent{Payload: payload})
	return nil
}

func (w *Worker) shutdown() {
	if w.conn != nil {
		if err := w.disconnect(); err != nil {
			w.fail(Disconnect{}, err)
		}
	}
	w.setState(StateClosed)
	w.log.Debug("Bridge worker stopped")
}

// onNotify is the transport callback. It runs on a transport goroutine
// and only hands the bytes over to the worker.
func (w *Worker) onNotify(buf []byte) {
	data := bytes.Clone(buf)
	select {
	case w.inbound <- data:
	default:
		w.log.WithField("bytes", len(buf)).Warn("Inbound buffer full, notification dropped")
	}
}

// deliverPending drains notifications that arrived while a command ran.
func (w *Worker) deliverPending() {
	for i := 0; i < cap(w.inbound); i++ {
		select {
		case data := <-w.inbound:
			w.deliver(data)
		default:
			return
		}
	}
}

func (w *Worker) deliver(data []byte) {
	if w.log.IsLevelEnabled(logrus.DebugLevel) {
		w.log.WithField("bytes", len(data)).Debugf("Notification received\n%s", util.HexDump(data))
	}
	w.emit(Received{Payload: decodeText(data)})
}

func (w *Worker) fail(cmd Command, err error) {
	w.log.WithFields(logrus.Fields{
		"cmd":   commandName(cmd),
		"state": w.state,
	}).WithError(err).Warn("Command failed")
	w.emit(Info{Text: err.Error()})
}

func (w *Worker) emit(msg Message) {
	if w.messages.Push(msg) {
		w.log.WithField("dropped", w.messages.Dropped()).Debug("Message queue full, evicted oldest")
	}
}

func (w *Worker) setState(s State) {
	if s == w.state {
		return
	}
	w.log.WithFields(logrus.Fields{
		"from": w.state,
		"to":   s,
	}).Debug("State transition")
	w.state = s
	w.shared.Store(int32(s))
}
