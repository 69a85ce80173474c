package bridge

import (
	"context"
	"errors"
	"sync"
)

// fakeTransport is a scripted Transport. Handles are plain strings.
type fakeTransport struct {
	mu sync.Mutex

	enableErr  error
	devices    []DeviceDescriptor
	scanErr    error
	connectErr map[string]error

	subscribeErr  error
	writeErr      error
	disconnectErr error

	scans    int
	connects []string
	conns    []*fakeConn
}

func newFakeTransport(devices ...DeviceDescriptor) *fakeTransport {
	return &fakeTransport{
		devices:    devices,
		connectErr: make(map[string]error),
	}
}

func named(names ...string) []DeviceDescriptor {
	out := make([]DeviceDescriptor, len(names))
	for i, n := range names {
		out[i] = DeviceDescriptor{Name: n, Handle: "addr-" + n}
	}
	return out
}

func (f *fakeTransport) Enable() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enableErr
}

func (f *fakeTransport) Discover(ctx context.Context) ([]DeviceDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	return append([]DeviceDescriptor(nil), f.devices...), nil
}

func (f *fakeTransport) Connect(ctx context.Context, handle any) (Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	addr, ok := handle.(string)
	if !ok {
		return nil, errors.New("bad handle")
	}
	f.connects = append(f.connects, addr)
	if err := f.connectErr[addr]; err != nil {
		return nil, err
	}
	c := &fakeConn{
		transport: f,
		addr:      addr,
	}
	f.conns = append(f.conns, c)
	return c, nil
}

func (f *fakeTransport) lastConn() *fakeConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.conns) == 0 {
		return nil
	}
	return f.conns[len(f.conns)-1]
}

type fakeConn struct {
	transport *fakeTransport
	addr      string

	mu          sync.Mutex
	handler     func([]byte)
	subscribed  string
	writes      [][]byte
	disconnects int
}

func (c *fakeConn) Subscribe(characteristic string, handler func([]byte)) error {
	c.transport.mu.Lock()
	err := c.transport.subscribeErr
	c.transport.mu.Unlock()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribed = characteristic
	c.handler = handler
	return nil
}

func (c *fakeConn) Write(characteristic string, payload []byte) error {
	c.transport.mu.Lock()
	err := c.transport.writeErr
	c.transport.mu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, append([]byte(nil), payload...))
	return err
}

func (c *fakeConn) Disconnect() error {
	c.transport.mu.Lock()
	err := c.transport.disconnectErr
	c.transport.mu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnects++
	return err
}

// notify simulates the peripheral pushing data.
func (c *fakeConn) notify(data []byte) {
	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()
	if h != nil {
		h(data)
	}
}

func (c *fakeConn) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes)
}

func (c *fakeConn) disconnectCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnects
}
