package bridge

import "context"

// DeviceDescriptor is one discovered peripheral.
// Names are not unique; lookups use the first match.
type DeviceDescriptor struct {
	Name   string
	Handle any // transport specific, e.g. a bluetooth.Address
}

// Transport is the wireless stack the worker drives.
// All methods are called from the worker goroutine only.
type Transport interface {
	// Enable initializes the adapter. A failure here is fatal to the worker.
	Enable() error

	// Discover scans for a transport-defined duration and returns the
	// devices seen, in discovery order.
	Discover(ctx context.Context) ([]DeviceDescriptor, error)

	// Connect opens a connection to the device behind handle.
	Connect(ctx context.Context, handle any) (Conn, error)
}

// Conn is an open connection to one peripheral.
type Conn interface {
	// Subscribe delivers notifications on characteristic to handler.
	// The handler may be called from any goroutine.
	Subscribe(characteristic string, handler func([]byte)) error

	// Write sends payload to characteristic without response.
	Write(characteristic string, payload []byte) error

	Disconnect() error
}
