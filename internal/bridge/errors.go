package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceNotFound means the requested name is not in the latest scan.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrNotConnected means the command needs an active connection.
	ErrNotConnected = errors.New("not connected")
)

// Op names the device operation an OpError came from.
type Op string

const (
	OpScan       Op = "scan"
	OpConnect    Op = "connect"
	OpSubscribe  Op = "subscribe"
	OpWrite      Op = "write"
	OpDisconnect Op = "disconnect"
)

// OpError is a transport failure during one device operation.
// Its message is the line reported to the control loop.
type OpError struct {
	Op  Op
	Err error
}

func (e *OpError) Error() string {
	switch e.Op {
	case OpSubscribe:
		// Subscribing is the second half of a connect.
		return fmt.Sprintf("connect failed: subscribe: %v", e.Err)
	case OpWrite:
		return fmt.Sprintf("send failed: %v", e.Err)
	default:
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
}

func (e *OpError) Unwrap() error {
	return e.Err
}
