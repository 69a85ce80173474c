package bridge

import "fmt"

// Command is a request from the control loop to the worker.
// The set of commands is closed; see the types below.
type Command interface {
	isCommand()
}

// Scan discovers nearby devices and replaces the scan cache.
type Scan struct{}

// Connect opens a connection to the first cached device called Name,
// closing any existing connection first.
type Connect struct {
	Name string
}

// Disconnect closes the active connection.
type Disconnect struct{}

// Send writes Payload to the device without waiting for an acknowledgment.
type Send struct {
	Payload []byte
}

// Shutdown disconnects and stops the worker.
type Shutdown struct{}

func (Scan) isCommand()       {}
func (Connect) isCommand()    {}
func (Disconnect) isCommand() {}
func (Send) isCommand()       {}
func (Shutdown) isCommand()   {}

// SendText builds a Send carrying text as UTF-8 with no framing.
func SendText(text string) Send {
	return Send{Payload: []byte(text)}
}

func commandName(cmd Command) string {
	switch c := cmd.(type) {
	case Scan:
		return "scan"
	case Connect:
		return "connect"
	case Disconnect:
		return "disconnect"
	case Send:
		return "send"
	case Shutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("%T", c)
	}
}
