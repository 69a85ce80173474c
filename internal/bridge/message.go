package bridge

import (
	"fmt"
	"strings"

	"github.com/vitaminmoo/blecon/internal/util"
)

// Message is a report from the worker to the control loop.
type Message interface {
	isMessage()
}

// Info is a human readable status or failure line.
type Info struct {
	Text string
}

// Sent confirms that Payload was handed to the transport.
type Sent struct {
	Payload []byte
}

// Received carries a decoded notification from the device.
type Received struct {
	Payload string
}

// ScanResult lists discovered device names in discovery order.
type ScanResult struct {
	Names []string
}

func (Info) isMessage()       {}
func (Sent) isMessage()       {}
func (Received) isMessage()   {}
func (ScanResult) isMessage() {}

// Tag returns the log tag shown in front of a message.
func Tag(msg Message) string {
	switch msg.(type) {
	case Info:
		return "[system]"
	case Sent:
		return "[sent]"
	case Received:
		return "[recv]"
	case ScanResult:
		return "[scan]"
	default:
		return "[?]"
	}
}

// Text returns the body of a message as a single line.
func Text(msg Message) string {
	switch m := msg.(type) {
	case Info:
		return m.Text
	case Sent:
		return util.FormatPayload(m.Payload)
	case Received:
		return m.Payload
	case ScanResult:
		if len(m.Names) == 0 {
			return "no devices found"
		}
		return strings.Join(m.Names, ", ")
	default:
		return fmt.Sprintf("%v", msg)
	}
}

// Format renders a message as "<tag> <text>".
func Format(msg Message) string {
	return Tag(msg) + " " + Text(msg)
}
