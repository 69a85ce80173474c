package ble

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"
)

// Conn is an open link to one peripheral. Characteristics are discovered
// on first use and cached for the life of the link.
type Conn struct {
	device  bluetooth.Device
	service bluetooth.UUID
	log     *logrus.Logger

	chars map[bluetooth.UUID]*bluetooth.DeviceCharacteristic
}

func newConn(device bluetooth.Device, service bluetooth.UUID, log *logrus.Logger) *Conn {
	return &Conn{
		device:  device,
		service: service,
		log:     log,
		chars:   make(map[bluetooth.UUID]*bluetooth.DeviceCharacteristic),
	}
}

// Subscribe enables notifications on characteristic and passes every
// notification to handler. The handler runs on a Bluetooth stack goroutine.
func (c *Conn) Subscribe(characteristic string, handler func([]byte)) error {
	char, err := c.characteristic(characteristic)
	if err != nil {
		return err
	}
	return char.EnableNotifications(handler)
}

// Write sends payload as a write without response.
func (c *Conn) Write(characteristic string, payload []byte) error {
	char, err := c.characteristic(characteristic)
	if err != nil {
		return err
	}
	n, err := char.WriteWithoutResponse(payload)
	if err != nil {
		return err
	}
	c.log.WithField("bytes", n).Debug("Wrote payload")
	return nil
}

// Disconnect closes the link.
func (c *Conn) Disconnect() error {
	c.chars = nil
	return c.device.Disconnect()
}

func (c *Conn) characteristic(id string) (*bluetooth.DeviceCharacteristic, error) {
	want, err := bluetooth.ParseUUID(id)
	if err != nil {
		return nil, fmt.Errorf("invalid characteristic UUID %q: %w", id, err)
	}
	if char, ok := c.chars[want]; ok {
		return char, nil
	}
	if c.chars == nil {
		return nil, fmt.Errorf("connection closed")
	}

	c.log.WithField("service", c.service.String()).Debug("Discovering services")
	services, err := c.device.DiscoverServices([]bluetooth.UUID{c.service})
	if err != nil {
		return nil, fmt.Errorf("discover services: %w", err)
	}

	var svc *bluetooth.DeviceService
	for i := range services {
		if services[i].UUID() == c.service {
			svc = &services[i]
			break
		}
	}
	if svc == nil {
		return nil, fmt.Errorf("service %s not found", c.service.String())
	}

	chars, err := svc.DiscoverCharacteristics(nil)
	if err != nil {
		return nil, fmt.Errorf("discover characteristics: %w", err)
	}
	for i := range chars {
		c.log.WithField("uuid", chars[i].UUID().String()).Debug("Found characteristic")
		c.chars[chars[i].UUID()] = &chars[i]
	}

	char, ok := c.chars[want]
	if !ok {
		return nil, fmt.Errorf("characteristic %s not found", strings.ToLower(id))
	}
	return char, nil
}
