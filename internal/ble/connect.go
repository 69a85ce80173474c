package ble

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"tinygo.org/x/bluetooth"

	"github.com/vitaminmoo/blecon/internal/bridge"
	"github.com/vitaminmoo/blecon/internal/config"
)

// Transport drives the host Bluetooth adapter.
type Transport struct {
	adapter      *bluetooth.Adapter
	service      bluetooth.UUID
	scanDuration time.Duration
	log          *logrus.Logger
}

// New creates a Transport on the default adapter. The adapter is not
// touched until Enable is called.
func New(cfg *config.Config, log *logrus.Logger) (*Transport, error) {
	service, err := bluetooth.ParseUUID(cfg.Service)
	if err != nil {
		return nil, fmt.Errorf("invalid service UUID %q: %w", cfg.Service, err)
	}
	return &Transport{
		adapter:      bluetooth.DefaultAdapter,
		service:      service,
		scanDuration: cfg.ScanDuration,
		log:          log,
	}, nil
}

// Enable powers up the adapter.
func (t *Transport) Enable() error {
	return t.adapter.Enable()
}

// Discover scans for the configured duration and returns every device seen,
// in first-seen order. Devices are keyed by address; a name learned from a
// later advertisement fills in an earlier nameless sighting.
func (t *Transport) Discover(ctx context.Context) ([]bridge.DeviceDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.log.WithField("duration", t.scanDuration).Debug("Scanning")

	var (
		mu      sync.Mutex
		seen    = newSightings()
		stopped bool
	)

	timer := time.NewTimer(t.scanDuration)
	defer timer.Stop()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-timer.C:
		case <-ctx.Done():
		case <-done:
			return
		}
		mu.Lock()
		stopped = true
		mu.Unlock()
		stopScan(t.adapter, done, stopRetryInterval, t.log)
	}()

	err := t.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}

		name := result.LocalName()
		if seen.add(result.Address.String(), result.Address, name) {
			t.log.WithFields(logrus.Fields{
				"address": result.Address.String(),
				"name":    name,
				"rssi":    result.RSSI,
			}).Debug("Found device")
		}
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	return seen.descriptors(), nil
}

// stopRetryInterval paces StopScan retries while the scan is still starting.
const stopRetryInterval = 20 * time.Millisecond

type scanStopper interface {
	StopScan() error
}

// stopScan calls StopScan until it succeeds or done is closed. StopScan
// fails while Scan is still setting up, and a scan nobody stops never
// returns.
func stopScan(s scanStopper, done <-chan struct{}, retry time.Duration, log *logrus.Logger) {
	ticker := time.NewTicker(retry)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		err := s.StopScan()
		if err == nil {
			return
		}
		log.WithError(err).WithField("attempt", attempt).Debug("Stop scan")

		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}

// Connect opens a link to the device behind handle, which must come from
// Discover.
func (t *Transport) Connect(ctx context.Context, handle any) (bridge.Conn, error) {
	addr, ok := handle.(bluetooth.Address)
	if !ok {
		return nil, fmt.Errorf("unexpected device handle %T", handle)
	}

	t.log.WithField("address", addr.String()).Debug("Connecting")
	device, err := t.adapter.Connect(addr, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, err
	}
	return newConn(device, t.service, t.log), nil
}

// sightings accumulates scan results keyed by address.
type sightings struct {
	byAddr *orderedmap.OrderedMap[string, bridge.DeviceDescriptor]
}

func newSightings() *sightings {
	return &sightings{byAddr: orderedmap.New[string, bridge.DeviceDescriptor]()}
}

// add records a sighting and reports whether it told us something new.
func (s *sightings) add(key string, handle any, name string) bool {
	prev, ok := s.byAddr.Get(key)
	switch {
	case !ok:
		s.byAddr.Set(key, bridge.DeviceDescriptor{Name: name, Handle: handle})
		return true
	case prev.Name == "" && name != "":
		prev.Name = name
		s.byAddr.Set(key, prev)
		return true
	default:
		return false
	}
}

func (s *sightings) descriptors() []bridge.DeviceDescriptor {
	out := make([]bridge.DeviceDescriptor, 0, s.byAddr.Len())
	for pair := s.byAddr.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}
