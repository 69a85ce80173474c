package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcuadros/go-defaults"
	"gopkg.in/yaml.v3"
)

// bluetoothBaseUUID is the suffix used to expand 16-bit GATT identifiers.
const bluetoothBaseUUID = "-0000-1000-8000-00805f9b34fb"

// MinScanDuration is the shortest scan window accepted.
const MinScanDuration = 100 * time.Millisecond

// Config holds the console and bridge settings.
type Config struct {
	// Service and Characteristic address the UART endpoint on the peripheral.
	// The same characteristic carries outbound writes and inbound notifications.
	Service        string `yaml:"service" default:"0000ffe0-0000-1000-8000-00805f9b34fb"`
	Characteristic string `yaml:"characteristic" default:"0000ffe1-0000-1000-8000-00805f9b34fb"`

	ScanDuration time.Duration `yaml:"scan_duration" default:"5s"`
	PollInterval time.Duration `yaml:"poll_interval" default:"100ms"`

	MessageCap   int `yaml:"message_cap" default:"20"`
	NotifyBuffer int `yaml:"notify_buffer" default:"64"`
	FrameRate    int `yaml:"frame_rate" default:"60"`

	QuickPayload string `yaml:"quick_payload" default:"GOGOGOGO"`

	LogLevel string `yaml:"log_level" default:"warn"`
	LogFile  string `yaml:"log_file"`
}

// Default returns a Config with every field set to its default.
func Default() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// DefaultPath returns the default config path (~/.blecon/config.yaml).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".blecon", "config.yaml"), nil
}

// Load reads the config file at path on top of the defaults.
// An empty path falls back to DefaultPath, which may be absent.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config and normalizes the GATT identifiers to their
// 128-bit lowercase form.
func (c *Config) Validate() error {
	service, err := ExpandUUID(c.Service)
	if err != nil {
		return fmt.Errorf("invalid service: %w", err)
	}
	char, err := ExpandUUID(c.Characteristic)
	if err != nil {
		return fmt.Errorf("invalid characteristic: %w", err)
	}
	c.Service, c.Characteristic = service, char

	switch {
	case c.ScanDuration < MinScanDuration:
		return fmt.Errorf("scan_duration must be at least %s, got %s", MinScanDuration, c.ScanDuration)
	case c.PollInterval <= 0:
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	case c.MessageCap <= 0:
		return fmt.Errorf("message_cap must be positive, got %d", c.MessageCap)
	case c.NotifyBuffer <= 0:
		return fmt.Errorf("notify_buffer must be positive, got %d", c.NotifyBuffer)
	case c.FrameRate <= 0:
		return fmt.Errorf("frame_rate must be positive, got %d", c.FrameRate)
	}
	return nil
}

// FrameInterval is the control loop period derived from FrameRate.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FrameRate)
}

// ExpandUUID accepts a 16-bit ("ffe1"), 32-bit or full 128-bit GATT UUID and
// returns the canonical 128-bit string.
func ExpandUUID(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0x")
	switch len(s) {
	case 4:
		s = "0000" + s + bluetoothBaseUUID
	case 8:
		s += bluetoothBaseUUID
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%q: %w", s, err)
	}
	return u.String(), nil
}
