package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "0000ffe0-0000-1000-8000-00805f9b34fb", cfg.Service)
	assert.Equal(t, "0000ffe1-0000-1000-8000-00805f9b34fb", cfg.Characteristic)
	assert.Equal(t, 5*time.Second, cfg.ScanDuration)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 20, cfg.MessageCap)
	assert.Equal(t, 64, cfg.NotifyBuffer)
	assert.Equal(t, 60, cfg.FrameRate)
	assert.Equal(t, "GOGOGOGO", cfg.QuickPayload)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Empty(t, cfg.LogFile)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "characteristic: FFE2\nscan_duration: 2s\nmessage_cap: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0000ffe2-0000-1000-8000-00805f9b34fb", cfg.Characteristic)
	assert.Equal(t, 2*time.Second, cfg.ScanDuration)
	assert.Equal(t, 5, cfg.MessageCap)
	// Untouched keys keep their defaults.
	assert.Equal(t, 60, cfg.FrameRate)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed yaml", content: "message_cap: [1, 2"},
		{name: "zero cap", content: "message_cap: 0"},
		{name: "negative frame rate", content: "frame_rate: -1"},
		{name: "bad characteristic", content: "characteristic: not-a-uuid"},
		{name: "zero poll interval", content: "poll_interval: 0s"},
		{name: "scan too short", content: "scan_duration: 1ns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, filepath.Base(t.Name())+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestExpandUUID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "ffe1", want: "0000ffe1-0000-1000-8000-00805f9b34fb"},
		{in: "0xFFE1", want: "0000ffe1-0000-1000-8000-00805f9b34fb"},
		{in: "0000ffe1", want: "0000ffe1-0000-1000-8000-00805f9b34fb"},
		{in: "9280F26C-A56F-43EA-B769-D5D732E1AC67", want: "9280f26c-a56f-43ea-b769-d5d732e1ac67"},
		{in: "", wantErr: true},
		{in: "xyz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ExpandUUID(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevel(t *testing.T) {
	cfg := Default()

	level, err := cfg.Level("", false)
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, level)

	level, err = cfg.Level("", true)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, level)

	level, err = cfg.Level("error", true)
	require.NoError(t, err)
	assert.Equal(t, logrus.ErrorLevel, level)

	_, err = cfg.Level("loud", false)
	assert.Error(t, err)
}

func TestFrameInterval(t *testing.T) {
	cfg := Default()
	cfg.FrameRate = 50
	assert.Equal(t, 20*time.Millisecond, cfg.FrameInterval())
}
