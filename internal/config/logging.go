package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a logger writing to out at the given level.
func NewLogger(level logrus.Level, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return logger
}

// Level resolves the effective log level. An explicit level wins over
// verbose, and verbose wins over the configured LogLevel.
func (c *Config) Level(explicit string, verbose bool) (logrus.Level, error) {
	name := c.LogLevel
	switch {
	case explicit != "":
		name = explicit
	case verbose:
		return logrus.DebugLevel, nil
	}
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return logrus.PanicLevel, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", name)
	}
	return level, nil
}

// LogWriter opens LogFile for appending when set. Otherwise it returns
// fallback. The returned close func is always safe to call.
func (c *Config) LogWriter(fallback io.Writer) (io.Writer, func() error, error) {
	if c.LogFile == "" {
		return fallback, func() error { return nil }, nil
	}
	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, f.Close, nil
}
