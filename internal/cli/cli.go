package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/vitaminmoo/blecon/internal/ble"
	"github.com/vitaminmoo/blecon/internal/bridge"
	"github.com/vitaminmoo/blecon/internal/config"
	"github.com/vitaminmoo/blecon/internal/shell"
	"github.com/vitaminmoo/blecon/internal/tui"
)

// CLI is the root command structure for blecon.
type CLI struct {
	Verbose    bool   `short:"v" help:"Enable verbose debug output"`
	LogLevel   string `name:"log-level" help:"Log level (debug, info, warn, error); overrides --verbose"`
	ConfigFile string `name:"config" type:"path" help:"Config file (default ~/.blecon/config.yaml)"`

	// Default command - TUI
	Tui TuiCmd `cmd:"" default:"withargs" help:"Launch interactive TUI (default)"`

	Shell  ShellCmd  `cmd:"" help:"Line-oriented console"`
	Scan   ScanCmd   `cmd:"" help:"Scan once and print device names"`
	Send   SendCmd   `cmd:"" help:"Connect to a device, send text and print replies"`
	Config ConfigCmd `cmd:"" help:"Print the effective configuration as YAML"`

	Stdout io.Writer `kong:"-"`
	Stderr io.Writer `kong:"-"`
}

func (c *CLI) stdout() io.Writer {
	if c.Stdout != nil {
		return c.Stdout
	}
	return os.Stdout
}

func (c *CLI) stderr() io.Writer {
	if c.Stderr != nil {
		return c.Stderr
	}
	return os.Stderr
}

// session is the shared setup of every command that talks to a device.
type session struct {
	cfg      *config.Config
	log      *logrus.Logger
	bridge   *bridge.Bridge
	closeLog func() error
}

// open loads the config, builds the logger and creates an unstarted
// bridge. Logs go to logOut unless the config names a log file.
func (c *CLI) open(logOut io.Writer) (*session, error) {
	cfg, err := config.Load(c.ConfigFile)
	if err != nil {
		return nil, err
	}

	level, err := cfg.Level(c.LogLevel, c.Verbose)
	if err != nil {
		return nil, err
	}
	w, closeLog, err := cfg.LogWriter(logOut)
	if err != nil {
		return nil, err
	}
	log := config.NewLogger(level, w)

	transport, err := ble.New(cfg, log)
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	return &session{
		cfg:      cfg,
		log:      log,
		bridge:   bridge.New(transport, cfg, log),
		closeLog: closeLog,
	}, nil
}

func (s *session) close() {
	if err := s.closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close log file: %v\n", err)
	}
}

// --- TUI Command ---

type TuiCmd struct{}

func (c *TuiCmd) Run(globals *CLI) error {
	// Anything written to the terminal would tear the alt screen.
	s, err := globals.open(io.Discard)
	if err != nil {
		return err
	}
	defer s.close()

	s.bridge.Start(context.Background())
	return tui.Run(s.bridge, s.cfg)
}

// --- Shell Command ---

type ShellCmd struct{}

func (c *ShellCmd) Run(globals *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := globals.open(globals.stderr())
	if err != nil {
		return err
	}
	defer s.close()

	sh, err := shell.New(s.bridge, s.cfg)
	if err != nil {
		s.bridge.ShutdownAndJoin()
		return err
	}
	if s.cfg.LogFile == "" {
		s.log.SetOutput(sh.Stdout())
	}

	s.bridge.Start(ctx)
	sh.Run(ctx)
	return nil
}

// --- Scan Command ---

type ScanCmd struct{}

func (c *ScanCmd) Run(globals *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := globals.open(globals.stderr())
	if err != nil {
		return err
	}
	defer s.close()

	s.bridge.Start(ctx)
	s.bridge.Submit(bridge.Scan{})
	waitIdle(ctx, s.bridge, s.cfg.PollInterval)
	s.bridge.ShutdownAndJoin()

	msgs := s.bridge.DrainMessages()
	var scanned bool
	for _, msg := range msgs {
		switch m := msg.(type) {
		case bridge.ScanResult:
			scanned = true
			for _, name := range m.Names {
				fmt.Fprintln(globals.stdout(), name)
			}
		default:
			fmt.Fprintln(globals.stderr(), bridge.Format(msg))
		}
	}
	if !scanned {
		return errors.New("scan did not complete")
	}
	return nil
}

// --- Send Command ---

type SendCmd struct {
	Name   string        `arg:"" help:"Device name as advertised"`
	Text   string        `arg:"" help:"Text to send"`
	Listen time.Duration `default:"2s" help:"How long to print notifications after sending"`
}

func (c *SendCmd) Run(globals *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := globals.open(globals.stderr())
	if err != nil {
		return err
	}
	defer s.close()

	b := s.bridge
	b.Start(ctx)
	b.Submit(bridge.Scan{})
	b.Submit(bridge.Connect{Name: c.Name})
	b.Submit(bridge.SendText(c.Text))
	waitIdle(ctx, b, s.cfg.PollInterval)
	connected := b.State() == bridge.StateConnected

	if connected && c.Listen > 0 {
		listenCtx, cancel := context.WithTimeout(ctx, c.Listen)
		pump(listenCtx, b, s.cfg.PollInterval, globals.stdout())
		cancel()
	}

	b.ShutdownAndJoin()
	printMessages(globals.stdout(), b.DrainMessages())

	if !connected {
		return fmt.Errorf("could not connect to %s", c.Name)
	}
	return nil
}

// --- Config Command ---

type ConfigCmd struct{}

func (c *ConfigCmd) Run(globals *CLI) error {
	cfg, err := config.Load(globals.ConfigFile)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = globals.stdout().Write(out)
	return err
}

// waitIdle returns once every submitted command has run, the worker has
// stopped, or ctx is done.
func waitIdle(ctx context.Context, b *bridge.Bridge, poll time.Duration) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for b.Busy() {
		select {
		case <-ctx.Done():
			return
		case <-b.Done():
			return
		case <-ticker.C:
		}
	}
}

// pump prints messages as they arrive until ctx is done.
func pump(ctx context.Context, b *bridge.Bridge, poll time.Duration, out io.Writer) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		printMessages(out, b.DrainMessages())
		select {
		case <-ctx.Done():
			return
		case <-b.Done():
			return
		case <-ticker.C:
		}
	}
}

func printMessages(out io.Writer, msgs []bridge.Message) {
	for _, msg := range msgs {
		fmt.Fprintln(out, bridge.Format(msg))
	}
}
