// Package shell provides a line-oriented console for the bridge, for
// terminals where the full-screen TUI is unwanted.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"

	"github.com/vitaminmoo/blecon/internal/bridge"
	"github.com/vitaminmoo/blecon/internal/config"
)

var (
	// ErrQuit is returned by ParseLine for the quit command.
	ErrQuit = errors.New("quit")

	// ErrHelp is returned by ParseLine for the help command.
	ErrHelp = errors.New("help")
)

// Bridge is the part of the device bridge the shell drives.
type Bridge interface {
	Submit(cmd bridge.Command)
	DrainMessages() []bridge.Message
	ShutdownAndJoin()
}

// Shell reads commands from a prompt and prints bridge messages as they
// arrive.
type Shell struct {
	bridge Bridge
	rl     *readline.Instance
	out    io.Writer

	quickPayload string
	pollInterval time.Duration

	mu sync.Mutex // serializes writes to out
}

// New creates a shell over b.
func New(b Bridge, cfg *config.Config) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "blecon> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("scan"),
			readline.PcItem("connect"),
			readline.PcItem("disconnect"),
			readline.PcItem("send"),
			readline.PcItem("go"),
			readline.PcItem("help"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Shell{
		bridge:       b,
		rl:           rl,
		out:          rl.Stdout(),
		quickPayload: cfg.QuickPayload,
		pollInterval: cfg.PollInterval,
	}, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run starts the interactive command loop. It returns when the user quits
// or ctx is cancelled, after the bridge has been shut down and its last
// messages printed.
func (s *Shell) Run(ctx context.Context) {
	defer s.rl.Close()
	unblock := context.AfterFunc(ctx, func() { s.rl.Close() })
	defer unblock()

	printerCtx, stopPrinter := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.printLoop(printerCtx)
	}()
	defer func() {
		stopPrinter()
		wg.Wait()
		s.bridge.ShutdownAndJoin()
		s.flush()
	}()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			s.println("Exiting...")
			return
		}

		cmd, err := ParseLine(line, s.quickPayload)
		switch {
		case errors.Is(err, ErrQuit):
			s.println("Exiting...")
			return
		case errors.Is(err, ErrHelp):
			s.printHelp()
		case err != nil:
			s.println(fmt.Sprintf("%v (type 'help' for commands)", err))
		case cmd != nil:
			s.bridge.Submit(cmd)
		}
	}
}

// ParseLine turns one input line into a bridge command. An empty line
// yields a nil command and no error. Names and text keep their inner
// spacing.
func ParseLine(line, quickPayload string) (bridge.Command, error) {
	input := strings.TrimSpace(line)
	if input == "" {
		return nil, nil
	}

	word := strings.Fields(input)[0]
	rest := strings.TrimSpace(input[len(word):])

	switch strings.ToLower(word) {
	case "scan", "s":
		return bridge.Scan{}, nil
	case "connect", "c":
		if rest == "" {
			return nil, errors.New("usage: connect <name>")
		}
		return bridge.Connect{Name: rest}, nil
	case "disconnect", "d":
		return bridge.Disconnect{}, nil
	case "send":
		if rest == "" {
			return nil, errors.New("usage: send <text>")
		}
		return bridge.SendText(rest), nil
	case "go", "g":
		return bridge.SendText(quickPayload), nil
	case "help", "?":
		return nil, ErrHelp
	case "quit", "exit", "q":
		return nil, ErrQuit
	default:
		return nil, fmt.Errorf("unknown command: %s", word)
	}
}

// printLoop prints bridge messages at the poll interval until ctx ends.
func (s *Shell) printLoop(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.flush()
		}
	}
}

func (s *Shell) flush() {
	for _, msg := range s.bridge.DrainMessages() {
		s.println(bridge.Format(msg))
	}
}

func (s *Shell) println(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, line)
}

func (s *Shell) printHelp() {
	s.println(fmt.Sprintf(`
Commands:
  scan            - Scan for nearby devices
  connect <name>  - Connect to a device from the last scan
  disconnect      - Close the current connection
  send <text>     - Send text to the connected device
  go              - Send %q
  help            - Show this help
  quit            - Disconnect and exit
`, s.quickPayload))
}
