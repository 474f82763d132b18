package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/tinyland-inc/skybridge/cmd/skybridge/internal"
	"github.com/tinyland-inc/skybridge/pkg/bus"
	"github.com/tinyland-inc/skybridge/pkg/channels"
	"github.com/tinyland-inc/skybridge/pkg/logger"
	"github.com/tinyland-inc/skybridge/pkg/skype"
)

const help = `Commands:
  <text>                            send text to the room
  /forward <sender> <source> <text> send text attributed to sender@source
  /raw <markup>                     send pre-formatted markup unescaped
  /quit                             leave`

var errQuit = errors.New("quit")

func consoleCmd(debug bool) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "skype> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".skybridge_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("error initializing readline: %w", err)
	}
	defer rl.Close()

	logger.SetConsole(rl.Stderr())
	if debug {
		logger.SetLevel(logger.DEBUG)
	}

	session, err := skype.New(cfg.Skype)
	if err != nil {
		return fmt.Errorf("error creating skype session: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgBus := bus.NewMessageBus()
	defer msgBus.Close()

	skypeChannel := channels.NewSkypeChannel(session, msgBus, cfg.Skype.AllowFrom)
	channelManager := channels.NewManager(msgBus)
	channelManager.Register(skypeChannel)

	session.OnReady(func() {
		fmt.Fprintf(rl.Stdout(), "%s Logged in to %s\n", internal.Logo, session.Room())
	})
	go printInbound(ctx, msgBus, rl.Stdout())

	if err := channelManager.StartAll(ctx); err != nil {
		return err
	}
	defer channelManager.StopAll(context.Background())

	failed := make(chan error, 1)
	go func() {
		select {
		case err := <-skypeChannel.Errors():
			fmt.Fprintf(rl.Stderr(), "✗ Skype session failed: %v\n", err)
			failed <- err
			rl.Close()
		case <-ctx.Done():
		}
	}()

	fmt.Fprintf(rl.Stdout(), "%s Logging in as %s, type /help for commands\n", internal.Logo, cfg.Skype.Username)

	for {
		// Interrupt, EOF, or the prompt closed after a session failure.
		line, err := rl.Readline()
		if err != nil {
			break
		}

		if strings.TrimSpace(line) == "/help" {
			fmt.Fprintln(rl.Stdout(), help)
			continue
		}

		msg, err := parseLine(line, skypeChannel.Name())
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "%v\n", err)
			continue
		}
		if msg == nil {
			continue
		}
		if err := msgBus.PublishOutbound(ctx, *msg); err != nil {
			fmt.Fprintf(rl.Stderr(), "Error: %v\n", err)
		}
	}

	cancel()
	fmt.Println("Goodbye!")
	select {
	case err := <-failed:
		return err
	default:
		return nil
	}
}

// parseLine turns one line of input into an outbound message. Blank lines
// yield nil.
func parseLine(line, channel string) (*bus.OutboundMessage, error) {
	input := strings.TrimSpace(line)
	if input == "" {
		return nil, nil
	}
	if input == "/quit" || input == "exit" || input == "quit" {
		return nil, errQuit
	}

	if !strings.HasPrefix(input, "/") {
		return &bus.OutboundMessage{Channel: channel, Text: input}, nil
	}

	command, rest, _ := strings.Cut(input, " ")
	switch command {
	case "/forward":
		parts := strings.SplitN(strings.TrimSpace(rest), " ", 3)
		if len(parts) < 3 || strings.TrimSpace(parts[2]) == "" {
			return nil, errors.New("usage: /forward <sender> <source> <text>")
		}
		return &bus.OutboundMessage{
			Channel: channel,
			Sender:  parts[0],
			Source:  parts[1],
			Text:    strings.TrimSpace(parts[2]),
		}, nil
	case "/raw":
		text := strings.TrimSpace(rest)
		if text == "" {
			return nil, errors.New("usage: /raw <markup>")
		}
		return &bus.OutboundMessage{Channel: channel, Text: text, Raw: true}, nil
	default:
		return nil, fmt.Errorf("unknown command %s, type /help", command)
	}
}

func printInbound(ctx context.Context, msgBus *bus.MessageBus, w io.Writer) {
	for {
		msg, ok := msgBus.ConsumeInbound(ctx)
		if !ok {
			return
		}
		fmt.Fprintln(w, formatInbound(msg))
	}
}

func formatInbound(msg bus.InboundMessage) string {
	return fmt.Sprintf("<%s> %s", msg.Sender, msg.Text)
}
