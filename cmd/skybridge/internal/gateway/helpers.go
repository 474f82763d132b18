package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tinyland-inc/skybridge/cmd/skybridge/internal"
	"github.com/tinyland-inc/skybridge/pkg/bus"
	"github.com/tinyland-inc/skybridge/pkg/channels"
	"github.com/tinyland-inc/skybridge/pkg/config"
	"github.com/tinyland-inc/skybridge/pkg/health"
	"github.com/tinyland-inc/skybridge/pkg/heartbeat"
	"github.com/tinyland-inc/skybridge/pkg/logger"
	"github.com/tinyland-inc/skybridge/pkg/relay"
	"github.com/tinyland-inc/skybridge/pkg/skype"
)

const shutdownTimeout = 10 * time.Second

func gatewayCmd(debug bool) error {
	if debug {
		logger.SetLevel(logger.DEBUG)
		fmt.Println("🔍 Debug mode enabled")
	}

	cfg, err := internal.LoadConfig()
	if err != nil {
		return err
	}

	session, err := skype.New(cfg.Skype)
	if err != nil {
		return fmt.Errorf("error creating skype session: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, cfg, session)
}

// run wires the session into the gateway services and blocks until ctx
// ends or the session fails. A session failure is returned so the process
// exits non-zero.
func run(ctx context.Context, cfg *config.Config, session *skype.Session) error {
	msgBus := bus.NewMessageBus()
	defer msgBus.Close()

	skypeChannel := channels.NewSkypeChannel(session, msgBus, cfg.Skype.AllowFrom)
	channelManager := channels.NewManager(msgBus)
	channelManager.Register(skypeChannel)

	heartbeatService, err := heartbeat.NewHeartbeatService(cfg.Heartbeat.PingSchedule, cfg.Heartbeat.Enabled)
	if err != nil {
		return err
	}
	heartbeatService.SetHandler(session.Ping)

	healthServer := health.NewServer(cfg.Gateway.Host, cfg.Gateway.Port)
	healthServer.RegisterCheck("skype", func() (bool, string) {
		if session.IsReady() {
			return true, ""
		}
		return false, "login pending"
	})

	var relayServer *relay.Server
	if cfg.Relay.Enabled {
		relayServer = relay.NewServer(cfg.Relay, msgBus, skypeChannel.Name())
		healthServer.Handle(cfg.Relay.Path, relayServer)
		go relayServer.Run(ctx)
	} else {
		go logInbound(ctx, msgBus)
	}

	session.OnReady(func() {
		fmt.Printf("✓ Logged in, relaying %s\n", session.Ident())
	})
	session.Init(func() {
		logger.DebugC("gateway", "Init hook finished")
	})

	if err := channelManager.StartAll(ctx); err != nil {
		return fmt.Errorf("error starting channels: %w", err)
	}
	fmt.Printf("✓ Channels enabled: %s\n", channelManager.GetEnabledChannels())

	if err := heartbeatService.Start(); err != nil {
		fmt.Printf("Error starting heartbeat service: %v\n", err)
	}

	go func() {
		if err := healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorCF("health", "Health server error", map[string]any{"error": err.Error()})
		}
	}()
	fmt.Printf("✓ Gateway started on %s:%d\n", cfg.Gateway.Host, cfg.Gateway.Port)
	if relayServer != nil {
		fmt.Printf("✓ Relay available at ws://%s:%d%s\n", cfg.Gateway.Host, cfg.Gateway.Port, cfg.Relay.Path)
	}
	fmt.Println("Press Ctrl+C to stop")

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-skypeChannel.Errors():
		fmt.Printf("✗ Skype session failed: %v\n", runErr)
	}

	fmt.Println("\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	heartbeatService.Stop()
	channelManager.StopAll(shutdownCtx)
	if relayServer != nil {
		relayServer.Close()
	}
	_ = healthServer.Stop(shutdownCtx)
	fmt.Println("✓ Gateway stopped")

	return runErr
}

// logInbound drains inbound messages when no relay is attached.
func logInbound(ctx context.Context, msgBus *bus.MessageBus) {
	for {
		msg, ok := msgBus.ConsumeInbound(ctx)
		if !ok {
			return
		}
		logger.InfoCF("gateway", "Inbound message", map[string]any{
			"sender": msg.Sender,
			"room":   msg.Room,
			"text":   msg.Text,
		})
	}
}
