package main

import (
	"chat-rooms/hub"
	"chat-rooms/infrastructure/socket"
	"chat-rooms/moderation"
	"chat-rooms/runtime/workers"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
	}
	os.Exit(code)
}

// run wires the distribution hub and blocks until a signal stops it.
// Returning instead of exiting lets the deferred cleanups run.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := config.CharacterRune()
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	// 2. Moderation
	loader, dir := moderation.DefaultLoader()
	censored, err := loader.LoadAll(dir)
	if err != nil {
		return exitConfig, fmt.Errorf("censored words loading failed: %w", err)
	}
	moderator, err := moderation.NewModerator(censored.Words, charReplacement, logger)
	if err != nil {
		return exitConfig, fmt.Errorf("moderator init failed: %w", err)
	}
	logger.Info("Moderation ready", "languages", censored.Languages, "words", len(censored.Words))

	// 3. Hub & HTTP server
	chatHub := hub.NewHub(logger, moderator, config.HistoryLimit, config.BufferSize)
	server := hub.NewServer(logger, chatHub, hub.ServerConfig{
		Address:         config.Address(),
		SendBuffer:      config.ClientBufferSize,
		PingPeriod:      config.PingPeriod,
		ShutdownTimeout: config.ShutdownTimeout,
		Socket: socket.Options{
			HandshakeTimeout: config.WriteTimeout,
			WriteTimeout:     config.WriteTimeout,
			ReadTimeout:      config.ReadTimeout,
		},
	})

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Supervision, blocks until every worker stopped
	sup := workers.NewSupervisor(logger).WithRestartDelay(config.RestartInterval)
	capacity := workers.NewChannelCapacityWorker(logger, []workers.NamedChannel{
		{Name: "hub-inbound", Channel: chatHub.Inbound()},
	}, config.MetricInterval, config.LowCapacity)
	sup.Add(chatHub, server, capacity)
	sup.Run(ctx)

	logger.Info("Hub stopped cleanly")
	return exitOK, nil
}
