package main

import (
	"chat-rooms/domain/event"
	"chat-rooms/infrastructure/socket"
	"chat-rooms/projection"
	"chat-rooms/repositories"
	"chat-rooms/runtime"
	"chat-rooms/runtime/workers"
	"chat-rooms/services"
	"chat-rooms/ui"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
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

func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	rooms := config.RoomList()
	if len(rooms) == 0 {
		return exitConfig, fmt.Errorf("CHAT_ROOMS must name at least one room, got %q", config.Rooms)
	}

	logger, closeLog, err := newFileLogger(config.LogFile, config.LogLevel)
	if err != nil {
		return exitConfig, err
	}
	defer closeLog()

	// 2. Database (BadgerDB), holds the username
	options := badger.DefaultOptions(config.BadgerFilepath).WithLogger(nil)
	db, err := badger.Open(options)
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	identity, err := services.NewIdentityStore(logger, repositories.NewIdentityRepository(db))
	if err != nil {
		return exitRuntime, fmt.Errorf("identity loading failed: %w", err)
	}

	// 3. Session
	transport := socket.NewTransport(logger, config.HubURL, socket.Options{
		HandshakeTimeout: config.HandshakeTimeout,
		WriteTimeout:     config.WriteTimeout,
		ReadTimeout:      config.ReadTimeout,
	})
	conn := runtime.NewConnection(logger, transport, config.BufferSize, runtime.ReconnectPolicy{
		Attempts: config.ReconnectAttempts,
		Delay:    config.ReconnectDelay,
	})
	events := make(chan event.DomainEvent, config.BufferSize)
	session := runtime.NewSession(logger, conn, identity, events, runtime.SessionConfig{
		Rooms:          rooms,
		TypingDebounce: config.TypingDebounce,
		CommandBuffer:  config.BufferSize,
	})

	// 4. Read models
	timeline := projection.NewTimeline()
	sink := ui.NewSink(config.BufferSize)
	fanout := workers.NewEventFanout(logger, events, config.SinkTimeout, timeline, sink)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := workers.NewSupervisor(logger).WithRestartDelay(config.RestartInterval)
	capacity := workers.NewChannelCapacityWorker(logger, []workers.NamedChannel{
		{Name: "session-events", Channel: events},
		{Name: "connection-frames", Channel: conn.Frames()},
		{Name: "ui-events", Channel: sink.Events()},
	}, config.MetricInterval, config.LowCapacity)
	sup.Add(session, fanout, capacity)
	supervised := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supervised)
	}()

	// 6. Terminal, blocks until the user quits
	program := tea.NewProgram(ui.NewModel(session, timeline, sink.Events()), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = program.Run()

	sup.Stop()
	<-supervised
	logger.Info("Client stopped cleanly")

	if err != nil && ctx.Err() == nil {
		return exitRuntime, fmt.Errorf("terminal error: %w", err)
	}
	return exitOK, nil
}

// newFileLogger writes JSON records to path, the terminal belongs to the UI.
func newFileLogger(path, level string) (*slog.Logger, func(), error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, nil, fmt.Errorf("LOG_LEVEL %q: %w", level, err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("log file opening failed: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: lvl}))
	return logger, func() { _ = file.Close() }, nil
}
