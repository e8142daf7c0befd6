package e2e

import (
	"chat-rooms/domain"
	"chat-rooms/domain/event"
	"chat-rooms/hub"
	"chat-rooms/infrastructure/socket"
	"chat-rooms/moderation"
	"chat-rooms/repositories"
	"chat-rooms/runtime"
	"chat-rooms/services"
	"context"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

type BaseHubSuite struct {
	suite.Suite
	Config Config
	log    *slog.Logger
	url    string
	stop   context.CancelFunc
	server *httptest.Server
}

// SetupSuite loads the environment configuration and starts a hub unless
// one is given.
func (s *BaseHubSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	s.log = logs.GetLoggerFromLevel(slog.LevelDebug)

	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	if s.Config.HubURL != "" {
		s.url = s.Config.HubURL
		return
	}

	loader, dir := moderation.DefaultLoader()
	censored, err := loader.LoadAll(dir)
	s.Require().NoError(err)
	moderator, err := moderation.NewModerator(censored.Words, '*', s.log)
	s.Require().NoError(err)

	chatHub := hub.NewHub(s.log, moderator, hub.DefaultHistoryLimit, 64)
	go func() { _ = chatHub.Run(ctx) }()
	server := hub.NewServer(s.log, chatHub, hub.ServerConfig{
		SendBuffer: 64,
		PingPeriod: time.Second,
		Socket:     socket.DefaultOptions(),
	})
	s.server = httptest.NewServer(server.Handler(ctx))
	s.url = "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
}

func (s *BaseHubSuite) TearDownSuite() {
	s.stop()
	if s.server != nil {
		s.server.Close()
	}
}

// Step prints a header before running a named sub test.
func (s *BaseHubSuite) Step(name string, fn func()) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
	s.Run(name, fn)
}

// Participant is one client session against the hub.
type Participant struct {
	Name    string
	Session *runtime.Session
	Events  chan event.DomainEvent
}

// Join starts a session with an in-memory identity store, already logged
// in when name is not empty.
func (s *BaseHubSuite) Join(name string) *Participant {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = db.Close() })

	identity, err := services.NewIdentityStore(s.log, repositories.NewIdentityRepository(db))
	s.Require().NoError(err)
	if name != "" {
		_, err = identity.Set(name)
		s.Require().NoError(err)
	}

	transport := socket.NewTransport(s.log, s.url, socket.DefaultOptions())
	conn := runtime.NewConnection(s.log, transport, 64, runtime.ReconnectPolicy{})
	events := make(chan event.DomainEvent, 256)
	session := runtime.NewSession(s.log, conn, identity, events, runtime.SessionConfig{
		TypingDebounce: s.Config.TypingDebounce,
		CommandBuffer:  16,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = session.Run(ctx)
		close(done)
	}()
	s.T().Cleanup(func() {
		cancel()
		<-done
	})
	return &Participant{Name: name, Session: session, Events: events}
}

// Eventually waits until the view of p satisfies check.
func (s *BaseHubSuite) Eventually(p *Participant, msg string, check func(view domain.View) bool) {
	s.Require().Eventually(func() bool {
		return check(p.Session.View())
	}, s.Config.Timeout, 10*time.Millisecond, msg)
}

func (s *BaseHubSuite) Ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), s.Config.Timeout)
	s.T().Cleanup(cancel)
	return ctx
}
